package shell

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/atinyakov/storefront/internal/models"
)

// ErrAddressNotFound is returned when an address reference matches nothing.
var ErrAddressNotFound = errors.New("address not found")

// AddressList prints the address book. The NO column is what the other
// address commands accept in place of the id.
func (s *Shell) AddressList() error {
	items := s.App.Addresses.Items()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "No saved addresses")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NO\tTYPE\tNAME\tADDRESS\tDEFAULT")
	for i, a := range items {
		def := ""
		if a.IsDefault {
			def = "*"
		}
		place := strings.Join([]string{a.Address1, a.City, a.State, a.ZipCode}, ", ")
		fmt.Fprintf(tw, "%d\t%s\t%s %s\t%s\t%s\n", i+1, a.Type, a.FirstName, a.LastName, place, def)
	}
	return tw.Flush()
}

// AddressAdd asks for a new address and saves it.
func (s *Shell) AddressAdd() error {
	var pre models.Address
	if u, ok := s.App.Session.User(); ok {
		pre.FirstName, pre.LastName, _ = strings.Cut(u.Name, " ")
	}
	addr := s.PromptAddress(pre)
	if len(s.App.Addresses.Items()) > 0 {
		addr.IsDefault = s.confirm("Make default")
	}
	_, err := s.App.Addresses.Add(addr)
	if err = s.saved(err); err != nil {
		return err
	}
	return s.AddressList()
}

// AddressUpdate asks for new values of the address ref, prefilled with the
// current ones.
func (s *Shell) AddressUpdate(ref string) error {
	cur, err := s.address(ref)
	if err != nil {
		return err
	}
	addr := s.PromptAddress(cur)
	addr.ID, addr.IsDefault = cur.ID, cur.IsDefault
	_, err = s.App.Addresses.Update(addr)
	if err = s.saved(err); err != nil {
		return err
	}
	return s.AddressList()
}

// AddressRemove deletes the address ref.
func (s *Shell) AddressRemove(ref string) error {
	a, err := s.address(ref)
	if err != nil {
		return err
	}
	if err := s.saved(s.App.Addresses.Remove(a.ID)); err != nil {
		return err
	}
	return s.AddressList()
}

// AddressDefault makes ref the default address used to prefill checkout.
func (s *Shell) AddressDefault(ref string) error {
	a, err := s.address(ref)
	if err != nil {
		return err
	}
	_, err = s.App.Addresses.SetDefault(a.ID)
	if err = s.saved(err); err != nil {
		return err
	}
	return s.AddressList()
}

// address resolves ref, either a list number or an id.
func (s *Shell) address(ref string) (models.Address, error) {
	items := s.App.Addresses.Items()
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(items) {
		return items[n-1], nil
	}
	if a, ok := s.App.Addresses.Get(ref); ok {
		return a, nil
	}
	return models.Address{}, fmt.Errorf("%s: %w", ref, ErrAddressNotFound)
}

// PromptAddress reads an address, offering the fields of pre as defaults.
func (s *Shell) PromptAddress(pre models.Address) models.Address {
	return models.Address{
		Type:      s.prompt("Type (Home/Work)", cmp.Or(pre.Type, "Home")),
		FirstName: s.prompt("First name", pre.FirstName),
		LastName:  s.prompt("Last name", pre.LastName),
		Company:   s.prompt("Company", pre.Company),
		Address1:  s.prompt("Address", pre.Address1),
		Address2:  s.prompt("Apartment, suite", pre.Address2),
		City:      s.prompt("City", pre.City),
		State:     s.prompt("State", pre.State),
		ZipCode:   s.prompt("ZIP code", pre.ZipCode),
		Country:   s.prompt("Country", cmp.Or(pre.Country, "US")),
		Phone:     s.prompt("Phone", pre.Phone),
	}
}
