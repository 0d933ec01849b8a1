package shell

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/service"
)

// prompt prints label and reads one line. An empty answer yields def.
func (s *Shell) prompt(label, def string) string {
	if def != "" {
		fmt.Fprintf(s.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(s.out, "%s: ", label)
	}
	if !s.in.Scan() {
		return def
	}
	v := strings.TrimSpace(s.in.Text())
	if v == "" {
		return def
	}
	return v
}

// PromptCheckout reads the shipping and payment forms. The signed-in user
// and the default address prefill the answers.
func (s *Shell) PromptCheckout() models.CheckoutRequest {
	var pre models.ShippingDetails
	if u, ok := s.App.Session.User(); ok {
		pre.Email = u.Email
		first, last, _ := strings.Cut(u.Name, " ")
		pre.FirstName, pre.LastName = first, last
	}
	if a, ok := s.App.Addresses.Default(); ok {
		pre.FirstName, pre.LastName = a.FirstName, a.LastName
		pre.Phone = a.Phone
		pre.Address = strings.TrimSpace(a.Address1 + " " + a.Address2)
		pre.City, pre.State, pre.ZipCode, pre.Country = a.City, a.State, a.ZipCode, a.Country
	}

	fmt.Fprintln(s.out, "Shipping")
	req := models.CheckoutRequest{
		Shipping: models.ShippingDetails{
			FirstName: s.prompt("First name", pre.FirstName),
			LastName:  s.prompt("Last name", pre.LastName),
			Email:     s.prompt("Email", pre.Email),
			Phone:     s.prompt("Phone", pre.Phone),
			Address:   s.prompt("Address", pre.Address),
			City:      s.prompt("City", pre.City),
			State:     s.prompt("State", pre.State),
			ZipCode:   s.prompt("ZIP code", pre.ZipCode),
			Country:   s.prompt("Country", cmp.Or(pre.Country, "US")),
		},
	}
	req.ShippingMethod = s.prompt("Shipping method (standard/express/overnight)", service.ShippingStandard)

	fmt.Fprintln(s.out, "Payment")
	req.Payment.Method = s.prompt("Method (card/paypal)", "card")
	if req.Payment.Method == "card" {
		req.Payment.CardNumber = s.prompt("Card number", "")
		req.Payment.ExpiryDate = s.prompt("Expiry (MM/YY)", "")
		req.Payment.CVV = s.prompt("CVV", "")
		req.Payment.CardName = s.prompt("Name on card", strings.TrimSpace(req.Shipping.FirstName+" "+req.Shipping.LastName))
	}
	req.PromoCode = s.prompt("Promo code", "")
	return req
}

// confirm asks a yes/no question; anything but y or yes is no.
func (s *Shell) confirm(label string) bool {
	v := strings.ToLower(s.prompt(label+" (y/N)", ""))
	return v == "y" || v == "yes"
}
