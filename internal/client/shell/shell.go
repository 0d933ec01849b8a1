// Package shell implements the storefront command-line client. Every command
// is a method over the local state; Exec and Run drive them from text lines.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/atinyakov/storefront/internal/catalog"
	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/service"
	"github.com/atinyakov/storefront/internal/state"
)

// ErrUsage is returned for a malformed command line.
var ErrUsage = errors.New("usage")

// Remote is the storefront server as seen by the client.
type Remote interface {
	PushCart(ctx context.Context, lines []models.CartLine) error
	Checkout(ctx context.Context, req models.CheckoutRequest) (models.Order, error)
	Track(ctx context.Context, number string) (models.TrackingInfo, error)
}

// Shell runs client commands against one local state.
type Shell struct {
	App     *state.App
	Catalog *catalog.Catalog
	// Remote places orders on the server. Without it orders are placed locally.
	Remote Remote

	Auth     *service.AuthService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Log      *zap.Logger

	in  *bufio.Scanner
	out io.Writer
}

// New returns a shell reading answers from in and printing to out.
func New(app *state.App, cat *catalog.Catalog, remote Remote, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		App:      app,
		Catalog:  cat,
		Remote:   remote,
		Auth:     service.NewAuthService(0),
		Checkout: service.NewCheckoutService(0),
		Orders:   service.NewOrderService(cat, 0),
		Log:      zap.NewNop(),
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// saved reports a mutation that was applied but not written to the store.
// Such a change is kept, so only a warning is printed.
func (s *Shell) saved(err error) error {
	if err != nil && errors.Is(err, state.ErrPersist) {
		s.Log.Warn("state change not persisted", zap.Error(err))
		fmt.Fprintf(s.out, "warning: %v\n", err)
		return nil
	}
	return err
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// Products prints one catalog page.
func (s *Shell) Products(q catalog.Query) error {
	page := s.Catalog.Query(q)
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tRATING")
	for _, p := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\n", p.ID, p.Name, p.Category, money(p.Price), p.Rating)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "page %d of %d, %d products\n", page.Page, page.Pages, page.Total)
	return nil
}

// Featured prints the products of the home page.
func (s *Shell) Featured() error {
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
	for _, p := range s.Catalog.Featured() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, money(p.Price))
	}
	return tw.Flush()
}

// Product prints one product and what relates to it.
func (s *Shell) Product(id string) error {
	p, err := s.Catalog.Product(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s (%s)\n", p.Name, p.Category)
	price := money(p.Price)
	if p.OriginalPrice != nil {
		price += " (was " + money(*p.OriginalPrice) + ")"
	}
	fmt.Fprintf(s.out, "%s  rating %.1f from %d reviews\n", price, p.Rating, p.Reviews)
	if p.Description != "" {
		fmt.Fprintln(s.out, p.Description)
	}
	if s.App.Wishlist.Contains(p.ID) {
		fmt.Fprintln(s.out, "in your wishlist")
	}
	if related := s.Catalog.Related(p.ID, 4); len(related) > 0 {
		fmt.Fprintln(s.out, "You may also like:")
		for _, r := range related {
			fmt.Fprintf(s.out, "  %s  %s  %s\n", r.ID, r.Name, money(r.Price))
		}
	}
	return nil
}

// Login signs in with email.
func (s *Shell) Login(ctx context.Context, email, password string) error {
	u, err := s.Auth.Login(ctx, s.App.Session, email, password)
	if err = s.saved(err); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Welcome back, %s\n", u.Name)
	return nil
}

// Register creates a user and signs in.
func (s *Shell) Register(ctx context.Context, name, email, password string) error {
	u, err := s.Auth.Register(ctx, s.App.Session, name, email, password)
	if err = s.saved(err); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Welcome, %s\n", u.Name)
	return nil
}

// Logout signs out.
func (s *Shell) Logout() error {
	if err := s.saved(s.Auth.Logout(s.App.Session)); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Signed out")
	return nil
}

// Profile changes the name and email of the signed-in user.
func (s *Shell) Profile(name, email string) error {
	u, err := s.Auth.UpdateProfile(s.App.Session, name, email)
	if err = s.saved(err); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s <%s>\n", u.Name, u.Email)
	return nil
}

// WhoAmI prints the signed-in user.
func (s *Shell) WhoAmI() error {
	u, ok := s.App.Session.User()
	if !ok {
		fmt.Fprintln(s.out, "not signed in")
		return nil
	}
	fmt.Fprintf(s.out, "%s <%s> (id %s)\n", u.Name, u.Email, u.ID)
	return nil
}

// CartAdd puts quantity units of a catalog product in the cart.
func (s *Shell) CartAdd(id, variant string, quantity int) error {
	p, err := s.Catalog.Product(id)
	if err != nil {
		return err
	}
	if err := s.saved(s.App.Cart.AddItem(p.CartItem(variant), quantity)); err != nil {
		return err
	}
	return s.CartShow()
}

// CartUpdate sets the quantity of a line; zero or less removes it.
func (s *Shell) CartUpdate(id, variant string, quantity int) error {
	if err := s.saved(s.App.Cart.UpdateQuantity(id, variant, quantity)); err != nil {
		return err
	}
	return s.CartShow()
}

// CartRemove drops a line.
func (s *Shell) CartRemove(id, variant string) error {
	if err := s.saved(s.App.Cart.RemoveItem(id, variant)); err != nil {
		return err
	}
	return s.CartShow()
}

// CartClear empties the cart.
func (s *Shell) CartClear() error {
	if err := s.saved(s.App.Cart.Clear()); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Cart cleared")
	return nil
}

// CartShow prints the cart lines and totals.
func (s *Shell) CartShow() error {
	lines := s.App.Cart.Items()
	if len(lines) == 0 {
		fmt.Fprintln(s.out, "Your cart is empty")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVARIANT\tQTY\tPRICE")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", l.ID, l.Name, l.Variant, l.Quantity, money(l.Price*float64(l.Quantity)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%d items, total %s\n", s.App.Cart.ItemCount(), money(s.App.Cart.Total()))
	return nil
}

// WishlistAdd saves a catalog product.
func (s *Shell) WishlistAdd(id string) error {
	p, err := s.Catalog.Product(id)
	if err != nil {
		return err
	}
	if err := s.saved(s.App.Wishlist.AddItem(p.WishlistEntry())); err != nil {
		return err
	}
	return s.WishlistShow()
}

// WishlistRemove drops a saved product.
func (s *Shell) WishlistRemove(id string) error {
	if err := s.saved(s.App.Wishlist.RemoveItem(id)); err != nil {
		return err
	}
	return s.WishlistShow()
}

// WishlistToggle saves a product or drops it when already saved.
func (s *Shell) WishlistToggle(id string) error {
	p, err := s.Catalog.Product(id)
	if err != nil {
		return err
	}
	added, err := s.App.Wishlist.Toggle(p.WishlistEntry())
	if err = s.saved(err); err != nil {
		return err
	}
	if added {
		fmt.Fprintf(s.out, "Added %s to your wishlist\n", p.Name)
	} else {
		fmt.Fprintf(s.out, "Removed %s from your wishlist\n", p.Name)
	}
	return nil
}

// WishlistShow prints the saved products.
func (s *Shell) WishlistShow() error {
	items := s.App.Wishlist.Items()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "Your wishlist is empty")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
	for _, e := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Category, money(e.Price))
	}
	return tw.Flush()
}

// PlaceOrder asks for the checkout forms, shows the quote and, once
// confirmed, places the order. With a Remote the cart is pushed to the
// server and the server's order is recorded locally.
func (s *Shell) PlaceOrder(ctx context.Context) error {
	if len(s.App.Cart.Items()) == 0 {
		return service.ErrEmptyCart
	}
	req := s.PromptCheckout()
	if err := s.Checkout.Validate(req); err != nil {
		return err
	}
	q, err := s.Checkout.Quote(s.App.Cart.Total(), req.ShippingMethod, req.PromoCode)
	if err != nil {
		return err
	}
	s.printQuote(q)
	if !s.confirm("Place order") {
		fmt.Fprintln(s.out, "Checkout cancelled")
		return nil
	}

	var order models.Order
	if s.Remote == nil {
		order, err = s.Checkout.PlaceOrder(ctx, s.App.Cart, s.App.Orders, req)
	} else {
		order, err = s.placeRemote(ctx, req)
	}
	if err = s.saved(err); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Order %s placed, total %s\n", order.OrderNumber, money(order.Total))
	fmt.Fprintf(s.out, "Tracking number: %s\n", order.TrackingNumber)
	return nil
}

func (s *Shell) placeRemote(ctx context.Context, req models.CheckoutRequest) (models.Order, error) {
	if err := s.Remote.PushCart(ctx, s.App.Cart.Items()); err != nil {
		return models.Order{}, fmt.Errorf("push cart: %w", err)
	}
	order, err := s.Remote.Checkout(ctx, req)
	if err != nil {
		return models.Order{}, fmt.Errorf("checkout: %w", err)
	}
	s.Log.Info("order placed on server", zap.String("order", order.OrderNumber))
	return order, multierr.Append(s.App.Orders.Record(order), s.App.Cart.Clear())
}

func (s *Shell) printQuote(q models.Quote) {
	fmt.Fprintf(s.out, "Subtotal  %s\n", money(q.Subtotal))
	if q.Shipping == 0 {
		fmt.Fprintln(s.out, "Shipping  FREE")
	} else {
		fmt.Fprintf(s.out, "Shipping  %s\n", money(q.Shipping))
	}
	fmt.Fprintf(s.out, "Tax       %s\n", money(q.Tax))
	if q.PromoApplied {
		fmt.Fprintf(s.out, "Discount  -%s\n", money(q.Discount))
	}
	fmt.Fprintf(s.out, "Total     %s\n", money(q.Total))
}

// OrderHistory prints local and demo orders.
func (s *Shell) OrderHistory(status, sortBy string) error {
	orders := s.Orders.List(s.App.Orders, status, sortBy)
	if len(orders) == 0 {
		fmt.Fprintln(s.out, "No orders")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tDATE\tSTATUS\tITEMS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", o.OrderNumber, o.Date.Format("2006-01-02"), o.Status, len(o.Items), money(o.Total))
	}
	return tw.Flush()
}

// Track prints the shipment of an order. Numbers unknown locally are asked
// of the Remote.
func (s *Shell) Track(ctx context.Context, number string) error {
	info, err := s.Orders.Track(ctx, s.App.Orders, number)
	if errors.Is(err, service.ErrTrackingNotFound) && s.Remote != nil {
		info, err = s.Remote.Track(ctx, number)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Order %s  %s  via %s\n", info.OrderNumber, info.Status, info.Carrier)
	fmt.Fprintf(s.out, "Tracking %s, estimated delivery %s\n", info.TrackingNumber, info.EstimatedDelivery.Format("Jan 2, 2006"))
	for _, e := range info.Timeline {
		fmt.Fprintf(s.out, "  %s  %-16s  %s\n", e.Date.Format("2006-01-02 15:04"), e.Status, e.Location)
	}
	return nil
}

const help = `Available commands:
  products [category] [sort] [page]
  product <id>
  login <email> [password]
  register <name> <email> [password]
  logout | whoami | profile <name> <email>
  cart [show] | cart add <id> [qty] [variant] | cart update <id> <qty> [variant]
  cart remove <id> [variant] | cart clear
  wishlist [show] | wishlist add|remove|toggle <id>
  address [list] | address add | address update|remove|default <no|id>
  featured
  checkout
  orders [status] [sort]
  track <number>
  help | exit`

func usage(form string) error {
	return fmt.Errorf("%w: %s", ErrUsage, form)
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func quantity(v string) (int, error) {
	if v == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("quantity %q: %w", v, state.ErrInvalidQuantity)
	}
	return n, nil
}

// Exec runs one command given as words.
func (s *Shell) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, help)
		return nil
	case "products":
		q := catalog.DefaultQuery()
		q.Category = arg(args, 1)
		if v := arg(args, 2); v != "" {
			q.Sort = v
		}
		if v := arg(args, 3); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return usage("products [category] [sort] [page]")
			}
			q.Page = n
		}
		return s.Products(q)
	case "product":
		if len(args) < 2 {
			return usage("product <id>")
		}
		return s.Product(args[1])
	case "login":
		if len(args) < 2 {
			return usage("login <email> [password]")
		}
		return s.Login(ctx, args[1], arg(args, 2))
	case "register":
		if len(args) < 3 {
			return usage("register <name> <email> [password]")
		}
		return s.Register(ctx, args[1], args[2], arg(args, 3))
	case "logout":
		return s.Logout()
	case "whoami":
		return s.WhoAmI()
	case "profile":
		if len(args) < 3 {
			return usage("profile <name> <email>")
		}
		return s.Profile(args[1], args[2])
	case "cart":
		return s.execCart(args[1:])
	case "wishlist":
		return s.execWishlist(args[1:])
	case "address", "addresses":
		return s.execAddress(args[1:])
	case "featured":
		return s.Featured()
	case "checkout":
		return s.PlaceOrder(ctx)
	case "orders":
		return s.OrderHistory(arg(args, 1), arg(args, 2))
	case "track":
		if len(args) < 2 {
			return usage("track <number>")
		}
		return s.Track(ctx, args[1])
	default:
		return fmt.Errorf("unknown command %q, type 'help' for a list of commands", args[0])
	}
}

func (s *Shell) execCart(args []string) error {
	switch arg(args, 0) {
	case "", "show":
		return s.CartShow()
	case "add":
		if len(args) < 2 {
			return usage("cart add <id> [qty] [variant]")
		}
		qty, err := quantity(arg(args, 2))
		if err != nil {
			return err
		}
		return s.CartAdd(args[1], arg(args, 3), qty)
	case "update":
		if len(args) < 3 {
			return usage("cart update <id> <qty> [variant]")
		}
		qty, err := quantity(args[2])
		if err != nil {
			return err
		}
		return s.CartUpdate(args[1], arg(args, 3), qty)
	case "remove":
		if len(args) < 2 {
			return usage("cart remove <id> [variant]")
		}
		return s.CartRemove(args[1], arg(args, 2))
	case "clear":
		return s.CartClear()
	default:
		return usage("cart [show|add|update|remove|clear]")
	}
}

func (s *Shell) execWishlist(args []string) error {
	op := arg(args, 0)
	if op == "" || op == "show" {
		return s.WishlistShow()
	}
	if len(args) < 2 {
		return usage("wishlist add|remove|toggle <id>")
	}
	switch op {
	case "add":
		return s.WishlistAdd(args[1])
	case "remove":
		return s.WishlistRemove(args[1])
	case "toggle":
		return s.WishlistToggle(args[1])
	default:
		return usage("wishlist [show|add|remove|toggle]")
	}
}

func (s *Shell) execAddress(args []string) error {
	switch op := arg(args, 0); op {
	case "", "list":
		return s.AddressList()
	case "add":
		return s.AddressAdd()
	case "update", "remove", "default":
		if len(args) < 2 {
			return usage("address " + op + " <no|id>")
		}
		switch op {
		case "update":
			return s.AddressUpdate(args[1])
		case "remove":
			return s.AddressRemove(args[1])
		}
		return s.AddressDefault(args[1])
	default:
		return usage("address [list|add|update|remove|default]")
	}
}

// Run reads commands line by line until exit or end of input. Command
// errors are printed and the loop goes on.
func (s *Shell) Run(ctx context.Context) error {
	for {
		fmt.Fprint(s.out, "storefront> ")
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}
		args := strings.Fields(s.in.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			fmt.Fprintln(s.out, "Bye")
			return nil
		}
		if err := s.Exec(ctx, args); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
