package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/storefront/internal/catalog"
	"github.com/atinyakov/storefront/internal/client/storage"
	"github.com/atinyakov/storefront/internal/models"
	"github.com/atinyakov/storefront/internal/service"
	"github.com/atinyakov/storefront/internal/state"
)

type fakeRemote struct {
	pushed []models.CartLine
	placed []models.CheckoutRequest
	track  map[string]models.TrackingInfo
	err    error
}

func (f *fakeRemote) PushCart(_ context.Context, lines []models.CartLine) error {
	f.pushed = lines
	return f.err
}

func (f *fakeRemote) Checkout(_ context.Context, req models.CheckoutRequest) (models.Order, error) {
	f.placed = append(f.placed, req)
	return models.Order{ID: "1", OrderNumber: "HD424242", TrackingNumber: "TRK000000001", Status: models.StatusProcessing, Total: 50}, nil
}

func (f *fakeRemote) Track(_ context.Context, number string) (models.TrackingInfo, error) {
	if info, ok := f.track[number]; ok {
		return info, nil
	}
	return models.TrackingInfo{}, errors.New("404 tracking_not_found")
}

// failingStore accepts reads and rejects every write.
type failingStore struct {
	*storage.MemoryStore
}

func (failingStore) Set(string, string) error { return errors.New("read-only") }

func newShell(t *testing.T, store state.Store, remote Remote, input string) (*Shell, *bytes.Buffer) {
	t.Helper()
	app, err := state.Open(store)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return New(app, catalog.Default(), remote, strings.NewReader(input), out), out
}

func TestShell_Cart(t *testing.T) {
	sh, out := newShell(t, storage.NewMemoryStore(), nil, "")
	ctx := context.Background()

	require.NoError(t, sh.Exec(ctx, []string{"cart", "add", "1", "2"}))
	assert.Contains(t, out.String(), "Lavender Dreams Scented Candle")
	assert.Contains(t, out.String(), "2 items, total $49.98")

	require.NoError(t, sh.Exec(ctx, []string{"cart", "add", "2", "1", "Lavender"}))
	require.NoError(t, sh.Exec(ctx, []string{"cart", "update", "1", "5"}))
	assert.Equal(t, 6, sh.App.Cart.ItemCount())

	require.NoError(t, sh.Exec(ctx, []string{"cart", "remove", "2", "Lavender"}))
	assert.Equal(t, 5, sh.App.Cart.ItemCount())

	err := sh.Exec(ctx, []string{"cart", "add", "1", "two"})
	assert.ErrorIs(t, err, state.ErrInvalidQuantity)
	err = sh.Exec(ctx, []string{"cart", "add", "1", "0"})
	assert.ErrorIs(t, err, state.ErrInvalidQuantity)
	err = sh.Exec(ctx, []string{"cart", "add", "999"})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	err = sh.Exec(ctx, []string{"cart", "update", "1"})
	assert.ErrorIs(t, err, ErrUsage)

	out.Reset()
	require.NoError(t, sh.Exec(ctx, []string{"cart", "clear"}))
	require.NoError(t, sh.Exec(ctx, []string{"cart"}))
	assert.Contains(t, out.String(), "Your cart is empty")
}

func TestShell_Wishlist(t *testing.T) {
	sh, out := newShell(t, storage.NewMemoryStore(), nil, "")
	ctx := context.Background()

	require.NoError(t, sh.Exec(ctx, []string{"wishlist", "toggle", "3"}))
	assert.Contains(t, out.String(), "Added Abstract Sunset Canvas Art")
	assert.True(t, sh.App.Wishlist.Contains("3"))

	require.NoError(t, sh.Exec(ctx, []string{"wishlist", "toggle", "3"}))
	assert.False(t, sh.App.Wishlist.Contains("3"))

	require.NoError(t, sh.Exec(ctx, []string{"wishlist", "add", "7"}))
	require.NoError(t, sh.Exec(ctx, []string{"wishlist", "add", "7"}))
	assert.Equal(t, 1, sh.App.Wishlist.Count())

	require.NoError(t, sh.Exec(ctx, []string{"wishlist", "remove", "7"}))
	assert.Equal(t, 0, sh.App.Wishlist.Count())
	assert.ErrorIs(t, sh.Exec(ctx, []string{"wishlist", "add"}), ErrUsage)
}

func TestShell_Account(t *testing.T) {
	sh, out := newShell(t, storage.NewMemoryStore(), nil, "")
	ctx := context.Background()

	require.NoError(t, sh.Exec(ctx, []string{"whoami"}))
	assert.Contains(t, out.String(), "not signed in")

	assert.ErrorIs(t, sh.Exec(ctx, []string{"profile", "A", "a@b.c"}), state.ErrNotLoggedIn)

	require.NoError(t, sh.Exec(ctx, []string{"login", "jane@example.com"}))
	assert.Contains(t, out.String(), "Welcome back, jane")

	require.NoError(t, sh.Exec(ctx, []string{"profile", "Jane", "jane@example.org"}))
	u, ok := sh.App.Session.User()
	require.True(t, ok)
	assert.Equal(t, "jane@example.org", u.Email)

	require.NoError(t, sh.Exec(ctx, []string{"logout"}))
	assert.False(t, sh.App.Session.IsLoggedIn())

	assert.ErrorIs(t, sh.Exec(ctx, []string{"register", "Ann"}), ErrUsage)
	require.NoError(t, sh.Exec(ctx, []string{"register", "<b>Ann</b>", "ann@example.com"}))
	u, _ = sh.App.Session.User()
	assert.Equal(t, "Ann", u.Name)
}

func TestShell_Catalog(t *testing.T) {
	sh, out := newShell(t, storage.NewMemoryStore(), nil, "")
	ctx := context.Background()

	require.NoError(t, sh.Exec(ctx, []string{"products", "soaps", "price-low"}))
	assert.Contains(t, out.String(), "page 1 of 1, 4 products")
	assert.Less(t, strings.Index(out.String(), "Charcoal Detox"), strings.Index(out.String(), "Rose & Honey"))

	out.Reset()
	require.NoError(t, sh.Exec(ctx, []string{"product", "4"}))
	assert.Contains(t, out.String(), "(was $199.99)")
	assert.Contains(t, out.String(), "You may also like:")

	assert.ErrorIs(t, sh.Exec(ctx, []string{"product", "0"}), catalog.ErrNotFound)
	assert.ErrorIs(t, sh.Exec(ctx, []string{"products", "all", "featured", "x"}), ErrUsage)

	out.Reset()
	require.NoError(t, sh.Exec(ctx, []string{"products", "all", "featured", "1537228672809129302"}))
	assert.Contains(t, out.String(), "page 1537228672809129302 of 2, 16 products")

	out.Reset()
	require.NoError(t, sh.Exec(ctx, []string{"featured"}))
	assert.Contains(t, out.String(), "Lavender Dreams Scented Candle")
	assert.Equal(t, 9, strings.Count(out.String(), "\n"))
}

func TestShell_Addresses(t *testing.T) {
	// type, first, last, company, address, apartment, city, state, zip, country, phone
	home := "\nJane\nDoe\n\n1 Elm Street\n\nBoston\nMA\n02101\n\n6175550100\n"
	work := "Work\nJane\nDoe\nAcme\n9 Oak Avenue\nSuite 4\nChicago\nIL\n60601\n\n3125550100\n" + "n\n"
	edit := "\n\n\n\n2 Elm Street\n\n\n\n\n\n\n"
	sh, out := newShell(t, storage.NewMemoryStore(), nil, home+work+edit)
	ctx := context.Background()

	require.NoError(t, sh.Exec(ctx, []string{"address"}))
	assert.Contains(t, out.String(), "No saved addresses")

	require.NoError(t, sh.Exec(ctx, []string{"address", "add"}))
	require.NoError(t, sh.Exec(ctx, []string{"address", "add"}))
	items := sh.App.Addresses.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Home", items[0].Type)
	assert.Equal(t, "US", items[0].Country)
	assert.True(t, items[0].IsDefault)
	assert.False(t, items[1].IsDefault)

	require.NoError(t, sh.Exec(ctx, []string{"address", "default", "2"}))
	def, ok := sh.App.Addresses.Default()
	require.True(t, ok)
	assert.Equal(t, "Chicago", def.City)

	require.NoError(t, sh.Exec(ctx, []string{"address", "update", items[0].ID}))
	first, ok := sh.App.Addresses.Get(items[0].ID)
	require.True(t, ok)
	assert.Equal(t, "2 Elm Street", first.Address1)
	assert.Equal(t, "Boston", first.City)
	assert.False(t, first.IsDefault)

	// input is used up, so every checkout answer is its default
	req := sh.PromptCheckout()
	assert.Equal(t, "9 Oak Avenue Suite 4", req.Shipping.Address)
	assert.Equal(t, "60601", req.Shipping.ZipCode)
	assert.Equal(t, "3125550100", req.Shipping.Phone)

	require.NoError(t, sh.Exec(ctx, []string{"address", "remove", "2"}))
	def, ok = sh.App.Addresses.Default()
	require.True(t, ok)
	assert.Equal(t, items[0].ID, def.ID)

	assert.ErrorIs(t, sh.Exec(ctx, []string{"address", "remove", "7"}), ErrAddressNotFound)
	assert.ErrorIs(t, sh.Exec(ctx, []string{"address", "default"}), ErrUsage)
	assert.ErrorIs(t, sh.Exec(ctx, []string{"address", "move"}), ErrUsage)
}

// answers for the checkout prompts after a "Jane Doe" registration.
const paypalAnswers = "\n\n\n5551234567\n123 Main Street\nNew York\nNY\n10001\n\nexpress\npaypal\nsave10\n"

func TestShell_CheckoutLocal(t *testing.T) {
	sh, out := newShell(t, storage.NewMemoryStore(), nil, paypalAnswers+"y\n")
	ctx := context.Background()
	require.NoError(t, sh.Register(ctx, "Jane Doe", "jane@example.com", ""))
	require.NoError(t, sh.CartAdd("3", "", 1))

	require.NoError(t, sh.Exec(ctx, []string{"checkout"}))
	assert.Contains(t, out.String(), "First name [Jane]")
	assert.Contains(t, out.String(), "Discount  -$9.00")
	assert.Contains(t, out.String(), "Tracking number: TRK")

	orders := sh.App.Orders.Items()
	require.Len(t, orders, 1)
	assert.Equal(t, service.ShippingExpress, orders[0].ShippingMethod)
	assert.Equal(t, "Jane Doe", orders[0].ShippingAddress.Name)
	assert.Empty(t, sh.App.Cart.Items())

	out.Reset()
	require.NoError(t, sh.Exec(ctx, []string{"track", orders[0].OrderNumber}))
	assert.Contains(t, out.String(), "Order Placed")
}

func TestShell_CheckoutRemote(t *testing.T) {
	remote := &fakeRemote{}
	sh, out := newShell(t, storage.NewMemoryStore(), remote, paypalAnswers+"yes\n")
	ctx := context.Background()
	require.NoError(t, sh.Register(ctx, "Jane Doe", "jane@example.com", ""))
	require.NoError(t, sh.CartAdd("1", "", 2))

	require.NoError(t, sh.PlaceOrder(ctx))
	require.Len(t, remote.pushed, 1)
	assert.Equal(t, 2, remote.pushed[0].Quantity)
	require.Len(t, remote.placed, 1)
	assert.Equal(t, "10001", remote.placed[0].Shipping.ZipCode)

	assert.Contains(t, out.String(), "Order HD424242 placed")
	_, ok := sh.App.Orders.Find("HD424242")
	assert.True(t, ok)
	assert.Empty(t, sh.App.Cart.Items())
}

func TestShell_CheckoutRejected(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		sh, _ := newShell(t, storage.NewMemoryStore(), nil, "")
		assert.ErrorIs(t, sh.PlaceOrder(ctx), service.ErrEmptyCart)
	})

	t.Run("declined", func(t *testing.T) {
		sh, out := newShell(t, storage.NewMemoryStore(), nil, paypalAnswers+"n\n")
		require.NoError(t, sh.Register(ctx, "Jane Doe", "jane@example.com", ""))
		require.NoError(t, sh.CartAdd("1", "", 1))
		require.NoError(t, sh.PlaceOrder(ctx))
		assert.Contains(t, out.String(), "Checkout cancelled")
		assert.Len(t, sh.App.Cart.Items(), 1)
		assert.Empty(t, sh.App.Orders.Items())
	})

	t.Run("invalid form", func(t *testing.T) {
		// card payment with a short card number
		input := "Jane\nDoe\njane@example.com\n5551234567\n123 Main Street\nNew York\nNY\n10001\nUS\n\ncard\n4111\n12/30\n123\nJane Doe\n\n"
		sh, _ := newShell(t, storage.NewMemoryStore(), nil, input)
		require.NoError(t, sh.CartAdd("1", "", 1))
		err := sh.PlaceOrder(ctx)
		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "cardNumber")
		assert.Len(t, verr.Fields, 1)
		assert.Len(t, sh.App.Cart.Items(), 1)
	})
}

func TestShell_OrdersAndTracking(t *testing.T) {
	remote := &fakeRemote{track: map[string]models.TrackingInfo{
		"TRK555": {OrderNumber: "HD555", TrackingNumber: "TRK555", Status: "Delivered", Carrier: "UPS"},
	}}
	sh, out := newShell(t, storage.NewMemoryStore(), remote, "")
	ctx := context.Background()

	require.NoError(t, sh.Exec(ctx, []string{"orders", "delivered"}))
	assert.Contains(t, out.String(), "HD002")
	assert.NotContains(t, out.String(), "HD001")

	out.Reset()
	require.NoError(t, sh.Exec(ctx, []string{"track", "HD001"}))
	assert.Contains(t, out.String(), "Out for Delivery")

	out.Reset()
	require.NoError(t, sh.Exec(ctx, []string{"track", "TRK555"}))
	assert.Contains(t, out.String(), "via UPS")

	assert.Error(t, sh.Exec(ctx, []string{"track", "nothing"}))

	sh.Remote = nil
	assert.ErrorIs(t, sh.Exec(ctx, []string{"track", "TRK555"}), service.ErrTrackingNotFound)
}

func TestShell_PersistFailureWarns(t *testing.T) {
	sh, out := newShell(t, failingStore{storage.NewMemoryStore()}, nil, "")
	require.NoError(t, sh.Exec(context.Background(), []string{"cart", "add", "1"}))
	assert.Contains(t, out.String(), "warning:")
	assert.Equal(t, 1, sh.App.Cart.ItemCount())
}

func TestShell_Run(t *testing.T) {
	sh, out := newShell(t, storage.NewMemoryStore(), nil, "help\n\nbogus\ncart add 1\nexit\ncart add 1\n")
	require.NoError(t, sh.Run(context.Background()))

	assert.Contains(t, out.String(), "Available commands")
	assert.Contains(t, out.String(), `error: unknown command "bogus"`)
	assert.Contains(t, out.String(), "Bye")
	// nothing after exit runs
	assert.Equal(t, 1, sh.App.Cart.ItemCount())
}

func TestShell_RunEndOfInput(t *testing.T) {
	sh, out := newShell(t, storage.NewMemoryStore(), nil, "whoami")
	require.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), "not signed in")
}
