package state

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/atinyakov/storefront/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a Store whose writes can be made to fail.
type memStore struct {
	mu      sync.Mutex
	data    map[string]string
	failSet bool
	failGet bool
	sets    int
}

func newMemStore() *memStore { return &memStore{data: map[string]string{}} }

func (m *memStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", false, errors.New("storage disabled")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("quota exceeded")
	}
	m.sets++
	m.data[key] = value
	return nil
}

func (m *memStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("quota exceeded")
	}
	delete(m.data, key)
	return nil
}

func openApp(t *testing.T, s Store) *App {
	t.Helper()
	app, err := Open(s)
	require.NoError(t, err)
	return app
}

func TestCart_Scenario(t *testing.T) {
	app := openApp(t, newMemStore())
	item := models.CartItem{ID: "1", Name: "A", Price: 10, Image: "x"}

	require.NoError(t, app.Cart.AddItem(item, 2))
	assert.Equal(t, []models.CartLine{{CartItem: item, Quantity: 2}}, app.Cart.Items())
	assert.Equal(t, 20.0, app.Cart.Total())
	assert.Equal(t, 2, app.Cart.ItemCount())

	require.NoError(t, app.Cart.AddItem(item, 1))
	assert.Equal(t, 3, app.Cart.Items()[0].Quantity)
	assert.Equal(t, 30.0, app.Cart.Total())

	require.NoError(t, app.Cart.UpdateQuantity("1", "", 0))
	assert.Empty(t, app.Cart.Items())
	assert.Equal(t, 0.0, app.Cart.Total())
}

func TestCart_SameKeySumsQuantities(t *testing.T) {
	app := openApp(t, newMemStore())
	item := models.CartItem{ID: "7", Name: "Candle", Price: 24.99, Variant: "large"}
	want := 0
	for _, q := range []int{1, 4, 2, 9} {
		require.NoError(t, app.Cart.AddItem(item, q))
		want += q
	}
	items := app.Cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, want, items[0].Quantity)
}

func TestCart_VariantIsPartOfIdentity(t *testing.T) {
	app := openApp(t, newMemStore())
	base := models.CartItem{ID: "1", Name: "Soap", Price: 5}
	small := base
	small.Variant = "small"

	require.NoError(t, app.Cart.AddItem(base, 1))
	require.NoError(t, app.Cart.AddItem(small, 1))
	require.NoError(t, app.Cart.AddItem(base, 1))

	items := app.Cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, models.LineKey{ID: "1"}, items[0].Key())
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, models.LineKey{ID: "1", Variant: "small"}, items[1].Key())

	require.NoError(t, app.Cart.RemoveItem("1", "small"))
	assert.Len(t, app.Cart.Items(), 1)
}

func TestCart_InsertionOrderKept(t *testing.T) {
	app := openApp(t, newMemStore())
	for _, id := range []string{"3", "1", "2"} {
		require.NoError(t, app.Cart.AddItem(models.CartItem{ID: id, Price: 1}, 1))
	}
	require.NoError(t, app.Cart.AddItem(models.CartItem{ID: "1", Price: 1}, 5))

	var ids []string
	for _, l := range app.Cart.Items() {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"3", "1", "2"}, ids)
}

func TestCart_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		variant string
		qty     int
		want    []int
	}{
		{name: "set", id: "a", qty: 7, want: []int{7, 1}},
		{name: "zero removes", id: "a", qty: 0, want: []int{1}},
		{name: "negative removes", id: "b", qty: -3, want: []int{2}},
		{name: "missing is no-op", id: "zzz", qty: 4, want: []int{2, 1}},
		{name: "variant mismatch is no-op", id: "a", variant: "red", qty: 9, want: []int{2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := openApp(t, newMemStore())
			require.NoError(t, app.Cart.AddItem(models.CartItem{ID: "a", Price: 1}, 2))
			require.NoError(t, app.Cart.AddItem(models.CartItem{ID: "b", Price: 1}, 1))

			require.NoError(t, app.Cart.UpdateQuantity(tt.id, tt.variant, tt.qty))

			var got []int
			for _, l := range app.Cart.Items() {
				got = append(got, l.Quantity)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCart_RejectsNonPositiveQuantity(t *testing.T) {
	s := newMemStore()
	app := openApp(t, s)
	for _, q := range []int{0, -1} {
		err := app.Cart.AddItem(models.CartItem{ID: "1"}, q)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Empty(t, app.Cart.Items())
	assert.Zero(t, s.sets)
}

func TestCart_RejectsNegativePrice(t *testing.T) {
	s := newMemStore()
	app := openApp(t, s)

	err := app.Cart.AddItem(models.CartItem{ID: "1", Price: -10}, 1)
	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.Empty(t, app.Cart.Items())
	assert.Zero(t, app.Cart.Total())
	assert.Zero(t, s.sets)

	require.NoError(t, app.Cart.AddItem(models.CartItem{ID: "free", Price: 0}, 1))
	assert.Equal(t, 1, app.Cart.ItemCount())
}

func TestCart_OpenDropsNegativePrices(t *testing.T) {
	s := newMemStore()
	s.data[KeyCart] = `[{"id":"1","name":"A","price":-5,"quantity":2},{"id":"2","name":"B","price":3,"quantity":1}]`
	app := openApp(t, s)

	items := app.Cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].ID)
	assert.Equal(t, 3.0, app.Cart.Total())
}

func TestCart_AggregatesTrackItems(t *testing.T) {
	app := openApp(t, newMemStore())
	rng := rand.New(rand.NewSource(42))
	ids := []string{"1", "2", "3"}
	variants := []string{"", "s", "m"}

	check := func() {
		var total float64
		count := 0
		for _, l := range app.Cart.Items() {
			require.GreaterOrEqual(t, l.Quantity, 1)
			total += l.Price * float64(l.Quantity)
			count += l.Quantity
		}
		assert.InDelta(t, total, app.Cart.Total(), 1e-9)
		assert.Equal(t, count, app.Cart.ItemCount())
	}

	for i := 0; i < 200; i++ {
		id := ids[rng.Intn(len(ids))]
		v := variants[rng.Intn(len(variants))]
		switch rng.Intn(3) {
		case 0:
			require.NoError(t, app.Cart.AddItem(models.CartItem{ID: id, Variant: v, Price: float64(len(id)) * 3.5}, rng.Intn(4)+1))
		case 1:
			require.NoError(t, app.Cart.UpdateQuantity(id, v, rng.Intn(5)-1))
		case 2:
			require.NoError(t, app.Cart.RemoveItem(id, v))
		}
		check()
	}
}

func TestCart_ClearRemovesEntry(t *testing.T) {
	s := newMemStore()
	app := openApp(t, s)
	require.NoError(t, app.Cart.AddItem(models.CartItem{ID: "1", Price: 2}, 1))
	_, ok, _ := s.Get(KeyCart)
	require.True(t, ok)

	require.NoError(t, app.Cart.Clear())
	_, ok, _ = s.Get(KeyCart)
	assert.False(t, ok)
	assert.Empty(t, app.Cart.Items())
}

func TestCart_Replace(t *testing.T) {
	app := openApp(t, newMemStore())
	require.NoError(t, app.Cart.AddItem(models.CartItem{ID: "old", Price: 1}, 1))

	lines := []models.CartLine{
		{CartItem: models.CartItem{ID: "1", Price: 2}, Quantity: 2},
		{CartItem: models.CartItem{ID: "1", Price: 2}, Quantity: 3},
		{CartItem: models.CartItem{ID: "2", Price: 4}, Quantity: 0},
		{CartItem: models.CartItem{ID: "3", Price: -4}, Quantity: 1},
	}
	require.NoError(t, app.Cart.Replace(lines))

	items := app.Cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, 10.0, app.Cart.Total())
}

func TestCart_PersistFailureKeepsMemoryState(t *testing.T) {
	s := newMemStore()
	app := openApp(t, s)
	s.failSet = true

	err := app.Cart.AddItem(models.CartItem{ID: "1", Price: 3}, 2)
	require.ErrorIs(t, err, ErrPersist)
	assert.Equal(t, 2, app.Cart.ItemCount())

	s.failSet = false
	require.NoError(t, app.Cart.AddItem(models.CartItem{ID: "1", Price: 3}, 1))

	reopened := openApp(t, s)
	assert.Equal(t, 3, reopened.Cart.ItemCount())
}

func TestWishlist_AddIsIdempotent(t *testing.T) {
	app := openApp(t, newMemStore())
	e := models.WishlistEntry{ID: "4", Name: "Panel", Price: 149.99, Category: "Gypsum"}
	require.NoError(t, app.Wishlist.AddItem(e))
	require.NoError(t, app.Wishlist.AddItem(e))
	assert.Equal(t, 1, app.Wishlist.Count())
	assert.True(t, app.Wishlist.Contains("4"))
}

func TestWishlist_ToggleIsItsOwnInverse(t *testing.T) {
	for _, startSaved := range []bool{false, true} {
		app := openApp(t, newMemStore())
		e := models.WishlistEntry{ID: "2", Name: "Soap"}
		if startSaved {
			require.NoError(t, app.Wishlist.AddItem(e))
		}

		saved, err := app.Wishlist.Toggle(e)
		require.NoError(t, err)
		assert.Equal(t, !startSaved, saved)

		saved, err = app.Wishlist.Toggle(e)
		require.NoError(t, err)
		assert.Equal(t, startSaved, saved)
		assert.Equal(t, startSaved, app.Wishlist.Contains("2"))
	}
}

func TestWishlist_RemoveMissingIsNoop(t *testing.T) {
	s := newMemStore()
	app := openApp(t, s)
	require.NoError(t, app.Wishlist.RemoveItem("nope"))
	assert.Zero(t, s.sets)
}

func TestSession_RegisterAndLogout(t *testing.T) {
	s := newMemStore()
	app := openApp(t, s)

	u, err := app.Session.Register("Ann", "ann@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann@x.com", u.Email)
	assert.NotEmpty(t, u.ID)
	assert.True(t, app.Session.IsLoggedIn())

	require.NoError(t, app.Session.Logout())
	assert.False(t, app.Session.IsLoggedIn())
	_, ok, _ := s.Get(KeyUser)
	assert.False(t, ok)
}

func TestSession_RegisterIDsAreDistinct(t *testing.T) {
	app := openApp(t, newMemStore())
	a, err := app.Session.Register("A", "a@x.com", "")
	require.NoError(t, err)
	b, err := app.Session.Register("B", "b@x.com", "")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSession_LoginDerivesUserFromEmail(t *testing.T) {
	app := openApp(t, newMemStore())
	u, err := app.Session.Login("jane.doe@example.com", "whatever")
	require.NoError(t, err)
	assert.Equal(t, models.User{ID: "1", Name: "jane.doe", Email: "jane.doe@example.com"}, u)

	// re-entrant login replaces the user
	u, err = app.Session.Login("bob@example.com", "")
	require.NoError(t, err)
	got, ok := app.Session.User()
	require.True(t, ok)
	assert.Equal(t, u, got)

	_, err = app.Session.Login("  ", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSession_UpdateProfile(t *testing.T) {
	app := openApp(t, newMemStore())
	_, err := app.Session.UpdateProfile("X", "x@y.z")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = app.Session.Register("Ann", "ann@x.com", "pw")
	require.NoError(t, err)
	u, err := app.Session.UpdateProfile("Annie", "")
	require.NoError(t, err)
	assert.Equal(t, "Annie", u.Name)
	assert.Equal(t, "ann@x.com", u.Email)
}

func TestApp_RoundTrip(t *testing.T) {
	s := newMemStore()
	app := openApp(t, s)

	_, err := app.Session.Register("Ann", "ann@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, app.Cart.AddItem(models.CartItem{ID: "1", Name: "A", Price: 10, Image: "x"}, 2))
	require.NoError(t, app.Cart.AddItem(models.CartItem{ID: "1", Name: "A", Price: 10, Image: "x", Variant: "blue"}, 1))
	require.NoError(t, app.Wishlist.AddItem(models.WishlistEntry{ID: "9", Name: "Citrus", Price: 45.99, Category: "Candles"}))
	_, err = app.Addresses.Add(models.Address{Type: "Home", FirstName: "Ann", City: "NYC"})
	require.NoError(t, err)

	reopened := openApp(t, s)
	wantUser, _ := app.Session.User()
	gotUser, ok := reopened.Session.User()
	require.True(t, ok)
	if diff := cmp.Diff(wantUser, gotUser); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(app.Cart.Items(), reopened.Cart.Items()); diff != "" {
		t.Errorf("cart mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(app.Wishlist.Items(), reopened.Wishlist.Items()); diff != "" {
		t.Errorf("wishlist mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(app.Addresses.Items(), reopened.Addresses.Items()); diff != "" {
		t.Errorf("addresses mismatch (-want +got):\n%s", diff)
	}
}

func TestApp_UndecodableEntryTreatedAsAbsent(t *testing.T) {
	s := newMemStore()
	s.data[KeyCart] = `{"not":"a list"}`
	s.data[KeyUser] = `garbage`
	app := openApp(t, s)
	assert.Empty(t, app.Cart.Items())
	assert.False(t, app.Session.IsLoggedIn())
}

func TestApp_OpenFailsWhenStoreUnreadable(t *testing.T) {
	s := newMemStore()
	s.failGet = true
	_, err := Open(s)
	assert.Error(t, err)
}

func TestApp_Reset(t *testing.T) {
	s := newMemStore()
	app := openApp(t, s)
	_, err := app.Session.Login("a@b.c", "")
	require.NoError(t, err)
	require.NoError(t, app.Cart.AddItem(models.CartItem{ID: "1"}, 1))
	require.NoError(t, app.Wishlist.AddItem(models.WishlistEntry{ID: "1"}))

	require.NoError(t, app.Reset())
	assert.Empty(t, s.data)

	s.failSet = true
	err = app.Reset()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)
}

func TestAddresses_SingleDefault(t *testing.T) {
	app := openApp(t, newMemStore())
	home, err := app.Addresses.Add(models.Address{Type: "Home"})
	require.NoError(t, err)
	assert.True(t, home.IsDefault)

	work, err := app.Addresses.Add(models.Address{Type: "Work"})
	require.NoError(t, err)
	assert.False(t, work.IsDefault)

	ok, err := app.Addresses.SetDefault(work.ID)
	require.NoError(t, err)
	require.True(t, ok)
	def, _ := app.Addresses.Default()
	assert.Equal(t, work.ID, def.ID)

	countDefaults := func() int {
		n := 0
		for _, a := range app.Addresses.Items() {
			if a.IsDefault {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, countDefaults())

	require.NoError(t, app.Addresses.Remove(work.ID))
	def, _ = app.Addresses.Default()
	assert.Equal(t, home.ID, def.ID)
	assert.Equal(t, 1, countDefaults())

	work.IsDefault = false
	found, err := app.Addresses.Update(work)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAddresses_UpdateKeepsDefault(t *testing.T) {
	app := openApp(t, newMemStore())
	home, err := app.Addresses.Add(models.Address{Type: "Home", City: "A"})
	require.NoError(t, err)
	home.City = "B"
	home.IsDefault = false
	found, err := app.Addresses.Update(home)
	require.NoError(t, err)
	require.True(t, found)

	got, ok := app.Addresses.Get(home.ID)
	require.True(t, ok)
	assert.Equal(t, "B", got.City)
	assert.True(t, got.IsDefault)
}

func TestOrders_RecordAndFind(t *testing.T) {
	app := openApp(t, newMemStore())
	require.NoError(t, app.Orders.Record(models.Order{OrderNumber: "HD1A2B", TrackingNumber: "TRK000000001"}))

	o, ok := app.Orders.Find("hd1a2b")
	require.True(t, ok)
	assert.Equal(t, "HD1A2B", o.OrderNumber)

	_, ok = app.Orders.Find("TRK000000001")
	assert.True(t, ok)
	_, ok = app.Orders.Find("HD999")
	assert.False(t, ok)
}
