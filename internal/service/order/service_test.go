package order

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/events"
	"ecommerce-backend/internal/repository/memory"
	cartsvc "ecommerce-backend/internal/service/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store *memory.Store
	svc   *Service
	carts *cartsvc.Service
	pub   *recordingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	pub := &recordingPublisher{}
	return fixture{
		store: store,
		svc:   New(store.Orders(), store.Carts(), store.Users(), store.Payments(), events.NewNotifier(pub, nil), nil),
		carts: cartsvc.New(store.Carts(), store.Products(), store.Users(), nil),
		pub:   pub,
	}
}

func (f fixture) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.store.Users().Create(context.Background(), domain.User{Email: email, PasswordHash: "x", IsActive: true})
	require.NoError(t, err)
	return u
}

func (f fixture) product(t *testing.T, name string, priceCents int64, stock int) *domain.Product {
	t.Helper()
	p, err := f.store.Products().Create(context.Background(), domain.Product{
		Name: name, PriceCents: priceCents, StockQuantity: stock, Status: domain.ProductActive,
	})
	require.NoError(t, err)
	return p
}

func (f fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.StockQuantity
}

func TestCreateConvertsCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	p := f.product(t, "Lamp", 1000, 5)

	_, err := f.carts.AddItem(ctx, u.ID, p.ID, 2)
	require.NoError(t, err)

	o, created, err := f.svc.Create(ctx, CreateInput{UserID: u.ID, ShippingAddress: "1 Main St", PaymentMethod: "PAYPAL"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.EqualValues(t, 2000, o.TotalAmountCents)
	assert.Regexp(t, `^ORD\d+[0-9A-Z]{5}$`, o.OrderNumber)

	assert.Equal(t, 3, f.stock(t, p.ID))

	items, err := f.carts.Items(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, items.Items)
	assert.Zero(t, items.Cart.TotalPriceCents)
	assert.Zero(t, items.Cart.TotalItems)

	detail, err := f.svc.Items(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "Lamp", detail.Items[0].ProductName)
	assert.EqualValues(t, 1000, detail.Items[0].UnitPriceCents)
	assert.EqualValues(t, 2000, detail.Items[0].TotalPriceCents)

	assert.Equal(t, []events.Type{events.OrderCreated}, f.pub.types())
}

func TestCreateIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	plenty := f.product(t, "Plenty", 500, 10)
	scarce := f.product(t, "Scarce", 700, 3)

	_, err := f.carts.AddItem(ctx, u.ID, plenty.ID, 4)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, u.ID, scarce.ID, 3)
	require.NoError(t, err)

	// Someone else bought the last unit after it went into the cart.
	_, err = f.store.Products().DecrementStock(ctx, scarce.ID, 1)
	require.NoError(t, err)

	_, _, err = f.svc.Create(ctx, CreateInput{UserID: u.ID, ShippingAddress: "1 Main St"})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "Insufficient stock for Scarce", err.Error())

	assert.Equal(t, 10, f.stock(t, plenty.ID))
	assert.Equal(t, 2, f.stock(t, scarce.ID))
	items, err := f.carts.Items(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, items.Items, 2)

	list, err := f.svc.List(ctx, ListInput{})
	require.NoError(t, err)
	assert.Empty(t, list.Orders)
	assert.Empty(t, f.pub.types())
}

func TestCreateRejectsInactiveProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	p := f.product(t, "Retired", 500, 10)
	_, err := f.carts.AddItem(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)

	p.Status = domain.ProductInactive
	_, err = f.store.Products().Update(ctx, *p)
	require.NoError(t, err)

	_, _, err = f.svc.Create(ctx, CreateInput{UserID: u.ID, ShippingAddress: "1 Main St"})
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, "Product Retired is no longer available", err.Error())
	assert.Equal(t, 10, f.stock(t, p.ID))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")

	tests := []struct {
		name string
		in   CreateInput
		kind error
		msg  string
	}{
		{"missing address", CreateInput{UserID: u.ID, ShippingAddress: "  "}, domain.ErrInvalidArgument, "Shipping address is required"},
		{"bad method", CreateInput{UserID: u.ID, ShippingAddress: "x", PaymentMethod: "BARTER"}, domain.ErrInvalidArgument, "Invalid payment method"},
		{"unknown user", CreateInput{UserID: "nobody", ShippingAddress: "x"}, domain.ErrNotFound, "User not found"},
		{"no cart", CreateInput{UserID: u.ID, ShippingAddress: "x"}, domain.ErrInvalidState, "Cart is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Create(ctx, tt.in)
			require.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.msg, err.Error())
		})
	}

	_, err := f.carts.Get(ctx, u.ID)
	require.NoError(t, err)
	_, _, err = f.svc.Create(ctx, CreateInput{UserID: u.ID, ShippingAddress: "x"})
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, "No items in cart", err.Error())
}

func TestCreateIdempotencyKeyReplays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	p := f.product(t, "Lamp", 1000, 5)
	_, err := f.carts.AddItem(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)

	in := CreateInput{UserID: u.ID, ShippingAddress: "1 Main St", IdempotencyKey: "checkout-1"}
	first, created, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	require.True(t, created)

	// The cart is empty now, but the retry still gets the original order back.
	again, created, err := f.svc.Create(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 4, f.stock(t, p.ID))
}

func TestCreateRetriesOrderNumberCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	numbers := []string{"ORD1", "ORD1", "ORD2"}
	f.svc.newNumber = func() string {
		n := numbers[0]
		numbers = numbers[1:]
		return n
	}

	p := f.product(t, "Lamp", 1000, 5)
	for _, email := range []string{"a@example.com", "b@example.com"} {
		u := f.user(t, email)
		_, err := f.carts.AddItem(ctx, u.ID, p.ID, 1)
		require.NoError(t, err)
		_, _, err = f.svc.Create(ctx, CreateInput{UserID: u.ID, ShippingAddress: "x"})
		require.NoError(t, err)
	}
	assert.Empty(t, numbers)
	assert.Equal(t, 3, f.stock(t, p.ID))
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const stock, buyers = 5, 20
	p := f.product(t, "Limited", 2500, stock)

	users := make([]*domain.User, buyers)
	for i := range users {
		users[i] = f.user(t, fmt.Sprintf("buyer%d@example.com", i))
		_, err := f.carts.AddItem(ctx, users[i].ID, p.ID, 1)
		require.NoError(t, err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for _, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.svc.Create(ctx, CreateInput{UserID: u.ID, ShippingAddress: "x"})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, stock, succeeded)
	assert.Zero(t, f.stock(t, p.ID))
}

func TestCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	p := f.product(t, "Lamp", 1000, 5)
	_, err := f.carts.AddItem(ctx, u.ID, p.ID, 2)
	require.NoError(t, err)
	o, _, err := f.svc.Create(ctx, CreateInput{UserID: u.ID, ShippingAddress: "x"})
	require.NoError(t, err)
	require.Equal(t, 3, f.stock(t, p.ID))

	cancelled, err := f.svc.Cancel(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, cancelled.Status)
	assert.Equal(t, 5, f.stock(t, p.ID))

	_, err = f.svc.Cancel(ctx, o.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, "Order is already cancelled", err.Error())
	assert.Equal(t, 5, f.stock(t, p.ID))

	assert.Equal(t, []events.Type{events.OrderCreated, events.OrderCancelled}, f.pub.types())
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	p := f.product(t, "Lamp", 1000, 5)

	place := func() *domain.Order {
		_, err := f.carts.AddItem(ctx, u.ID, p.ID, 1)
		require.NoError(t, err)
		o, _, err := f.svc.Create(ctx, CreateInput{UserID: u.ID, ShippingAddress: "x"})
		require.NoError(t, err)
		return o
	}

	t.Run("invalid status", func(t *testing.T) {
		o := place()
		for _, s := range []string{"DELIVERED", "CONFIRMED", ""} {
			_, err := f.svc.UpdateStatus(ctx, o.ID, s)
			require.ErrorIs(t, err, domain.ErrInvalidArgument)
			assert.Equal(t, "Invalid order status", err.Error())
		}
	})

	t.Run("shipped is terminal", func(t *testing.T) {
		o := place()
		_, err := f.svc.UpdateStatus(ctx, o.ID, "PROCESSING")
		require.NoError(t, err)
		shipped, err := f.svc.UpdateStatus(ctx, o.ID, "SHIPPED")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderShipped, shipped.Status)

		_, err = f.svc.UpdateStatus(ctx, o.ID, "PENDING")
		require.ErrorIs(t, err, domain.ErrInvalidState)
		assert.Equal(t, "Cannot update status of shipped or cancelled order", err.Error())

		_, err = f.svc.Cancel(ctx, o.ID)
		require.ErrorIs(t, err, domain.ErrInvalidState)
		assert.Equal(t, "Cannot cancel order that has been shipped", err.Error())
	})

	t.Run("cancelled via status restores stock", func(t *testing.T) {
		before := f.stock(t, p.ID)
		o := place()
		require.Equal(t, before-1, f.stock(t, p.ID))

		cancelled, err := f.svc.UpdateStatus(ctx, o.ID, "CANCELLED")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderCancelled, cancelled.Status)
		assert.Equal(t, before, f.stock(t, p.ID))

		_, err = f.svc.UpdateStatus(ctx, o.ID, "CANCELLED")
		require.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, "missing", "SHIPPED")
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, "Order not found", err.Error())
	})
}

func TestListEnrichesAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	lamp := f.product(t, "Lamp", 1000, 50)
	mug := f.product(t, "Mug", 300, 50)

	for _, u := range []*domain.User{a, a, b} {
		_, err := f.carts.AddItem(ctx, u.ID, lamp.ID, 1)
		require.NoError(t, err)
		_, err = f.carts.AddItem(ctx, u.ID, mug.ID, 2)
		require.NoError(t, err)
		_, _, err = f.svc.Create(ctx, CreateInput{UserID: u.ID, ShippingAddress: "x"})
		require.NoError(t, err)
	}

	all, err := f.svc.List(ctx, ListInput{Page: domain.PageRequest{Page: 1, Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, domain.Pagination{Current: 1, Total: 2, Count: 2, TotalItems: 3}, all.Pagination)
	require.Len(t, all.Orders, 2)
	assert.Equal(t, "b@example.com", all.Orders[0].Buyer)
	assert.Equal(t, 2, all.Orders[0].ItemCount)
	assert.True(t, all.Orders[0].CreatedAt.After(all.Orders[1].CreatedAt))

	asc, err := f.svc.List(ctx, ListInput{SortBy: "createdAt", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, asc.Orders, 3)
	assert.Equal(t, "a@example.com", asc.Orders[0].Buyer)

	mine, err := f.svc.ListByUser(ctx, a.ID, ListInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, mine.Pagination.TotalItems)
	for _, o := range mine.Orders {
		assert.Equal(t, a.ID, o.UserID)
	}

	pending, err := f.svc.List(ctx, ListInput{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, pending.Orders, 3)

	_, err = f.svc.List(ctx, ListInput{Status: "LOST"})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.svc.ListByUser(ctx, "nobody", ListInput{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetIncludesPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "a@example.com")
	p := f.product(t, "Lamp", 1000, 5)
	_, err := f.carts.AddItem(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)
	o, _, err := f.svc.Create(ctx, CreateInput{UserID: u.ID, ShippingAddress: "x"})
	require.NoError(t, err)

	d, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Nil(t, d.Payment)

	pay, err := f.store.Payments().Create(ctx, domain.Payment{
		OrderID: o.ID, PaymentMethod: domain.MethodPayPal, AmountCents: 1000, Currency: "USD",
	})
	require.NoError(t, err)

	d, err = f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, d.Payment)
	assert.Equal(t, pay.ID, d.Payment.ID)

	_, err = f.svc.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
