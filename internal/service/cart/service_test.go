package cart

import (
	"context"
	"testing"

	"ecommerce-backend/internal/domain"
	cartrepo "ecommerce-backend/internal/repository/cart"
	"ecommerce-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *memory.Store
	svc   *Service
	user  *domain.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	u, err := store.Users().Create(context.Background(), domain.User{Email: "buyer@example.com", PasswordHash: "x", IsActive: true})
	require.NoError(t, err)
	return fixture{
		store: store,
		svc:   New(store.Carts(), store.Products(), store.Users(), nil),
		user:  u,
	}
}

func (f fixture) product(t *testing.T, name string, priceCents int64, stock int, status domain.ProductStatus) *domain.Product {
	t.Helper()
	p, err := f.store.Products().Create(context.Background(), domain.Product{
		Name: name, PriceCents: priceCents, StockQuantity: stock, Status: status,
	})
	require.NoError(t, err)
	return p
}

func assertTotalsMatchLines(t *testing.T, f fixture) {
	t.Helper()
	items, err := f.svc.Items(context.Background(), f.user.ID)
	require.NoError(t, err)
	var price int64
	var qty int
	for _, l := range items.Items {
		assert.Equal(t, l.UnitPriceCents*int64(l.Quantity), l.TotalPriceCents)
		price += l.TotalPriceCents
		qty += l.Quantity
	}
	assert.Equal(t, price, items.Cart.TotalPriceCents)
	assert.Equal(t, qty, items.Cart.TotalItems)
}

func TestGetCreatesCartLazily(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Get(ctx, f.user.ID)
	require.NoError(t, err)
	second, err := f.svc.Get(ctx, f.user.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Zero(t, first.TotalPriceCents)
	assert.Zero(t, first.TotalItems)
}

func TestGetUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "User not found", err.Error())
}

func TestAddItemMergesAndRecalculates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Mug", 1000, 5, domain.ProductActive)

	line, err := f.svc.AddItem(ctx, f.user.ID, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.NotNil(t, line.Product)

	again, err := f.svc.AddItem(ctx, f.user.ID, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, line.ID, again.ID)
	assert.Equal(t, 3, again.Quantity)
	assert.EqualValues(t, 3000, again.TotalPriceCents)

	cart, err := f.svc.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3000, cart.TotalPriceCents)
	assert.Equal(t, 3, cart.TotalItems)
	assertTotalsMatchLines(t, f)
}

func TestAddItemResnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Mug", 1000, 10, domain.ProductActive)

	_, err := f.svc.AddItem(ctx, f.user.ID, p.ID, 1)
	require.NoError(t, err)

	p.PriceCents = 1200
	_, err = f.store.Products().Update(ctx, *p)
	require.NoError(t, err)

	line, err := f.svc.AddItem(ctx, f.user.ID, p.ID, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1200, line.UnitPriceCents)
	assert.EqualValues(t, 2400, line.TotalPriceCents)
	assertTotalsMatchLines(t, f)
}

func TestAddItemExceedingStockCreatesNoLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Mug", 1000, 2, domain.ProductActive)

	_, err := f.svc.AddItem(ctx, f.user.ID, p.ID, 3)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	items, err := f.svc.Items(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, items.Items)
}

func TestAddItemCombinedQuantityExceedingStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Mug", 1000, 3, domain.ProductActive)

	_, err := f.svc.AddItem(ctx, f.user.ID, p.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.user.ID, p.ID, 2)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "Insufficient stock for total quantity", err.Error())

	items, err := f.svc.Items(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, items.Items, 1)
	assert.Equal(t, 2, items.Items[0].Quantity)
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inactive := f.product(t, "Old", 500, 10, domain.ProductInactive)
	active := f.product(t, "New", 500, 10, domain.ProductActive)

	_, err := f.svc.AddItem(ctx, f.user.ID, inactive.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.svc.AddItem(ctx, f.user.ID, "nope", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.AddItem(ctx, "ghost", active.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.AddItem(ctx, f.user.ID, active.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUpdateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Mug", 1000, 4, domain.ProductActive)
	line, err := f.svc.AddItem(ctx, f.user.ID, p.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.UpdateItem(ctx, f.user.ID, line.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.svc.UpdateItem(ctx, f.user.ID, line.ID, 5)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.svc.UpdateItem(ctx, f.user.ID, "other-line", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	updated, err := f.svc.UpdateItem(ctx, f.user.ID, line.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
	assert.EqualValues(t, 4000, updated.TotalPriceCents)
	assertTotalsMatchLines(t, f)
}

func TestUpdateItemOfAnotherUsersCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Mug", 1000, 4, domain.ProductActive)
	line, err := f.svc.AddItem(ctx, f.user.ID, p.ID, 1)
	require.NoError(t, err)

	other, err := f.store.Users().Create(ctx, domain.User{Email: "other@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	_, err = f.svc.UpdateItem(ctx, other.ID, line.ID, 2)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Cart item not found", err.Error())
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, "A", 100, 10, domain.ProductActive)
	b := f.product(t, "B", 250, 10, domain.ProductActive)
	lineA, err := f.svc.AddItem(ctx, f.user.ID, a.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.user.ID, b.ID, 1)
	require.NoError(t, err)

	removed, err := f.svc.RemoveItem(ctx, f.user.ID, lineA.ID)
	require.NoError(t, err)
	assert.Equal(t, lineA.ID, removed.ID)
	assertTotalsMatchLines(t, f)

	_, err = f.svc.RemoveItem(ctx, f.user.ID, lineA.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cart, err := f.svc.Clear(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Zero(t, cart.TotalPriceCents)
	assert.Zero(t, cart.TotalItems)

	// Clearing an empty cart is a no-op that still leaves zeroed totals.
	cart, err = f.svc.Clear(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Zero(t, cart.TotalItems)
}

type staleCartRepo struct {
	cartRepo
	cart    domain.Cart
	lines   []domain.CartLine
	deleted []string
	recalcs int
}

func (s *staleCartRepo) GetOrCreate(context.Context, string) (*domain.Cart, error) {
	c := s.cart
	return &c, nil
}

func (s *staleCartRepo) ListLines(context.Context, string) ([]domain.CartLine, error) {
	return s.lines, nil
}

func (s *staleCartRepo) DeleteLines(_ context.Context, _ string, ids []string) (int, error) {
	s.deleted = append(s.deleted, ids...)
	return len(ids), nil
}

func (s *staleCartRepo) Recalculate(context.Context, string) (*domain.Cart, error) {
	s.recalcs++
	c := s.cart
	c.TotalPriceCents, c.TotalItems = 500, 1
	return &c, nil
}

type stubUsers struct{}

func (stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id}, nil
}

func TestItemsDropsLinesForDeletedProducts(t *testing.T) {
	repo := &staleCartRepo{
		cart: domain.Cart{ID: "c1", UserID: "u1", TotalPriceCents: 1500, TotalItems: 2},
		lines: []domain.CartLine{
			{ID: "live", ProductID: "p1", Quantity: 1, UnitPriceCents: 500, TotalPriceCents: 500, Product: &domain.Product{ID: "p1"}},
			{ID: "stale", ProductID: "gone", Quantity: 1, UnitPriceCents: 1000, TotalPriceCents: 1000},
		},
	}
	svc := New(repo, nil, stubUsers{}, nil)

	items, err := svc.Items(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, items.Items, 1)
	assert.Equal(t, "live", items.Items[0].ID)
	assert.Equal(t, []string{"stale"}, repo.deleted)
	assert.Equal(t, 1, repo.recalcs)
	assert.Equal(t, 1, items.CleanupInfo.RemovedInvalidItems)
	require.NotNil(t, items.CleanupInfo.Message)
	assert.EqualValues(t, 500, items.Cart.TotalPriceCents)
}

func TestItemsWithoutStaleLinesSkipsCleanup(t *testing.T) {
	repo := &staleCartRepo{cart: domain.Cart{ID: "c1", UserID: "u1"}}
	svc := New(repo, nil, stubUsers{}, nil)

	items, err := svc.Items(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, items.Items)
	assert.Nil(t, items.CleanupInfo.Message)
	assert.Zero(t, repo.recalcs)
}

var _ cartRepo = cartrepo.Repository(nil)
