// Package memory implements every repository in process. All sub-repositories share one
// mutex, so each operation is atomic with respect to every other one, which gives the same
// all-or-nothing guarantees the Postgres implementation gets from transactions.
package memory

import (
	"sync"
	"time"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/repository/cart"
	"ecommerce-backend/internal/repository/category"
	"ecommerce-backend/internal/repository/chat"
	"ecommerce-backend/internal/repository/order"
	"ecommerce-backend/internal/repository/payment"
	"ecommerce-backend/internal/repository/product"
	"ecommerce-backend/internal/repository/user"
	"github.com/google/uuid"
)

type Store struct {
	mu   sync.Mutex
	last time.Time

	users      map[string]domain.User
	categories map[string]domain.Category
	products   map[string]domain.Product
	carts      map[string]domain.Cart
	cartByUser map[string]string
	cartLines  map[string][]domain.CartLine
	orders     map[string]domain.Order
	orderLines map[string][]domain.OrderLine
	payments   map[string]domain.Payment
	chats      []domain.ChatExchange
}

func New() *Store {
	return &Store{
		users:      map[string]domain.User{},
		categories: map[string]domain.Category{},
		products:   map[string]domain.Product{},
		carts:      map[string]domain.Cart{},
		cartByUser: map[string]string{},
		cartLines:  map[string][]domain.CartLine{},
		orders:     map[string]domain.Order{},
		orderLines: map[string][]domain.OrderLine{},
		payments:   map[string]domain.Payment{},
	}
}

func (s *Store) Products() product.Repository { return productRepo{s} }
func (s *Store) Categories() category.Repository { return categoryRepo{s} }
func (s *Store) Users() user.Repository { return userRepo{s} }
func (s *Store) Carts() cart.Repository { return cartRepo{s} }
func (s *Store) Orders() order.Repository { return orderRepo{s} }
func (s *Store) Payments() payment.Repository { return paymentRepo{s} }
func (s *Store) Chats() chat.Repository { return chatRepo{s} }

// now is strictly increasing so that created_at ordering is stable. Callers hold s.mu.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func newID() string {
	return uuid.NewString()
}

func page[T any](items []T, p domain.PageRequest) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.Limit, len(items))
	return items[start:end]
}
