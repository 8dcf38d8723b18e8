package cart

import (
	"context"
	"io"
	"log"

	"ecommerce-backend/internal/domain"
	cartrepo "ecommerce-backend/internal/repository/cart"
)

const staleItemsMessage = "Some products were removed from your cart because they are no longer available."

type cartRepo interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	Recalculate(ctx context.Context, cartID string) (*domain.Cart, error)
	Clear(ctx context.Context, cartID string) error
	ListLines(ctx context.Context, cartID string) ([]domain.CartLine, error)
	GetLine(ctx context.Context, cartID, lineID string) (*domain.CartLine, error)
	AddLine(ctx context.Context, in cartrepo.AddLineInput) (*domain.CartLine, error)
	UpdateLine(ctx context.Context, cartID, lineID string, quantity int, unitPriceCents int64) (*domain.CartLine, error)
	DeleteLine(ctx context.Context, cartID, lineID string) error
	DeleteLines(ctx context.Context, cartID string, lineIDs []string) (int, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type userRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Service manages cart lines. Every line mutation is followed by an explicit
// recalculation of the cart totals.
type Service struct {
	repo     cartRepo
	products productRepo
	users    userRepo
	logger   *log.Logger
}

func New(repo cartRepo, products productRepo, users userRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, products: products, users: users, logger: logger}
}

type CleanupInfo struct {
	RemovedInvalidItems int     `json:"removedInvalidItems"`
	Message             *string `json:"message"`
}

// Items is the cart read model: the cart, its live lines and what the read cleaned up.
type Items struct {
	Cart        domain.Cart       `json:"cart"`
	Items       []domain.CartLine `json:"items"`
	CleanupInfo CleanupInfo       `json:"cleanupInfo"`
}

// Get returns the user's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.cartFor(ctx, userID)
}

// Items lists the cart lines, dropping lines whose product no longer exists.
func (s *Service) Items(ctx context.Context, userID string) (*Items, error) {
	cart, err := s.cartFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	valid := make([]domain.CartLine, 0, len(lines))
	var stale []string
	for _, l := range lines {
		if l.Product == nil {
			stale = append(stale, l.ID)
			continue
		}
		valid = append(valid, l)
	}

	out := &Items{Items: valid}
	if len(stale) > 0 {
		removed, err := s.repo.DeleteLines(ctx, cart.ID, stale)
		if err != nil {
			return nil, err
		}
		if cart, err = s.recalculate(ctx, cart.ID); err != nil {
			return nil, err
		}
		msg := staleItemsMessage
		out.CleanupInfo = CleanupInfo{RemovedInvalidItems: removed, Message: &msg}
		s.logger.Printf("cart service: cleaned %d stale lines cart_id=%s", removed, cart.ID)
	}
	out.Cart = *cart
	return out, nil
}

func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.CartLine, error) {
	if quantity <= 0 {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Quantity must be greater than 0")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, domain.NotFound(err, "Product")
	}
	if product.Status != domain.ProductActive {
		return nil, domain.Errorf(domain.ErrInvalidState, "Product is not available")
	}
	if product.StockQuantity < quantity {
		return nil, domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock")
	}
	cart, err := s.cartFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The repository re-checks the merged quantity against stock atomically.
	line, err := s.repo.AddLine(ctx, cartrepo.AddLineInput{
		CartID:         cart.ID,
		ProductID:      product.ID,
		Quantity:       quantity,
		UnitPriceCents: product.PriceCents,
		MaxQuantity:    product.StockQuantity,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.recalculate(ctx, cart.ID); err != nil {
		return nil, err
	}
	line.Product = product
	s.logger.Printf("cart service: add user_id=%s product_id=%s qty=%d line_qty=%d", userID, productID, quantity, line.Quantity)
	return line, nil
}

func (s *Service) UpdateItem(ctx context.Context, userID, lineID string, quantity int) (*domain.CartLine, error) {
	if quantity <= 0 {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Quantity must be greater than 0")
	}
	cart, err := s.cartFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	line, err := s.repo.GetLine(ctx, cart.ID, lineID)
	if err != nil {
		return nil, domain.NotFound(err, "Cart item")
	}
	product, err := s.products.GetByID(ctx, line.ProductID)
	if err != nil {
		return nil, domain.NotFound(err, "Product")
	}
	if product.StockQuantity < quantity {
		return nil, domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock")
	}

	updated, err := s.repo.UpdateLine(ctx, cart.ID, lineID, quantity, product.PriceCents)
	if err != nil {
		return nil, domain.NotFound(err, "Cart item")
	}
	if _, err := s.recalculate(ctx, cart.ID); err != nil {
		return nil, err
	}
	updated.Product = product
	return updated, nil
}

// RemoveItem deletes one line and returns it.
func (s *Service) RemoveItem(ctx context.Context, userID, lineID string) (*domain.CartLine, error) {
	cart, err := s.cartFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	line, err := s.repo.GetLine(ctx, cart.ID, lineID)
	if err == nil {
		err = s.repo.DeleteLine(ctx, cart.ID, lineID)
	}
	// Recalculate even when nothing was removed.
	if _, rerr := s.recalculate(ctx, cart.ID); rerr != nil && err == nil {
		err = rerr
	}
	if err != nil {
		return nil, domain.NotFound(err, "Cart item")
	}
	return line, nil
}

// Clear empties the cart. Clearing an empty cart still resets its totals.
func (s *Service) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.cartFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Clear(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.recalculate(ctx, cart.ID)
}

func (s *Service) cartFor(ctx context.Context, userID string) (*domain.Cart, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, domain.NotFound(err, "User")
	}
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, domain.NotFound(err, "User")
	}
	return cart, nil
}

func (s *Service) recalculate(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart, err := s.repo.Recalculate(ctx, cartID)
	if err != nil {
		s.logger.Printf("cart service: recalculate cart_id=%s error=%v", cartID, err)
		return nil, err
	}
	return cart, nil
}
