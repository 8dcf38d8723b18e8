package user

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"ecommerce-backend/internal/domain"
	userrepo "ecommerce-backend/internal/repository/user"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type Service struct {
	repo   userrepo.Repository
	cost   int
	logger *log.Logger
}

func New(repo userrepo.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, cost: bcrypt.DefaultCost, logger: logger}
}

// RegisterInput is used by both self-registration and admin creation.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "A valid email is required")
	}
	if len(in.Password) < minPasswordLen {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Password must be at least %d characters", minPasswordLen)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: string(hashed),
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		Role:         domain.RoleCustomer,
		IsActive:     true,
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil, domain.Errorf(domain.ErrAlreadyExists, "Email already exists")
	}
	if err != nil {
		return nil, err
	}
	s.logger.Printf("user service: registered user_id=%s", u.ID)
	return u, nil
}

// Login checks the credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Invalid email")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Invalid password")
	}
	if !u.IsActive {
		return nil, domain.Errorf(domain.ErrInvalidState, "Account is disabled")
	}
	return u, nil
}

type ListResult struct {
	Users      []domain.User     `json:"users"`
	Pagination domain.Pagination `json:"pagination"`
}

func (s *Service) List(ctx context.Context, page domain.PageRequest) (*ListResult, error) {
	page = page.Normalize()
	users, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return &ListResult{Users: users, Pagination: domain.NewPagination(page, len(users), total)}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "User")
	}
	return u, nil
}

type UpdateInput struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Avatar  *string `json:"avatar"`
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "User")
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		u.Address = strings.TrimSpace(*in.Address)
	}
	if in.Avatar != nil {
		u.Avatar = in.Avatar
	}
	updated, err := s.repo.Update(ctx, *u)
	if err != nil {
		return nil, domain.NotFound(err, "User")
	}
	return updated, nil
}

// Delete removes the account with its cart and chat history. Users who placed orders are kept.
func (s *Service) Delete(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "User")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, domain.NotFound(err, "User")
	}
	s.logger.Printf("user service: deleted user_id=%s", id)
	return u, nil
}
