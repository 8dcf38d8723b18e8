package category

import (
	"context"
	"errors"
	"strings"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "Category")
	}
	return c, nil
}

type Input struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Category name is required")
	}
	c, err := s.repo.Create(ctx, domain.Category{Name: name, Description: strings.TrimSpace(in.Description)})
	if err != nil {
		return nil, nameErr(err)
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "Category")
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		c.Name = name
	}
	c.Description = strings.TrimSpace(in.Description)
	updated, err := s.repo.Update(ctx, *c)
	if err != nil {
		return nil, nameErr(err)
	}
	return updated, nil
}

// Delete removes the category. Its products stay in the catalog, uncategorized.
func (s *Service) Delete(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NotFound(err, "Category")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, domain.NotFound(err, "Category")
	}
	return c, nil
}

func nameErr(err error) error {
	if errors.Is(err, domain.ErrAlreadyExists) {
		return domain.Errorf(domain.ErrAlreadyExists, "Category name already exists")
	}
	return domain.NotFound(err, "Category")
}
