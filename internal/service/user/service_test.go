package user

import (
	"context"
	"testing"

	"ecommerce-backend/internal/domain"
	"ecommerce-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService() (*Service, *memory.Store) {
	store := memory.New()
	svc := New(store.Users(), nil)
	svc.cost = bcrypt.MinCost
	return svc, store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: " Ada@Example.com ", Password: "secret1", Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, domain.RoleCustomer, u.Role)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Email: "ADA@example.com", Password: "another1"})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Equal(t, "Email already exists", err.Error())

	got, err := svc.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Login(ctx, "ada@example.com", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, "Invalid password", err.Error())

	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, "Invalid email", err.Error())
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService()
	for _, in := range []RegisterInput{
		{Email: "", Password: "secret1"},
		{Email: "not-an-email", Password: "secret1"},
		{Email: "a@example.com", Password: "short"},
	} {
		_, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, "input %+v", in)
	}
}

func TestUpdateListDelete(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Email: "b@example.com", Password: "secret1"})
	require.NoError(t, err)

	name, phone := "Ada", "555-0100"
	updated, err := svc.Update(ctx, u.ID, UpdateInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.Name)
	assert.Equal(t, "555-0100", updated.Phone)

	list, err := svc.List(ctx, domain.PageRequest{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list.Users, 1)
	assert.Equal(t, 2, list.Pagination.TotalItems)
	assert.Equal(t, 2, list.Pagination.Total)

	_, err = store.Carts().GetOrCreate(ctx, u.ID)
	require.NoError(t, err)
	deleted, err := svc.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, deleted.ID)

	_, err = svc.Get(ctx, u.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "User not found", err.Error())
	_, err = store.Carts().GetByUser(ctx, u.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
