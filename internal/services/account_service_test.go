package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/models/db_models"
	"storefront/internal/models/request_models"
	"storefront/internal/repositories"
	"storefront/pkg/utils"
)

func TestAccountService_RegisterLoginMe(t *testing.T) {
	store := repositories.NewMemoryStore()
	issuer := utils.NewTokenIssuer("0123456789abcdef0123")
	svc := NewAccountService(store.Accounts(), issuer, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.CreateAccount(ctx, request_models.SignUpRequest{
		DisplayName: "Buyer", Email: "buyer@example.com", Password: "secret1",
	}))
	assert.ErrorIs(t, svc.CreateAccount(ctx, request_models.SignUpRequest{
		DisplayName: "Again", Email: "buyer@example.com", Password: "secret1",
	}), utils.ErrEmailAlreadyExists)

	_, err := svc.Login(ctx, request_models.LoginRequest{Email: "buyer@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)

	login, err := svc.Login(ctx, request_models.LoginRequest{Email: "buyer@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "user", login.Role)

	claims, err := issuer.ValidateToken(login.Token)
	require.NoError(t, err)

	me, err := svc.Me(ctx, uuid.MustParse(claims.UserID))
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", me.Email)
}

// staleEmailLookup misses existing accounts, as a concurrent sign-up does.
type staleEmailLookup struct {
	repositories.AccountRepository
}

func (staleEmailLookup) FindByEmail(ctx context.Context, email string) (*db_models.Account, error) {
	return nil, nil
}

func TestAccountService_ConcurrentSignUpIsEmailConflict(t *testing.T) {
	store := repositories.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Accounts().Create(ctx, &db_models.Account{Name: "First", Email: "dup@example.com", Role: db_models.RoleUser}))

	svc := NewAccountService(staleEmailLookup{store.Accounts()}, utils.NewTokenIssuer("0123456789abcdef0123"), zap.NewNop())
	err := svc.CreateAccount(ctx, request_models.SignUpRequest{
		DisplayName: "Second", Email: "dup@example.com", Password: "secret1",
	})
	assert.ErrorIs(t, err, utils.ErrEmailAlreadyExists)
}

func TestAccountService_StoreFailuresArePersistenceErrors(t *testing.T) {
	ctx := context.Background()
	signUp := request_models.SignUpRequest{DisplayName: "Buyer", Email: "buyer@example.com", Password: "secret1"}

	t.Run("create", func(t *testing.T) {
		store := repositories.NewMemoryStore()
		store.FailOn("accounts.create", errors.New("connection reset"))
		svc := NewAccountService(store.Accounts(), utils.NewTokenIssuer("0123456789abcdef0123"), zap.NewNop())

		assert.ErrorIs(t, svc.CreateAccount(ctx, signUp), utils.ErrPersistence)
	})

	t.Run("login lookup", func(t *testing.T) {
		store := repositories.NewMemoryStore()
		svc := NewAccountService(store.Accounts(), utils.NewTokenIssuer("0123456789abcdef0123"), zap.NewNop())
		require.NoError(t, svc.CreateAccount(ctx, signUp))
		store.FailOn("accounts.find", errors.New("connection reset"))

		_, err := svc.Login(ctx, request_models.LoginRequest{Email: signUp.Email, Password: signUp.Password})
		assert.ErrorIs(t, err, utils.ErrPersistence)
	})
}
