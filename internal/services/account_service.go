package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/models/db_models"
	"storefront/internal/models/request_models"
	resp "storefront/internal/models/response_models"
	"storefront/internal/repositories"
	"storefront/pkg/utils"
)

type AccountServiceInterface interface {
	Login(ctx context.Context, request request_models.LoginRequest) (*resp.AccountLoginResponse, error)
	CreateAccount(ctx context.Context, request request_models.SignUpRequest) error
	Me(ctx context.Context, id uuid.UUID) (*resp.AccountResponse, error)
}

type AccountService struct {
	accountRepo repositories.AccountRepository
	tokens      *utils.TokenIssuer
	logger      *zap.Logger
}

func NewAccountService(accountRepo repositories.AccountRepository, tokens *utils.TokenIssuer, logger *zap.Logger) AccountServiceInterface {
	return &AccountService{
		accountRepo: accountRepo,
		tokens:      tokens,
		logger:      logger.Named("accounts"),
	}
}

func (a *AccountService) Login(ctx context.Context, request request_models.LoginRequest) (*resp.AccountLoginResponse, error) {

	startTime := time.Now()

	account, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return nil, persistenceErr("find account", err)
	}

	if account == nil {
		return nil, utils.ErrInvalidCredentials
	}

	err = utils.ComparePasswords(account.PasswordHash, request.Password)
	if err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	token, err := a.tokens.CreateToken(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	a.logger.Debug("login", zap.Stringer("account_id", account.ID), zap.Duration("took", time.Since(startTime)))

	return &resp.AccountLoginResponse{Token: token, Role: account.Role}, nil
}

func (a *AccountService) CreateAccount(ctx context.Context, request request_models.SignUpRequest) error {

	existingAccount, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return persistenceErr("find account", err)
	}
	if existingAccount != nil {
		return utils.ErrEmailAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(request.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	newAccount := &db_models.Account{
		Name:         request.DisplayName,
		Email:        request.Email,
		PasswordHash: hashedPassword,
		Role:         db_models.RoleUser, // admins are promoted out of band
	}

	if err := a.accountRepo.Create(ctx, newAccount); err != nil {
		// lost a race with a concurrent registration for the same email
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ErrEmailAlreadyExists
		}
		return persistenceErr("create account", err)
	}

	return nil
}

func (a *AccountService) Me(ctx context.Context, id uuid.UUID) (*resp.AccountResponse, error) {
	account, err := a.accountRepo.FindById(ctx, id)
	if err != nil {
		return nil, persistenceErr("find account", err)
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}
	return &resp.AccountResponse{
		ID:    account.ID.String(),
		Name:  account.Name,
		Email: account.Email,
		Role:  account.Role,
	}, nil
}
