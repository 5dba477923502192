package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	dbm "storefront/internal/models/db_models"
	"storefront/internal/models/request_models"
	resp "storefront/internal/models/response_models"
	"storefront/internal/repositories"
	"storefront/pkg/utils"
)

type PaymentRequestServiceInterface interface {
	Submit(ctx context.Context, userID uuid.UUID, request request_models.SubmitPaymentRequest) (*resp.PaymentRequestResponse, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]resp.PaymentRequestResponse, error)
	List(ctx context.Context, status *dbm.PaymentRequestStatus, page, pageSize int) (*resp.PaymentRequestPage, error)
	Get(ctx context.Context, id uuid.UUID) (*resp.PaymentRequestResponse, error)
}

type PaymentRequestService struct {
	requests repositories.PaymentRequestRepository
	products repositories.ProductRepository
	grants   repositories.AccessGrantRepository
	logger   *zap.Logger
}

func NewPaymentRequestService(
	requests repositories.PaymentRequestRepository,
	products repositories.ProductRepository,
	grants repositories.AccessGrantRepository,
	logger *zap.Logger,
) PaymentRequestServiceInterface {
	return &PaymentRequestService{
		requests: requests,
		products: products,
		grants:   grants,
		logger:   logger.Named("payment_requests"),
	}
}

func ToPaymentRequestResponse(r dbm.PaymentRequest) resp.PaymentRequestResponse {
	return resp.PaymentRequestResponse{
		ID:                   r.ID,
		UserID:               r.UserID,
		ProductID:            r.ProductID,
		ProductTitle:         r.Product.Title,
		PriceMinor:           r.Product.PriceMinor,
		Currency:             r.Product.Currency,
		PaymentMethod:        string(r.PaymentMethod),
		ContactMethod:        string(r.ContactMethod),
		ContactValue:         r.ContactValue,
		TransactionID:        r.TransactionID,
		PaymentScreenshotURL: r.PaymentScreenshotURL,
		PaymentDetails:       r.PaymentDetails,
		AdminNotes:           r.AdminNotes,
		Status:               string(r.Status),
		CreatedAt:            utils.FormatUnixRFC3339(r.CreatedAt),
	}
}

func (s *PaymentRequestService) Submit(ctx context.Context, userID uuid.UUID, request request_models.SubmitPaymentRequest) (*resp.PaymentRequestResponse, error) {
	productID, err := uuid.Parse(request.ProductID)
	if err != nil {
		return nil, utils.ErrProductNotFound
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, persistenceErr("load product", err)
	}
	if product == nil {
		return nil, utils.ErrProductNotFound
	}
	if !product.IsActive {
		return nil, utils.ErrProductInactive
	}

	hasAccess, err := s.grants.Exists(ctx, userID, productID)
	if err != nil {
		return nil, persistenceErr("check access", err)
	}
	if hasAccess {
		return nil, utils.ErrAlreadyHasAccess
	}

	existing, err := s.requests.FindActiveForPair(ctx, userID, productID)
	if err != nil {
		return nil, persistenceErr("check active request", err)
	}
	if existing != nil {
		return nil, utils.ErrDuplicateActiveRequest
	}

	req := &dbm.PaymentRequest{
		UserID:               userID,
		ProductID:            productID,
		PaymentMethod:        dbm.PaymentMethod(request.PaymentMethod),
		ContactMethod:        dbm.ContactMethod(request.ContactMethod),
		ContactValue:         request.ContactValue,
		TransactionID:        request.TransactionID,
		PaymentScreenshotURL: request.PaymentScreenshotURL,
		PaymentDetails:       request.PaymentDetails,
		Status:               dbm.PaymentStatusPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		// concurrent submit won the active-pair index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.ErrDuplicateActiveRequest
		}
		return nil, persistenceErr("create request", err)
	}

	s.logger.Info("payment request submitted",
		zap.Stringer("request_id", req.ID),
		zap.Stringer("user_id", userID),
		zap.Stringer("product_id", productID))

	req.Product = *product
	out := ToPaymentRequestResponse(*req)
	return &out, nil
}

func (s *PaymentRequestService) ListMine(ctx context.Context, userID uuid.UUID) ([]resp.PaymentRequestResponse, error) {
	rows, _, err := s.requests.List(ctx, repositories.PaymentRequestFilter{UserID: &userID})
	if err != nil {
		return nil, persistenceErr("list requests", err)
	}
	out := make([]resp.PaymentRequestResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToPaymentRequestResponse(r))
	}
	return out, nil
}

func (s *PaymentRequestService) List(ctx context.Context, status *dbm.PaymentRequestStatus, page, pageSize int) (*resp.PaymentRequestPage, error) {
	if err := utils.ValidatePage(page, pageSize); err != nil {
		return nil, err
	}
	rows, total, err := s.requests.List(ctx, repositories.PaymentRequestFilter{
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, persistenceErr("list requests", err)
	}

	items := make([]resp.PaymentRequestResponse, 0, len(rows))
	for _, r := range rows {
		items = append(items, ToPaymentRequestResponse(r))
	}
	return &resp.PaymentRequestPage{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *PaymentRequestService) Get(ctx context.Context, id uuid.UUID) (*resp.PaymentRequestResponse, error) {
	r, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: load request: %w", utils.ErrPersistence, err)
	}
	if r == nil {
		return nil, utils.ErrPaymentRequestNotFound
	}
	out := ToPaymentRequestResponse(*r)
	return &out, nil
}
