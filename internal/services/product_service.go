package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	dbm "storefront/internal/models/db_models"
	"storefront/internal/models/request_models"
	resp "storefront/internal/models/response_models"
	"storefront/internal/repositories"
	"storefront/pkg/utils"
)

type ProductServiceInterface interface {
	List(ctx context.Context, includeInactive bool) ([]resp.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*resp.ProductResponse, error)
	Create(ctx context.Context, req request_models.UpsertProductRequest) (*resp.ProductResponse, error)
	Update(ctx context.Context, id uuid.UUID, req request_models.UpsertProductRequest) (*resp.ProductResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error

	MyAccess(ctx context.Context, userID uuid.UUID) ([]resp.ProductAccessResponse, error)
	HasAccess(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Download(ctx context.Context, userID, productID uuid.UUID) (*resp.DownloadResponse, error)
}

type ProductService struct {
	products repositories.ProductRepository
	grants   repositories.AccessGrantRepository
}

func NewProductService(products repositories.ProductRepository, grants repositories.AccessGrantRepository) ProductServiceInterface {
	return &ProductService{products: products, grants: grants}
}

func toProductResponse(p dbm.Product) resp.ProductResponse {
	return resp.ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		PriceMinor:  p.PriceMinor,
		Currency:    p.Currency,
		ImageURL:    p.ImageURL,
		IsActive:    p.IsActive,
	}
}

func applyProductRequest(p *dbm.Product, req request_models.UpsertProductRequest) {
	p.Title = req.Title
	p.Description = req.Description
	p.PriceMinor = req.PriceMinor
	p.Currency = strings.ToUpper(req.Currency)
	if p.Currency == "" {
		p.Currency = "USD"
	}
	p.ImageURL = req.ImageURL
	p.FileURL = req.FileURL
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

func (s *ProductService) List(ctx context.Context, includeInactive bool) ([]resp.ProductResponse, error) {
	rows, err := s.products.List(ctx, includeInactive)
	if err != nil {
		return nil, persistenceErr("list products", err)
	}
	out := make([]resp.ProductResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

func (s *ProductService) find(ctx context.Context, id uuid.UUID) (*dbm.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, persistenceErr("load product", err)
	}
	if p == nil {
		return nil, utils.ErrProductNotFound
	}
	return p, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*resp.ProductResponse, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toProductResponse(*p)
	return &out, nil
}

func (s *ProductService) Create(ctx context.Context, req request_models.UpsertProductRequest) (*resp.ProductResponse, error) {
	p := &dbm.Product{IsActive: true}
	applyProductRequest(p, req)
	if err := s.products.Create(ctx, p); err != nil {
		return nil, persistenceErr("create product", err)
	}
	out := toProductResponse(*p)
	return &out, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req request_models.UpsertProductRequest) (*resp.ProductResponse, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProductRequest(p, req)
	if err := s.products.Update(ctx, p); err != nil {
		return nil, persistenceErr("update product", err)
	}
	out := toProductResponse(*p)
	return &out, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.products.Delete(ctx, id)
	if err != nil {
		return persistenceErr("delete product", err)
	}
	if !ok {
		return utils.ErrProductNotFound
	}
	return nil
}

func (s *ProductService) MyAccess(ctx context.Context, userID uuid.UUID) ([]resp.ProductAccessResponse, error) {
	rows, err := s.grants.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistenceErr("list grants", err)
	}
	out := make([]resp.ProductAccessResponse, 0, len(rows))
	for _, g := range rows {
		out = append(out, resp.ProductAccessResponse{
			ProductID: g.ProductID,
			Title:     g.Title,
			GrantedAt: utils.FormatUnixRFC3339(g.CreatedAt),
		})
	}
	return out, nil
}

func (s *ProductService) HasAccess(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	ok, err := s.grants.Exists(ctx, userID, productID)
	if err != nil {
		return false, persistenceErr("check access", err)
	}
	return ok, nil
}

func (s *ProductService) Download(ctx context.Context, userID, productID uuid.UUID) (*resp.DownloadResponse, error) {
	ok, err := s.HasAccess(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.ErrAccessDenied
	}
	p, err := s.find(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &resp.DownloadResponse{ProductID: p.ID, FileURL: p.FileURL}, nil
}
