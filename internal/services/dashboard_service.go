package services

import (
	"context"

	dbm "storefront/internal/models/db_models"
	resp "storefront/internal/models/response_models"
	"storefront/internal/repositories"
)

type DashboardService interface {
	Stats(ctx context.Context) (*resp.DashboardStats, error)
}

type dashboardService struct {
	repo repositories.DashboardRepository
}

func NewDashboardService(repo repositories.DashboardRepository) DashboardService {
	return &dashboardService{repo: repo}
}

// Stats is a pure read projection over the current tables.
func (s *dashboardService) Stats(ctx context.Context) (*resp.DashboardStats, error) {
	out := &resp.DashboardStats{ApprovedRevenue: []resp.CurrencyAmount{}}

	// ---------- Request counts ----------
	counts, err := s.repo.CountRequestsByStatus(ctx)
	if err != nil {
		return nil, persistenceErr("count requests", err)
	}
	for _, c := range counts {
		out.TotalRequests += c.Count
		switch c.Status {
		case dbm.PaymentStatusPending:
			out.PendingRequests = c.Count
		case dbm.PaymentStatusApproved:
			out.ApprovedRequests = c.Count
		case dbm.PaymentStatusRejected:
			out.RejectedRequests = c.Count
		}
	}

	// ---------- Revenue ----------
	sums, err := s.repo.ApprovedRevenue(ctx)
	if err != nil {
		return nil, persistenceErr("approved revenue", err)
	}
	for _, r := range sums {
		out.ApprovedRevenue = append(out.ApprovedRevenue, resp.CurrencyAmount{Currency: r.Currency, Minor: r.Sum})
	}

	// ---------- Catalog ----------
	if out.ActiveGrants, err = s.repo.CountGrants(ctx); err != nil {
		return nil, persistenceErr("count grants", err)
	}
	if out.TotalProducts, err = s.repo.CountProducts(ctx); err != nil {
		return nil, persistenceErr("count products", err)
	}
	if out.TotalAccounts, err = s.repo.CountAccounts(ctx); err != nil {
		return nil, persistenceErr("count accounts", err)
	}

	return out, nil
}
