package response_models

type CurrencyAmount struct {
	Currency string `json:"currency"`
	Minor    int64  `json:"amount_minor"`
}

// DashboardStats is recomputed from the current table state on every request.
type DashboardStats struct {
	TotalRequests    int64            `json:"total_requests"`
	PendingRequests  int64            `json:"pending_requests"`
	ApprovedRequests int64            `json:"approved_requests"`
	RejectedRequests int64            `json:"rejected_requests"`
	ApprovedRevenue  []CurrencyAmount `json:"approved_revenue"`
	ActiveGrants     int64            `json:"active_grants"`
	TotalProducts    int64            `json:"total_products"`
	TotalAccounts    int64            `json:"total_accounts"`
}
