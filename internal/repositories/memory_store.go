package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbm "storefront/internal/models/db_models"
)

// =============================================================================
// In-memory store for testing
// =============================================================================

type pairKey struct {
	userID    uuid.UUID
	productID uuid.UUID
}

// MemoryStore backs every repository interface with maps. FailOn injects an
// error for a named operation (e.g. "grants.ensure") and Ops records the
// successful writes in order. The unique constraints of the schema (account
// email, one pending/approved request per user and product) are enforced and
// reported as gorm.ErrDuplicatedKey, like the postgres dialector does.
type MemoryStore struct {
	mu            sync.RWMutex
	accounts      map[uuid.UUID]dbm.Account
	products      map[uuid.UUID]dbm.Product
	requests      map[uuid.UUID]dbm.PaymentRequest
	grants        map[pairKey]dbm.AccessGrant
	notifications []dbm.Notification
	failures      map[string]error
	ops           []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[uuid.UUID]dbm.Account),
		products: make(map[uuid.UUID]dbm.Product),
		requests: make(map[uuid.UUID]dbm.PaymentRequest),
		grants:   make(map[pairKey]dbm.AccessGrant),
		failures: make(map[string]error),
	}
}

func (s *MemoryStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Ops returns a copy of the write log.
func (s *MemoryStore) Ops() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.ops...)
}

// Notifications returns a copy of every stored notification, oldest first.
func (s *MemoryStore) Notifications() []dbm.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dbm.Notification(nil), s.notifications...)
}

func (s *MemoryStore) GrantCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.grants)
}

func (s *MemoryStore) failLocked(op string) error {
	return s.failures[op]
}

func (s *MemoryStore) Accounts() AccountRepository { return &memAccounts{s} }
func (s *MemoryStore) Products() ProductRepository { return &memProducts{s} }
func (s *MemoryStore) PaymentRequests() PaymentRequestRepository { return &memPaymentRequests{s} }
func (s *MemoryStore) Grants() AccessGrantRepository { return &memGrants{s} }
func (s *MemoryStore) NotificationRepo() NotificationRepositoryInterface { return &memNotifications{s} }
func (s *MemoryStore) Dashboard() DashboardRepository { return &memDashboard{s} }

func stamp(b *dbm.BaseModel) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().Unix()
	if b.CreatedAt == 0 {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// ---------- accounts ----------

type memAccounts struct{ s *MemoryStore }

func (m *memAccounts) Create(ctx context.Context, account *dbm.Account) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.failLocked("accounts.create"); err != nil {
		return err
	}
	for _, a := range m.s.accounts {
		if a.Email == account.Email && a.ID != account.ID {
			return gorm.ErrDuplicatedKey
		}
	}
	stamp(&account.BaseModel)
	m.s.accounts[account.ID] = *account
	return nil
}

func (m *memAccounts) FindById(ctx context.Context, id uuid.UUID) (*dbm.Account, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	a, ok := m.s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memAccounts) FindByEmail(ctx context.Context, email string) (*dbm.Account, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.failLocked("accounts.find"); err != nil {
		return nil, err
	}
	for _, a := range m.s.accounts {
		if a.Email == email {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memAccounts) FindRoleByID(ctx context.Context, id uuid.UUID) (string, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.failLocked("accounts.role"); err != nil {
		return "", err
	}
	return m.s.accounts[id].Role, nil
}

// ---------- products ----------

type memProducts struct{ s *MemoryStore }

func (m *memProducts) Create(ctx context.Context, product *dbm.Product) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stamp(&product.BaseModel)
	m.s.products[product.ID] = *product
	return nil
}

func (m *memProducts) Update(ctx context.Context, product *dbm.Product) error {
	return m.Create(ctx, product)
}

func (m *memProducts) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, ok := m.s.products[id]
	delete(m.s.products, id)
	return ok, nil
}

func (m *memProducts) FindByID(ctx context.Context, id uuid.UUID) (*dbm.Product, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	p, ok := m.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memProducts) List(ctx context.Context, includeInactive bool) ([]dbm.Product, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []dbm.Product
	for _, p := range m.s.products {
		if includeInactive || p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

// ---------- payment requests ----------

type memPaymentRequests struct{ s *MemoryStore }

func (m *memPaymentRequests) withProductLocked(r dbm.PaymentRequest) dbm.PaymentRequest {
	r.Product = m.s.products[r.ProductID]
	return r
}

func isActive(status dbm.PaymentRequestStatus) bool {
	return status == dbm.PaymentStatusPending || status == dbm.PaymentStatusApproved
}

// activePairTakenLocked mirrors idx_payment_requests_active_pair.
func (m *memPaymentRequests) activePairTakenLocked(self uuid.UUID, userID, productID uuid.UUID) bool {
	for id, r := range m.s.requests {
		if id != self && r.UserID == userID && r.ProductID == productID && isActive(r.Status) {
			return true
		}
	}
	return false
}

func (m *memPaymentRequests) Create(ctx context.Context, req *dbm.PaymentRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.failLocked("requests.create"); err != nil {
		return err
	}
	if req.Status == "" {
		req.Status = dbm.PaymentStatusPending
	}
	if isActive(req.Status) && m.activePairTakenLocked(req.ID, req.UserID, req.ProductID) {
		return gorm.ErrDuplicatedKey
	}
	stamp(&req.BaseModel)
	stored := *req
	stored.Product = dbm.Product{}
	m.s.requests[req.ID] = stored
	m.s.ops = append(m.s.ops, "requests.create")
	return nil
}

func (m *memPaymentRequests) FindByID(ctx context.Context, id uuid.UUID) (*dbm.PaymentRequest, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.failLocked("requests.find"); err != nil {
		return nil, err
	}
	r, ok := m.s.requests[id]
	if !ok {
		return nil, nil
	}
	r = m.withProductLocked(r)
	return &r, nil
}

func (m *memPaymentRequests) FindActiveForPair(ctx context.Context, userID, productID uuid.UUID) (*dbm.PaymentRequest, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, r := range m.s.requests {
		if r.UserID == userID && r.ProductID == productID && isActive(r.Status) {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memPaymentRequests) List(ctx context.Context, filter PaymentRequestFilter) ([]dbm.PaymentRequest, int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []dbm.PaymentRequest
	for _, r := range m.s.requests {
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		out = append(out, m.withProductLocked(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	total := int64(len(out))
	if filter.PageSize > 0 {
		start := (filter.Page - 1) * filter.PageSize
		if start >= len(out) {
			return nil, total, nil
		}
		end := start + filter.PageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (m *memPaymentRequests) UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, expected, next dbm.PaymentRequestStatus, notes *string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.failLocked("requests.update"); err != nil {
		return false, err
	}
	r, ok := m.s.requests[id]
	if !ok || r.Status != expected {
		return false, nil
	}
	if isActive(next) && m.activePairTakenLocked(id, r.UserID, r.ProductID) {
		return false, gorm.ErrDuplicatedKey
	}
	r.Status = next
	if notes != nil {
		n := *notes
		r.AdminNotes = &n
	}
	r.UpdatedAt = time.Now().Unix()
	m.s.requests[id] = r
	m.s.ops = append(m.s.ops, "requests.update:"+string(next))
	return true, nil
}

func (m *memPaymentRequests) HardDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.failLocked("requests.delete"); err != nil {
		return false, err
	}
	_, ok := m.s.requests[id]
	delete(m.s.requests, id)
	m.s.ops = append(m.s.ops, "requests.delete")
	return ok, nil
}

// ---------- grants ----------

type memGrants struct{ s *MemoryStore }

func (m *memGrants) Ensure(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.failLocked("grants.ensure"); err != nil {
		return false, err
	}
	key := pairKey{userID, productID}
	m.s.ops = append(m.s.ops, "grants.ensure")
	if _, ok := m.s.grants[key]; ok {
		return false, nil
	}
	m.s.grants[key] = dbm.AccessGrant{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now().Unix(),
	}
	return true, nil
}

func (m *memGrants) Delete(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.failLocked("grants.delete"); err != nil {
		return false, err
	}
	key := pairKey{userID, productID}
	_, ok := m.s.grants[key]
	delete(m.s.grants, key)
	m.s.ops = append(m.s.ops, "grants.delete")
	return ok, nil
}

func (m *memGrants) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	_, ok := m.s.grants[pairKey{userID, productID}]
	return ok, nil
}

func (m *memGrants) ListByUser(ctx context.Context, userID uuid.UUID) ([]GrantWithProduct, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []GrantWithProduct
	for k, g := range m.s.grants {
		if k.userID != userID {
			continue
		}
		p, ok := m.s.products[k.productID]
		if !ok {
			continue
		}
		out = append(out, GrantWithProduct{ProductID: k.productID, Title: p.Title, CreatedAt: g.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

// ---------- notifications ----------

type memNotifications struct{ s *MemoryStore }

func (m *memNotifications) Create(ctx context.Context, n *dbm.Notification) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.failLocked("notifications.create"); err != nil {
		return err
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = time.Now().Unix()
	}
	m.s.notifications = append(m.s.notifications, *n)
	m.s.ops = append(m.s.ops, "notifications.create")
	return nil
}

func (m *memNotifications) FindByID(ctx context.Context, id uuid.UUID) (*dbm.Notification, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.failLocked("notifications.find"); err != nil {
		return nil, err
	}
	for _, n := range m.s.notifications {
		if n.ID == id {
			n := n
			return &n, nil
		}
	}
	return nil, nil
}

func (m *memNotifications) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]dbm.Notification, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var out []dbm.Notification
	for i := len(m.s.notifications) - 1; i >= 0; i-- {
		if m.s.notifications[i].UserID == userID {
			out = append(out, m.s.notifications[i])
		}
	}
	start := (page - 1) * pageSize
	if start >= len(out) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (m *memNotifications) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var n int64
	for _, x := range m.s.notifications {
		if x.UserID == userID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for i := range m.s.notifications {
		if m.s.notifications[i].ID == id && m.s.notifications[i].UserID == userID {
			m.s.notifications[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotifications) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for i := range m.s.notifications {
		if m.s.notifications[i].UserID == userID && !m.s.notifications[i].IsRead {
			m.s.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

// ---------- dashboard ----------

type memDashboard struct{ s *MemoryStore }

func (m *memDashboard) CountRequestsByStatus(ctx context.Context) ([]StatusCount, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	if err := m.s.failLocked("dashboard.counts"); err != nil {
		return nil, err
	}
	counts := map[dbm.PaymentRequestStatus]int64{}
	for _, r := range m.s.requests {
		counts[r.Status]++
	}
	var out []StatusCount
	for status, n := range counts {
		out = append(out, StatusCount{Status: status, Count: n})
	}
	return out, nil
}

func (m *memDashboard) ApprovedRevenue(ctx context.Context) ([]CurrencySum, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	sums := map[string]int64{}
	for _, r := range m.s.requests {
		if r.Status != dbm.PaymentStatusApproved {
			continue
		}
		p, ok := m.s.products[r.ProductID]
		if !ok {
			continue
		}
		sums[p.Currency] += p.PriceMinor
	}
	var out []CurrencySum
	for c, v := range sums {
		out = append(out, CurrencySum{Currency: c, Sum: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

func (m *memDashboard) CountGrants(ctx context.Context) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return int64(len(m.s.grants)), nil
}

func (m *memDashboard) CountProducts(ctx context.Context) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return int64(len(m.s.products)), nil
}

func (m *memDashboard) CountAccounts(ctx context.Context) (int64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return int64(len(m.s.accounts)), nil
}

// Ensure implementations satisfy interfaces
var (
	_ AccountRepository               = (*memAccounts)(nil)
	_ ProductRepository               = (*memProducts)(nil)
	_ PaymentRequestRepository        = (*memPaymentRequests)(nil)
	_ AccessGrantRepository           = (*memGrants)(nil)
	_ NotificationRepositoryInterface = (*memNotifications)(nil)
	_ DashboardRepository             = (*memDashboard)(nil)
	_ NotificationRepositoryInterface = (*NotificationRepository)(nil)
)
