package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	dbm "storefront/internal/models/db_models"
	"storefront/internal/models/request_models"
	"storefront/internal/repositories"
	"storefront/pkg/utils"
)

// =============================================================================
// Fixtures
// =============================================================================

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type grantFixture struct {
	store      *repositories.MemoryStore
	svc        AccessGrantServiceInterface
	admin      uuid.UUID
	superAdmin uuid.UUID
	buyer      uuid.UUID
	product    dbm.Product
}

func newGrantFixture(t *testing.T) *grantFixture {
	t.Helper()
	ctx := context.Background()
	store := repositories.NewMemoryStore()

	f := &grantFixture{store: store}
	for role, dst := range map[string]*uuid.UUID{
		dbm.RoleAdmin:      &f.admin,
		dbm.RoleSuperAdmin: &f.superAdmin,
		dbm.RoleUser:       &f.buyer,
	} {
		acc := &dbm.Account{Name: role, Email: role + "@example.com", Role: role}
		require.NoError(t, store.Accounts().Create(ctx, acc))
		*dst = acc.ID
	}

	f.product = dbm.Product{Title: "Go Patterns E-book", PriceMinor: 1500, Currency: "USD", IsActive: true}
	require.NoError(t, store.Products().Create(ctx, &f.product))

	f.svc = NewAccessGrantService(passthroughTx{}, store.PaymentRequests(), store.Grants(),
		store.NotificationRepo(), store.Accounts(), zap.NewNop())
	return f
}

func (f *grantFixture) seedRequest(t *testing.T, status dbm.PaymentRequestStatus) uuid.UUID {
	t.Helper()
	req := &dbm.PaymentRequest{
		UserID:        f.buyer,
		ProductID:     f.product.ID,
		PaymentMethod: dbm.PaymentMethodNayaPay,
		ContactMethod: dbm.ContactWhatsApp,
		ContactValue:  "+920000000",
		Status:        status,
	}
	require.NoError(t, f.store.PaymentRequests().Create(context.Background(), req))
	return req.ID
}

func (f *grantFixture) status(t *testing.T, id uuid.UUID) dbm.PaymentRequestStatus {
	t.Helper()
	r, err := f.store.PaymentRequests().FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, r)
	return r.Status
}

func (f *grantFixture) hasGrant(t *testing.T) bool {
	t.Helper()
	ok, err := f.store.Grants().Exists(context.Background(), f.buyer, f.product.ID)
	require.NoError(t, err)
	return ok
}

func strPtr(s string) *string { return &s }

// =============================================================================
// Approve
// =============================================================================

func TestApprove_PendingGrantsAccessAndNotifies(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)

	out, err := f.svc.Approve(context.Background(), f.admin, id, ReviewOptions{Notes: strPtr("looks good"), Notify: true})
	require.NoError(t, err)

	assert.Equal(t, dbm.PaymentStatusApproved, out.Status)
	require.NotNil(t, out.AdminNotes)
	assert.Equal(t, "looks good", *out.AdminNotes)
	assert.Equal(t, dbm.PaymentStatusApproved, f.status(t, id))
	assert.True(t, f.hasGrant(t))
	assert.Equal(t, 1, f.store.GrantCount())

	notes := f.store.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, f.buyer, notes[0].UserID)
	assert.Equal(t, dbm.NotificationSuccess, notes[0].Type)
	assert.Contains(t, notes[0].Message, "Go Patterns E-book")
	require.NotNil(t, notes[0].PaymentRequestID)
	assert.Equal(t, id, *notes[0].PaymentRequestID)
	assert.Contains(t, string(notes[0].Metadata), `"action":"approve"`)

	assert.Equal(t, []string{
		"requests.create",
		"requests.update:approved",
		"grants.ensure",
		"notifications.create",
	}, f.store.Ops())
}

func TestApprove_TwiceKeepsSingleGrant(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, f.admin, id, ReviewOptions{Notify: true})
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.admin, id, ReviewOptions{Notify: true})
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.GrantCount())
	assert.Len(t, f.store.Notifications(), 1, "retry should not notify again")
}

func TestApprove_RejectedIsInvalidTransition(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusRejected)

	_, err := f.svc.Approve(context.Background(), f.admin, id, ReviewOptions{Notify: true})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
	assert.Equal(t, dbm.PaymentStatusRejected, f.status(t, id))
	assert.False(t, f.hasGrant(t))
	assert.Empty(t, f.store.Notifications())
}

func TestApprove_NotifyFalseWritesNoNotification(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)

	_, err := f.svc.Approve(context.Background(), f.admin, id, ReviewOptions{Notify: false})
	require.NoError(t, err)
	assert.True(t, f.hasGrant(t))
	assert.Empty(t, f.store.Notifications())
}

func TestApprove_UnknownRequest(t *testing.T) {
	f := newGrantFixture(t)

	_, err := f.svc.Approve(context.Background(), f.admin, uuid.New(), ReviewOptions{Notify: true})
	assert.ErrorIs(t, err, utils.ErrPaymentRequestNotFound)
	assert.Equal(t, 0, f.store.GrantCount())
}

func TestApprove_RegularUserUnauthorized(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)

	_, err := f.svc.Approve(context.Background(), f.buyer, id, ReviewOptions{Notify: true})
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
	assert.Equal(t, dbm.PaymentStatusPending, f.status(t, id))
}

func TestApprove_GrantFailureLeavesApprovedAndRetryRepairs(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)
	ctx := context.Background()
	dbErr := errors.New("connection reset")

	f.store.FailOn("grants.ensure", dbErr)
	_, err := f.svc.Approve(ctx, f.admin, id, ReviewOptions{Notify: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrPersistence)
	assert.ErrorIs(t, err, dbErr)

	// status write landed before the grant write
	assert.Equal(t, dbm.PaymentStatusApproved, f.status(t, id))
	assert.False(t, f.hasGrant(t))
	assert.Empty(t, f.store.Notifications())

	f.store.FailOn("grants.ensure", nil)
	_, err = f.svc.Approve(ctx, f.admin, id, ReviewOptions{Notify: true})
	require.NoError(t, err)
	assert.True(t, f.hasGrant(t))
}

func TestApprove_NotificationFailureKeepsGrant(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)

	f.store.FailOn("notifications.create", errors.New("disk full"))
	_, err := f.svc.Approve(context.Background(), f.admin, id, ReviewOptions{Notify: true})
	assert.ErrorIs(t, err, utils.ErrPersistence)
	assert.Equal(t, dbm.PaymentStatusApproved, f.status(t, id))
	assert.True(t, f.hasGrant(t))
}

// =============================================================================
// Reject
// =============================================================================

func TestReject_PendingByAdmin(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)

	out, err := f.svc.Reject(context.Background(), f.admin, id, ReviewOptions{Notes: strPtr("screenshot unreadable"), Notify: true})
	require.NoError(t, err)
	assert.Equal(t, dbm.PaymentStatusRejected, out.Status)
	assert.False(t, f.hasGrant(t))

	notes := f.store.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, dbm.NotificationWarning, notes[0].Type)
	assert.Contains(t, notes[0].Message, "screenshot unreadable")
}

func TestReject_LongNotesKeptInNotification(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)
	notes := strings.Repeat("<", 2000)

	_, err := f.svc.Reject(context.Background(), f.admin, id, ReviewOptions{Notes: strPtr(notes), Notify: true})
	require.NoError(t, err)
	assert.Equal(t, dbm.PaymentStatusRejected, f.status(t, id))

	stored := f.store.Notifications()
	require.Len(t, stored, 1)
	assert.True(t, strings.HasSuffix(stored[0].Message, notes))
}

func TestReject_ApprovedIsInvalidTransition(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusApproved)

	_, err := f.svc.Reject(context.Background(), f.superAdmin, id, ReviewOptions{})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
	assert.Equal(t, dbm.PaymentStatusApproved, f.status(t, id))
}

func TestReject_WithoutNotify(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)

	_, err := f.svc.Reject(context.Background(), f.admin, id, ReviewOptions{})
	require.NoError(t, err)
	assert.Empty(t, f.store.Notifications())
}

// =============================================================================
// Revoke
// =============================================================================

func TestRevoke_ReturnsToPendingWithoutNotification(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, f.admin, id, ReviewOptions{Notify: true})
	require.NoError(t, err)

	out, err := f.svc.Revoke(ctx, f.superAdmin, id, false)
	require.NoError(t, err)
	assert.Equal(t, dbm.PaymentStatusPending, out.Status)
	assert.Equal(t, dbm.PaymentStatusPending, f.status(t, id))
	assert.False(t, f.hasGrant(t))
	assert.Len(t, f.store.Notifications(), 1, "only the approval notification")

	ops := f.store.Ops()
	assert.Equal(t, []string{"grants.delete", "requests.update:pending"}, ops[len(ops)-2:])
}

func TestRevoke_NotifiesWithError(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, f.admin, id, ReviewOptions{})
	require.NoError(t, err)
	_, err = f.svc.Revoke(ctx, f.superAdmin, id, true)
	require.NoError(t, err)

	notes := f.store.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, dbm.NotificationError, notes[0].Type)
	assert.Equal(t, "Access Revoked", notes[0].Title)
}

func TestRevoke_ThenApproveRecreatesGrant(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, f.admin, id, ReviewOptions{})
	require.NoError(t, err)
	_, err = f.svc.Revoke(ctx, f.superAdmin, id, false)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.admin, id, ReviewOptions{})
	require.NoError(t, err)

	assert.True(t, f.hasGrant(t))
	assert.Equal(t, dbm.PaymentStatusApproved, f.status(t, id))
}

func TestRevoke_NotApprovedIsInvalidTransition(t *testing.T) {
	for _, status := range []dbm.PaymentRequestStatus{dbm.PaymentStatusPending, dbm.PaymentStatusRejected} {
		t.Run(string(status), func(t *testing.T) {
			f := newGrantFixture(t)
			id := f.seedRequest(t, status)

			_, err := f.svc.Revoke(context.Background(), f.superAdmin, id, true)
			assert.ErrorIs(t, err, utils.ErrInvalidTransition)
			assert.Equal(t, status, f.status(t, id))
		})
	}
}

// =============================================================================
// ReApprove
// =============================================================================

func TestReApprove_FromRejected(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusRejected)

	out, err := f.svc.ReApprove(context.Background(), f.superAdmin, id, ReviewOptions{Notify: true})
	require.NoError(t, err)
	assert.Equal(t, dbm.PaymentStatusApproved, out.Status)
	assert.True(t, f.hasGrant(t))
	require.Len(t, f.store.Notifications(), 1)
	assert.Contains(t, string(f.store.Notifications()[0].Metadata), `"action":"reapprove"`)
}

func TestReApprove_OnlyFromRejected(t *testing.T) {
	for _, status := range []dbm.PaymentRequestStatus{dbm.PaymentStatusPending, dbm.PaymentStatusApproved} {
		t.Run(string(status), func(t *testing.T) {
			f := newGrantFixture(t)
			id := f.seedRequest(t, status)

			_, err := f.svc.ReApprove(context.Background(), f.superAdmin, id, ReviewOptions{Notify: true})
			assert.ErrorIs(t, err, utils.ErrInvalidTransition)
			assert.Equal(t, status, f.status(t, id))
			assert.Empty(t, f.store.Notifications())
		})
	}
}

func TestReApprove_BlockedByNewerActiveRequest(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()
	first := f.seedRequest(t, dbm.PaymentStatusRejected)

	submissions := NewPaymentRequestService(f.store.PaymentRequests(), f.store.Products(), f.store.Grants(), zap.NewNop())
	second, err := submissions.Submit(ctx, f.buyer, submitBody(f))
	require.NoError(t, err)

	_, err = f.svc.ReApprove(ctx, f.superAdmin, first, ReviewOptions{Notify: true})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
	assert.NotErrorIs(t, err, utils.ErrPersistence)
	assert.Equal(t, dbm.PaymentStatusRejected, f.status(t, first))
	assert.Equal(t, dbm.PaymentStatusPending, f.status(t, second.ID))
	assert.False(t, f.hasGrant(t))
	assert.Empty(t, f.store.Notifications())

	// once the newer request is rejected too, the older one can be reapproved
	_, err = f.svc.Reject(ctx, f.admin, second.ID, ReviewOptions{})
	require.NoError(t, err)
	_, err = f.svc.ReApprove(ctx, f.superAdmin, first, ReviewOptions{})
	require.NoError(t, err)
	assert.Equal(t, dbm.PaymentStatusApproved, f.status(t, first))
	assert.True(t, f.hasGrant(t))
}

func TestReApprove_ActiveRequestCreatedDuringUpdate(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()
	first := f.seedRequest(t, dbm.PaymentStatusRejected)

	racing := &racingRequests{PaymentRequestRepository: f.store.PaymentRequests()}
	racing.race = func() {
		f.seedRequest(t, dbm.PaymentStatusPending)
	}
	svc := NewAccessGrantService(passthroughTx{}, racing, f.store.Grants(), f.store.NotificationRepo(), f.store.Accounts(), zap.NewNop())

	_, err := svc.ReApprove(ctx, f.superAdmin, first, ReviewOptions{Notify: true})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)
	assert.NotErrorIs(t, err, utils.ErrPersistence)
	assert.Equal(t, dbm.PaymentStatusRejected, f.status(t, first))
	assert.False(t, f.hasGrant(t))
	assert.Empty(t, f.store.Notifications())
}

// =============================================================================
// Reset
// =============================================================================

func TestReset_AnyStatusDeletesRequestAndGrant(t *testing.T) {
	for _, status := range []dbm.PaymentRequestStatus{dbm.PaymentStatusPending, dbm.PaymentStatusApproved, dbm.PaymentStatusRejected} {
		t.Run(string(status), func(t *testing.T) {
			f := newGrantFixture(t)
			ctx := context.Background()
			id := f.seedRequest(t, status)
			if status == dbm.PaymentStatusApproved {
				_, err := f.store.Grants().Ensure(ctx, f.buyer, f.product.ID)
				require.NoError(t, err)
			}

			require.NoError(t, f.svc.Reset(ctx, f.superAdmin, id, true))

			r, err := f.store.PaymentRequests().FindByID(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, r)
			assert.False(t, f.hasGrant(t))

			notes := f.store.Notifications()
			require.Len(t, notes, 1)
			assert.Equal(t, dbm.NotificationInfo, notes[0].Type)
			assert.Nil(t, notes[0].PaymentRequestID)

			ops := f.store.Ops()
			assert.Equal(t, []string{"grants.delete", "requests.delete", "notifications.create"}, ops[len(ops)-3:])
		})
	}
}

func TestReset_AllowsResubmission(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()
	id := f.seedRequest(t, dbm.PaymentStatusPending)

	require.NoError(t, f.svc.Reset(ctx, f.superAdmin, id, false))
	assert.Empty(t, f.store.Notifications())

	active, err := f.store.PaymentRequests().FindActiveForPair(ctx, f.buyer, f.product.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	submissions := NewPaymentRequestService(f.store.PaymentRequests(), f.store.Products(), f.store.Grants(), zap.NewNop())
	out, err := submissions.Submit(ctx, f.buyer, request_models.SubmitPaymentRequest{
		ProductID:     f.product.ID.String(),
		PaymentMethod: "custom",
		ContactMethod: "telegram",
		ContactValue:  "@buyer",
	})
	require.NoError(t, err)
	assert.NotEqual(t, id, out.ID)
	assert.Equal(t, "pending", out.Status)
}

func TestReset_UnknownRequest(t *testing.T) {
	f := newGrantFixture(t)
	err := f.svc.Reset(context.Background(), f.superAdmin, uuid.New(), true)
	assert.ErrorIs(t, err, utils.ErrPaymentRequestNotFound)
}

// =============================================================================
// Authorization
// =============================================================================

func TestSuperAdminOperations_RefuseAdmin(t *testing.T) {
	ctx := context.Background()
	cases := map[string]func(f *grantFixture, id uuid.UUID) error{
		"revoke": func(f *grantFixture, id uuid.UUID) error {
			_, err := f.svc.Revoke(ctx, f.admin, id, true)
			return err
		},
		"reapprove": func(f *grantFixture, id uuid.UUID) error {
			_, err := f.svc.ReApprove(ctx, f.admin, id, ReviewOptions{Notify: true})
			return err
		},
		"reset": func(f *grantFixture, id uuid.UUID) error {
			return f.svc.Reset(ctx, f.admin, id, true)
		},
	}

	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			f := newGrantFixture(t)
			id := f.seedRequest(t, dbm.PaymentStatusRejected)
			before := f.store.Ops()

			err := call(f, id)
			assert.ErrorIs(t, err, utils.ErrUnauthorized)
			assert.Equal(t, dbm.PaymentStatusRejected, f.status(t, id))
			assert.Equal(t, before, f.store.Ops())
			assert.Empty(t, f.store.Notifications())
		})
	}
}

func TestRevoke_AdminLeavesGrantInPlace(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()
	id := f.seedRequest(t, dbm.PaymentStatusPending)
	_, err := f.svc.Approve(ctx, f.admin, id, ReviewOptions{})
	require.NoError(t, err)
	require.True(t, f.hasGrant(t))
	before := f.store.Ops()

	_, err = f.svc.Revoke(ctx, f.admin, id, true)
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
	assert.Equal(t, dbm.PaymentStatusApproved, f.status(t, id))
	assert.True(t, f.hasGrant(t))
	assert.Equal(t, before, f.store.Ops())
	assert.Empty(t, f.store.Notifications())
}

func TestUnknownActorIsUnauthorized(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)

	_, err := f.svc.Approve(context.Background(), uuid.New(), id, ReviewOptions{})
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
}

func TestRoleLookupFailureIsPersistenceError(t *testing.T) {
	f := newGrantFixture(t)
	id := f.seedRequest(t, dbm.PaymentStatusPending)
	f.store.FailOn("accounts.role", errors.New("timeout"))

	_, err := f.svc.Approve(context.Background(), f.admin, id, ReviewOptions{})
	assert.ErrorIs(t, err, utils.ErrPersistence)
	assert.Equal(t, dbm.PaymentStatusPending, f.status(t, id))
}

// =============================================================================
// Concurrent modification
// =============================================================================

// racingRequests flips the stored status between the service's read and its
// conditional write.
type racingRequests struct {
	repositories.PaymentRequestRepository
	race func()
}

func (r *racingRequests) UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, expected, next dbm.PaymentRequestStatus, notes *string) (bool, error) {
	if r.race != nil {
		r.race()
		r.race = nil
	}
	return r.PaymentRequestRepository.UpdateStatusIfCurrent(ctx, id, expected, next, notes)
}

func TestApprove_LosesRaceToReject(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()
	id := f.seedRequest(t, dbm.PaymentStatusPending)

	racing := &racingRequests{PaymentRequestRepository: f.store.PaymentRequests()}
	racing.race = func() {
		ok, err := f.store.PaymentRequests().UpdateStatusIfCurrent(ctx, id, dbm.PaymentStatusPending, dbm.PaymentStatusRejected, nil)
		require.NoError(t, err)
		require.True(t, ok)
	}
	svc := NewAccessGrantService(passthroughTx{}, racing, f.store.Grants(), f.store.NotificationRepo(), f.store.Accounts(), zap.NewNop())

	_, err := svc.Approve(ctx, f.admin, id, ReviewOptions{Notify: true})
	assert.ErrorIs(t, err, utils.ErrConcurrentModification)
	assert.Equal(t, dbm.PaymentStatusRejected, f.status(t, id))
	assert.False(t, f.hasGrant(t))
	assert.Empty(t, f.store.Notifications())
}

func TestApprove_RequestDeletedMidFlight(t *testing.T) {
	f := newGrantFixture(t)
	ctx := context.Background()
	id := f.seedRequest(t, dbm.PaymentStatusPending)

	racing := &racingRequests{PaymentRequestRepository: f.store.PaymentRequests()}
	racing.race = func() {
		_, err := f.store.PaymentRequests().HardDelete(ctx, id)
		require.NoError(t, err)
	}
	svc := NewAccessGrantService(passthroughTx{}, racing, f.store.Grants(), f.store.NotificationRepo(), f.store.Accounts(), zap.NewNop())

	_, err := svc.Approve(ctx, f.admin, id, ReviewOptions{})
	assert.ErrorIs(t, err, utils.ErrPaymentRequestNotFound)
	assert.False(t, f.hasGrant(t))
}
