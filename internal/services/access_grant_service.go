package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"storefront/internal/infra"
	dbm "storefront/internal/models/db_models"
	"storefront/internal/repositories"
	"storefront/pkg/metrics"
	"storefront/pkg/utils"
)

type ReviewOptions struct {
	Notes  *string
	Notify bool
}

// AccessGrantServiceInterface drives the payment request lifecycle and keeps
// user_product_access consistent with each request's status.
//
//	pending --approve--> approved --revoke--> pending
//	pending --reject--> rejected --reApprove--> approved
//	any --reset--> deleted
type AccessGrantServiceInterface interface {
	Approve(ctx context.Context, actorID, requestID uuid.UUID, opts ReviewOptions) (*dbm.PaymentRequest, error)
	Reject(ctx context.Context, actorID, requestID uuid.UUID, opts ReviewOptions) (*dbm.PaymentRequest, error)
	Revoke(ctx context.Context, actorID, requestID uuid.UUID, notify bool) (*dbm.PaymentRequest, error)
	ReApprove(ctx context.Context, actorID, requestID uuid.UUID, opts ReviewOptions) (*dbm.PaymentRequest, error)
	Reset(ctx context.Context, actorID, requestID uuid.UUID, notify bool) error
}

type accessGrantService struct {
	tx            infra.Transactor
	requests      repositories.PaymentRequestRepository
	grants        repositories.AccessGrantRepository
	notifications repositories.NotificationRepositoryInterface
	accounts      repositories.AccountRepository
	logger        *zap.Logger
}

func NewAccessGrantService(
	tx infra.Transactor,
	requests repositories.PaymentRequestRepository,
	grants repositories.AccessGrantRepository,
	notifications repositories.NotificationRepositoryInterface,
	accounts repositories.AccountRepository,
	logger *zap.Logger,
) AccessGrantServiceInterface {
	return &accessGrantService{
		tx:            tx,
		requests:      requests,
		grants:        grants,
		notifications: notifications,
		accounts:      accounts,
		logger:        logger.Named("access_grants"),
	}
}

type tier int

const (
	tierAdmin tier = iota
	tierSuperAdmin
)

var errActivePairTaken = fmt.Errorf("%w: another active request exists for this user and product", utils.ErrInvalidTransition)

func persistenceErr(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", utils.ErrPersistence, step, err)
}

func (s *accessGrantService) authorize(ctx context.Context, actorID uuid.UUID, required tier) error {
	role, err := s.accounts.FindRoleByID(ctx, actorID)
	if err != nil {
		return persistenceErr("role lookup", err)
	}
	switch required {
	case tierSuperAdmin:
		if !dbm.IsSuperAdmin(role) {
			return utils.ErrUnauthorized
		}
	default:
		if !dbm.IsAdmin(role) {
			return utils.ErrUnauthorized
		}
	}
	return nil
}

// run authorizes the actor, loads the request and applies fn inside one
// transaction. fn receives the loaded request and mutates it to match the writes.
func (s *accessGrantService) run(
	ctx context.Context,
	action string,
	actorID, requestID uuid.UUID,
	required tier,
	fn func(ctx context.Context, req *dbm.PaymentRequest) error,
) (*dbm.PaymentRequest, error) {
	log := s.logger.With(
		zap.String("action", action),
		zap.Stringer("request_id", requestID),
		zap.Stringer("actor_id", actorID),
	)

	var result *dbm.PaymentRequest
	err := s.authorize(ctx, actorID, required)
	if err == nil {
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			req, err := s.requests.FindByID(ctx, requestID)
			if err != nil {
				return persistenceErr("load request", err)
			}
			if req == nil {
				return utils.ErrPaymentRequestNotFound
			}
			if err := fn(ctx, req); err != nil {
				return err
			}
			result = req
			return nil
		})
	}

	metrics.PaymentRequestTransitions.WithLabelValues(action, resultLabel(err)).Inc()
	if err != nil {
		if errors.Is(err, utils.ErrPersistence) {
			log.Error("payment request operation failed", zap.Error(err))
		} else {
			log.Warn("payment request operation refused", zap.Error(err))
		}
		return nil, err
	}
	log.Info("payment request operation applied", zap.String("status", string(result.Status)))
	return result, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, utils.ErrPaymentRequestNotFound):
		return "not_found"
	case errors.Is(err, utils.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, utils.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, utils.ErrConcurrentModification):
		return "conflict"
	default:
		return "error"
	}
}

// transition performs the conditional status write. A miss means the row moved
// or vanished after it was loaded.
func (s *accessGrantService) transition(ctx context.Context, req *dbm.PaymentRequest, next dbm.PaymentRequestStatus, notes *string) error {
	ok, err := s.requests.UpdateStatusIfCurrent(ctx, req.ID, req.Status, next, notes)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// another request for the pair became active after the pre-check
		return errActivePairTaken
	}
	if err != nil {
		return persistenceErr("update status", err)
	}
	if !ok {
		current, err := s.requests.FindByID(ctx, req.ID)
		if err != nil {
			return persistenceErr("reload request", err)
		}
		if current == nil {
			return utils.ErrPaymentRequestNotFound
		}
		return utils.ErrConcurrentModification
	}

	s.logger.Debug("status updated",
		zap.Stringer("request_id", req.ID),
		zap.String("from", string(req.Status)),
		zap.String("to", string(next)))
	req.Status = next
	if notes != nil {
		n := *notes
		req.AdminNotes = &n
	}
	return nil
}

func (s *accessGrantService) ensureGrant(ctx context.Context, req *dbm.PaymentRequest) error {
	created, err := s.grants.Ensure(ctx, req.UserID, req.ProductID)
	if err != nil {
		return persistenceErr("create access grant", err)
	}
	s.logger.Debug("access grant ensured",
		zap.Stringer("request_id", req.ID),
		zap.Bool("created", created))
	return nil
}

func (s *accessGrantService) removeGrant(ctx context.Context, req *dbm.PaymentRequest) error {
	removed, err := s.grants.Delete(ctx, req.UserID, req.ProductID)
	if err != nil {
		return persistenceErr("delete access grant", err)
	}
	s.logger.Debug("access grant removed",
		zap.Stringer("request_id", req.ID),
		zap.Bool("existed", removed))
	return nil
}

func productTitle(req *dbm.PaymentRequest) string {
	if req.Product.Title != "" {
		return req.Product.Title
	}
	return req.ProductID.String()
}

func (s *accessGrantService) notify(ctx context.Context, req *dbm.PaymentRequest, action string, kind dbm.NotificationType, title, message string, withBackRef bool) error {
	meta, err := json.Marshal(map[string]any{
		"product_id":    req.ProductID,
		"product_title": productTitle(req),
		"action":        action,
	})
	if err != nil {
		return fmt.Errorf("encode notification metadata: %w", err)
	}

	n := &dbm.Notification{
		UserID:   req.UserID,
		Title:    title,
		Message:  message,
		Type:     kind,
		Metadata: datatypes.JSON(meta),
	}
	if withBackRef {
		id := req.ID
		n.PaymentRequestID = &id
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return persistenceErr("create notification", err)
	}
	return nil
}

func (s *accessGrantService) Approve(ctx context.Context, actorID, requestID uuid.UUID, opts ReviewOptions) (*dbm.PaymentRequest, error) {
	return s.run(ctx, "approve", actorID, requestID, tierAdmin, func(ctx context.Context, req *dbm.PaymentRequest) error {
		switch req.Status {
		case dbm.PaymentStatusApproved:
			// Retry after a partially applied approve: only the grant is re-ensured.
			return s.ensureGrant(ctx, req)
		case dbm.PaymentStatusPending:
		default:
			return fmt.Errorf("%w: approve from %s", utils.ErrInvalidTransition, req.Status)
		}
		return s.grantAccess(ctx, req, "approve", opts)
	})
}

func (s *accessGrantService) ReApprove(ctx context.Context, actorID, requestID uuid.UUID, opts ReviewOptions) (*dbm.PaymentRequest, error) {
	return s.run(ctx, "reapprove", actorID, requestID, tierSuperAdmin, func(ctx context.Context, req *dbm.PaymentRequest) error {
		if req.Status != dbm.PaymentStatusRejected {
			return fmt.Errorf("%w: reapprove from %s", utils.ErrInvalidTransition, req.Status)
		}
		// At most one pending or approved request per user and product.
		active, err := s.requests.FindActiveForPair(ctx, req.UserID, req.ProductID)
		if err != nil {
			return persistenceErr("find active request", err)
		}
		if active != nil && active.ID != req.ID {
			s.logger.Info("reapprove blocked by active request",
				zap.Stringer("request_id", req.ID),
				zap.Stringer("active_request_id", active.ID))
			return errActivePairTaken
		}
		return s.grantAccess(ctx, req, "reapprove", opts)
	})
}

// grantAccess flips the status first and only then writes the grant.
func (s *accessGrantService) grantAccess(ctx context.Context, req *dbm.PaymentRequest, action string, opts ReviewOptions) error {
	if err := s.transition(ctx, req, dbm.PaymentStatusApproved, opts.Notes); err != nil {
		return err
	}
	if err := s.ensureGrant(ctx, req); err != nil {
		return err
	}
	if !opts.Notify {
		return nil
	}
	return s.notify(ctx, req, action, dbm.NotificationSuccess,
		"Payment Approved",
		fmt.Sprintf("Your payment for %q has been approved. You can now download it.", productTitle(req)),
		true)
}

func (s *accessGrantService) Reject(ctx context.Context, actorID, requestID uuid.UUID, opts ReviewOptions) (*dbm.PaymentRequest, error) {
	return s.run(ctx, "reject", actorID, requestID, tierAdmin, func(ctx context.Context, req *dbm.PaymentRequest) error {
		if req.Status != dbm.PaymentStatusPending {
			return fmt.Errorf("%w: reject from %s", utils.ErrInvalidTransition, req.Status)
		}
		if err := s.transition(ctx, req, dbm.PaymentStatusRejected, opts.Notes); err != nil {
			return err
		}
		if !opts.Notify {
			return nil
		}
		msg := fmt.Sprintf("Your payment request for %q was rejected.", productTitle(req))
		if opts.Notes != nil && *opts.Notes != "" {
			msg += " Note: " + *opts.Notes
		}
		return s.notify(ctx, req, "reject", dbm.NotificationWarning, "Payment Rejected", msg, true)
	})
}

func (s *accessGrantService) Revoke(ctx context.Context, actorID, requestID uuid.UUID, notify bool) (*dbm.PaymentRequest, error) {
	return s.run(ctx, "revoke", actorID, requestID, tierSuperAdmin, func(ctx context.Context, req *dbm.PaymentRequest) error {
		if req.Status != dbm.PaymentStatusApproved {
			return fmt.Errorf("%w: revoke from %s", utils.ErrInvalidTransition, req.Status)
		}
		if err := s.removeGrant(ctx, req); err != nil {
			return err
		}
		// Back to pending, not rejected, so the request can be reconsidered.
		if err := s.transition(ctx, req, dbm.PaymentStatusPending, nil); err != nil {
			return err
		}
		if !notify {
			return nil
		}
		return s.notify(ctx, req, "revoke", dbm.NotificationError,
			"Access Revoked",
			fmt.Sprintf("Your access to %q has been revoked. Your payment request is back under review.", productTitle(req)),
			true)
	})
}

func (s *accessGrantService) Reset(ctx context.Context, actorID, requestID uuid.UUID, notify bool) error {
	_, err := s.run(ctx, "reset", actorID, requestID, tierSuperAdmin, func(ctx context.Context, req *dbm.PaymentRequest) error {
		// Grant goes first so a failure never leaves a grant behind a deleted request.
		if err := s.removeGrant(ctx, req); err != nil {
			return err
		}
		deleted, err := s.requests.HardDelete(ctx, req.ID)
		if err != nil {
			return persistenceErr("delete request", err)
		}
		if !deleted {
			return utils.ErrConcurrentModification
		}
		if !notify {
			return nil
		}
		return s.notify(ctx, req, "reset", dbm.NotificationInfo,
			"Payment Request Reset",
			fmt.Sprintf("Your payment request for %q has been reset. You can submit a new request.", productTitle(req)),
			false)
	})
	return err
}
