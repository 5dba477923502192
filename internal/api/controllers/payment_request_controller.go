package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	dbm "storefront/internal/models/db_models"
	"storefront/internal/models/request_models"
	resp "storefront/internal/models/response_models"
	"storefront/internal/services"
	mem "storefront/pkg/memcache"
	"storefront/pkg/utils"
)

type PaymentRequestController struct {
	requests   services.PaymentRequestServiceInterface
	lifecycle  services.AccessGrantServiceInterface
	confirms   mem.ConfirmationStore
	confirmTTL time.Duration
}

func NewPaymentRequestController(
	requests services.PaymentRequestServiceInterface,
	lifecycle services.AccessGrantServiceInterface,
	confirms mem.ConfirmationStore,
	confirmTTL time.Duration,
) *PaymentRequestController {
	return &PaymentRequestController{
		requests:   requests,
		lifecycle:  lifecycle,
		confirms:   confirms,
		confirmTTL: confirmTTL,
	}
}

func resetSubject(requestID, actorID uuid.UUID) string {
	return fmt.Sprintf("reset:%s:%s", requestID, actorID)
}

// Submit godoc
// @Summary Submit a payment request
// @Description Records a manual payment for a product. At most one pending or approved request per product.
// @Tags PaymentRequests
// @Accept json
// @Produce json
// @Param request body request_models.SubmitPaymentRequest true "Payment details"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payment-requests [post]
func (p *PaymentRequestController) Submit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req request_models.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	out, err := p.requests.Submit(c.Request.Context(), userID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, out, "Payment request submitted")
}

// ListMine godoc
// @Summary List my payment requests
// @Tags PaymentRequests
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payment-requests/mine [get]
func (p *PaymentRequestController) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	out, err := p.requests.ListMine(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, out, "Payment requests fetched successfully")
}

// List godoc
// @Summary List payment requests
// @Tags Admin
// @Produce json
// @Param status query string false "pending | approved | rejected"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20) minimum(1) maximum(100)
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/payment-requests [get]
func (p *PaymentRequestController) List(c *gin.Context) {
	page, pageSize, ok := pageParams(c)
	if !ok {
		return
	}

	var status *dbm.PaymentRequestStatus
	if s := c.Query("status"); s != "" {
		st := dbm.PaymentRequestStatus(s)
		switch st {
		case dbm.PaymentStatusPending, dbm.PaymentStatusApproved, dbm.PaymentStatusRejected:
			status = &st
		default:
			utils.RespondError(c, http.StatusBadRequest, "status must be one of: pending, approved, rejected")
			return
		}
	}

	out, err := p.requests.List(c.Request.Context(), status, page, pageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, out, "Payment requests fetched successfully")
}

// Get godoc
// @Summary Get a payment request
// @Tags Admin
// @Produce json
// @Param id path string true "Payment request ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/payment-requests/{id} [get]
func (p *PaymentRequestController) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	out, err := p.requests.Get(c.Request.Context(), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, out, "Payment request fetched successfully")
}

type reviewFunc func(c *gin.Context, actorID, requestID uuid.UUID, opts services.ReviewOptions) (*dbm.PaymentRequest, error)

func (p *PaymentRequestController) review(c *gin.Context, notifyDefault bool, message string, fn reviewFunc) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var body request_models.ReviewPaymentRequest
	if !bindOptionalJSON(c, &body) {
		return
	}

	out, err := fn(c, actorID, requestID, services.ReviewOptions{
		Notes:  body.AdminNotes,
		Notify: boolOr(body.Notify, notifyDefault),
	})
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, services.ToPaymentRequestResponse(*out), message)
}

// Approve godoc
// @Summary Approve a pending payment request
// @Description Sets status to approved, grants product access and notifies the purchaser (notify defaults to true).
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Payment request ID"
// @Param request body request_models.ReviewPaymentRequest false "Notes and notify flag"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/payment-requests/{id}/approve [post]
func (p *PaymentRequestController) Approve(c *gin.Context) {
	p.review(c, true, "Payment request approved", func(c *gin.Context, actorID, requestID uuid.UUID, opts services.ReviewOptions) (*dbm.PaymentRequest, error) {
		return p.lifecycle.Approve(c.Request.Context(), actorID, requestID, opts)
	})
}

// Reject godoc
// @Summary Reject a pending payment request
// @Description notify defaults to false.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Payment request ID"
// @Param request body request_models.ReviewPaymentRequest false "Notes and notify flag"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/payment-requests/{id}/reject [post]
func (p *PaymentRequestController) Reject(c *gin.Context) {
	p.review(c, false, "Payment request rejected", func(c *gin.Context, actorID, requestID uuid.UUID, opts services.ReviewOptions) (*dbm.PaymentRequest, error) {
		return p.lifecycle.Reject(c.Request.Context(), actorID, requestID, opts)
	})
}

// ReApprove godoc
// @Summary Re-approve a rejected payment request
// @Description Super admin only.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Payment request ID"
// @Param request body request_models.ReviewPaymentRequest false "Notes and notify flag"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/payment-requests/{id}/reapprove [post]
func (p *PaymentRequestController) ReApprove(c *gin.Context) {
	p.review(c, true, "Payment request re-approved", func(c *gin.Context, actorID, requestID uuid.UUID, opts services.ReviewOptions) (*dbm.PaymentRequest, error) {
		return p.lifecycle.ReApprove(c.Request.Context(), actorID, requestID, opts)
	})
}

// Revoke godoc
// @Summary Revoke access for an approved request
// @Description Super admin only. Deletes the access grant and moves the request back to pending.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Payment request ID"
// @Param request body request_models.RevokeAccessRequest false "Notify flag"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/payment-requests/{id}/revoke [post]
func (p *PaymentRequestController) Revoke(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var body request_models.RevokeAccessRequest
	if !bindOptionalJSON(c, &body) {
		return
	}

	out, err := p.lifecycle.Revoke(c.Request.Context(), actorID, requestID, boolOr(body.Notify, true))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, services.ToPaymentRequestResponse(*out), "Access revoked")
}

// ConfirmReset godoc
// @Summary Issue a reset confirmation token
// @Description Super admin only. The token is single use and bound to this request and caller.
// @Tags Admin
// @Produce json
// @Param id path string true "Payment request ID"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/payment-requests/{id}/reset/confirm [post]
func (p *PaymentRequestController) ConfirmReset(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	token := uuid.NewString()
	p.confirms.Set(token, resetSubject(requestID, actorID), p.confirmTTL)

	utils.RespondSuccess(c, resp.ResetConfirmation{
		Token:     token,
		ExpiresIn: int64(p.confirmTTL / time.Second),
	}, "Confirm the reset with this token")
}

// Reset godoc
// @Summary Reset a payment request
// @Description Super admin only. Deletes the access grant and the request itself so the purchaser can submit again.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Payment request ID"
// @Param request body request_models.ResetPaymentRequest true "Confirmation token and notify flag"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/payment-requests/{id}/reset [post]
func (p *PaymentRequestController) Reset(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var body request_models.ResetPaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if !p.confirms.Consume(body.ConfirmationToken, resetSubject(requestID, actorID)) {
		utils.HandleServiceError(c, utils.ErrInvalidConfirmation)
		return
	}

	if err := p.lifecycle.Reset(c.Request.Context(), actorID, requestID, boolOr(body.Notify, true)); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, gin.H{"id": requestID}, "Payment request reset")
}
