package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceIDOf(c *gin.Context) string {
	return c.GetString("trace_id")
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceIDOf(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceIDOf(c),
	})
}

type errorMapping struct {
	err     error
	code    int
	message string
}

// Order matters: ErrPersistence wraps the driver error, so domain errors are checked first.
var serviceErrors = []errorMapping{
	{ErrPaymentRequestNotFound, http.StatusNotFound, "Payment request not found"},
	{ErrInvalidTransition, http.StatusConflict, "This action is not allowed in the request's current state"},
	{ErrUnauthorized, http.StatusForbidden, "You don't have permission to perform this action"},
	{ErrConcurrentModification, http.StatusConflict, "The request was changed by another administrator, refresh and retry"},
	{ErrProductNotFound, http.StatusNotFound, "Product not found"},
	{ErrProductInactive, http.StatusBadRequest, "Product is not available for purchase"},
	{ErrDuplicateActiveRequest, http.StatusConflict, "You already have an active payment request for this product"},
	{ErrAlreadyHasAccess, http.StatusConflict, "You already have access to this product"},
	{ErrAccessDenied, http.StatusForbidden, "You don't have access to this product"},
	{ErrInvalidConfirmation, http.StatusBadRequest, "Confirmation token is invalid or expired"},
	{ErrNotificationMissing, http.StatusNotFound, "Notification not found"},
	{ErrAccountNotFound, http.StatusNotFound, "Account not found"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{ErrEmailAlreadyExists, http.StatusConflict, "Email already exists"},
	{ErrInvalidPage, http.StatusBadRequest, "Page must be greater than 0"},
	{ErrInvalidPageSize, http.StatusBadRequest, "Page size must be between 1 and 100"},
	{ErrPersistence, http.StatusServiceUnavailable, "A network or storage error occurred, please retry"},
}

func HandleServiceError(c *gin.Context, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			if m.code >= http.StatusInternalServerError {
				zap.L().Error("service error", zap.String("trace_id", traceIDOf(c)), zap.Error(err))
			}
			RespondError(c, m.code, m.message)
			return
		}
	}

	zap.L().Error("unknown error", zap.String("trace_id", traceIDOf(c)), zap.Error(err))
	RespondError(c, http.StatusInternalServerError, "Internal server error")
}
