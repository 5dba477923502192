package utils

import "errors"

var (
	ErrInvalidPage     = errors.New("invalid page parameter")
	ErrInvalidPageSize = errors.New("invalid page size parameter")

	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrProductNotFound     = errors.New("product not found")
	ErrProductInactive     = errors.New("product is not available for purchase")
	ErrNotificationMissing = errors.New("notification not found")

	ErrDuplicateActiveRequest = errors.New("an active payment request already exists for this product")
	ErrAlreadyHasAccess       = errors.New("user already has access to this product")
	ErrAccessDenied           = errors.New("no access grant for this product")
	ErrInvalidConfirmation    = errors.New("invalid or expired confirmation token")

	// Payment request lifecycle
	ErrPaymentRequestNotFound = errors.New("payment request not found")
	ErrInvalidTransition      = errors.New("invalid payment request transition")
	ErrUnauthorized           = errors.New("caller lacks the required role")
	ErrConcurrentModification = errors.New("payment request was modified concurrently")
	ErrPersistence            = errors.New("persistence error")
)
