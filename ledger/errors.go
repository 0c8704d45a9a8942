package ledger

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Kind is the machine-readable error classification surfaced to API clients.
// HTTP status mapping happens at the controller layer.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindNotFound            Kind = "NotFoundError"
	KindInsufficientFunds   Kind = "InsufficientFunds"
	KindInsufficientPending Kind = "InsufficientPending"
	KindComplianceBlocked   Kind = "ComplianceBlocked"
	KindAlreadyResolved     Kind = "AlreadyResolved"
	KindNotPending          Kind = "NotPending"
	KindTypeMismatch        Kind = "TypeMismatch"
	KindDuplicateReference  Kind = "DuplicateReference"
	KindAuthorization       Kind = "AuthorizationError"
)

// Error is a domain error with a stable kind and a human message. Any Error
// returned from inside an atomic unit aborts that unit entirely.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is lets errors.Is match two domain errors by kind, so callers can compare
// against the sentinel values below without caring about message text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is checks.
var (
	ErrWalletNotFound      = &Error{Kind: KindNotFound, Message: "wallet not found"}
	ErrTransactionNotFound = &Error{Kind: KindNotFound, Message: "transaction not found"}
	ErrPlanNotFound        = &Error{Kind: KindNotFound, Message: "investment plan not found"}
	ErrInsufficientFunds   = &Error{Kind: KindInsufficientFunds, Message: "insufficient available balance"}
	ErrInsufficientPending = &Error{Kind: KindInsufficientPending, Message: "insufficient pending balance"}
	ErrComplianceBlocked   = &Error{Kind: KindComplianceBlocked, Message: "withdrawal blocked pending KYC verification"}
	ErrNotPending          = &Error{Kind: KindNotPending, Message: "transaction is not pending"}
	ErrAlreadyResolved     = &Error{Kind: KindAlreadyResolved, Message: "transaction already resolved"}
	ErrTypeMismatch        = &Error{Kind: KindTypeMismatch, Message: "unexpected transaction type"}
	ErrDuplicateReference  = &Error{Kind: KindDuplicateReference, Message: "transaction reference already exists"}
)

// ValidationError builds a KindValidation error for malformed or out-of-range
// input detected before any mutation begins.
func ValidationError(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

// WrapDBError translates driver-level errors from transaction inserts into
// domain errors. A unique-index collision on reference becomes
// ErrDuplicateReference; anything else passes through unchanged.
func WrapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateReference
	}
	return err
}
