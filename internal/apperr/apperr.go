// Package apperr holds the client-facing error taxonomy shared by the use
// cases and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidInput
	KindInsufficientStock
	KindInvalidState
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindInsufficientStock:
		return "INSUFFICIENT_STOCK"
	case KindInvalidState:
		return "INVALID_STATE"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	default:
		return "INTERNAL"
	}
}

// Error is a business-rule failure the caller can act on.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// Is compares kind and message so callers can write
// errors.Is(err, apperr.ErrNoActiveCart).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

var (
	ErrNoActiveCart = &Error{Kind: KindInvalidState, Message: "no active cart"}
	ErrEmptyCart    = &Error{Kind: KindInvalidState, Message: "cart is empty"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "order belongs to another user"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
)

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStock names the product and reports how much was asked for
// against how much is left.
func InsufficientStock(productID int, productName string, requested, available int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", productID, requested, available),
		Details: map[string]any{
			"productId":   productID,
			"productName": productName,
			"requested":   requested,
			"available":   available,
		},
	}
}

// KindOf reports the kind of err, KindInternal for anything unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
