// Package apperr defines the structured error kinds returned by the
// marketplace core. Every failure the front end may need to render is
// one of these; storage and transport errors are wrapped separately.
package apperr

import "errors"

type Kind string

const (
	KindForbidden         Kind = "FORBIDDEN"
	KindNotFound          Kind = "NOT_FOUND"
	KindAlreadyProcessed  Kind = "ALREADY_PROCESSED"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindOutOfStock        Kind = "OUT_OF_STOCK"
	KindBlocked           Kind = "BLOCKED"
	KindNotOwner          Kind = "NOT_OWNER"
	KindNotCancellable    Kind = "NOT_CANCELLABLE"
	KindDuplicatePhone    Kind = "DUPLICATE_PHONE"
	KindInvalid           Kind = "INVALID"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func Forbidden(message string) *Error {
	if message == "" {
		message = "this action is not allowed for your role"
	}
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *Error {
	if message == "" {
		message = "record not found"
	}
	return &Error{Kind: KindNotFound, Message: message}
}

func AlreadyProcessed(message string) *Error {
	if message == "" {
		message = "already processed"
	}
	return &Error{Kind: KindAlreadyProcessed, Message: message}
}

func InsufficientFunds(message string) *Error {
	if message == "" {
		message = "insufficient balance"
	}
	return &Error{Kind: KindInsufficientFunds, Message: message}
}

func OutOfStock(message string) *Error {
	if message == "" {
		message = "no accounts available"
	}
	return &Error{Kind: KindOutOfStock, Message: message}
}

func Blocked(message string) *Error {
	if message == "" {
		message = "account is blocked"
	}
	return &Error{Kind: KindBlocked, Message: message}
}

func NotOwner(message string) *Error {
	if message == "" {
		message = "you can only manage your own orders"
	}
	return &Error{Kind: KindNotOwner, Message: message}
}

func NotCancellable(message string) *Error {
	if message == "" {
		message = "order can no longer be cancelled"
	}
	return &Error{Kind: KindNotCancellable, Message: message}
}

func DuplicatePhone(message string) *Error {
	if message == "" {
		message = "phone number already in inventory"
	}
	return &Error{Kind: KindDuplicatePhone, Message: message}
}

func Invalid(message string) *Error {
	if message == "" {
		message = "invalid input"
	}
	return &Error{Kind: KindInvalid, Message: message}
}
