package service

import "errors"

var (
	// ErrNotFound is returned when the referenced invoice or user does not exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicateInvoiceNumber is returned when an invoice number is already taken
	ErrDuplicateInvoiceNumber = errors.New("duplicate invoice number")

	// ErrInvalidInvoiceNumber is returned when the invoice number is empty
	ErrInvalidInvoiceNumber = errors.New("invoice number is required")

	// ErrInvalidDateRange is returned when a due date precedes the issue date
	ErrInvalidDateRange = errors.New("due date precedes issue date")

	// ErrInvalidAmount is returned when the invoice amount is not positive
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidPosition is returned when the position is not a known classification
	ErrInvalidPosition = errors.New("invalid position")

	// ErrMissingSettlementData is returned when settling without date, amount and method
	ErrMissingSettlementData = errors.New("settlement date, amount and payment method are required")

	// ErrFieldNotMutable is returned when a field outside the allow-list is
	// updated directly; status and settlement fields only change through the
	// transition path
	ErrFieldNotMutable = errors.New("field cannot be updated directly")

	// ErrNotAllowed is returned when the acting user's role may not fire the transition
	ErrNotAllowed = errors.New("role not allowed to perform this transition")

	// ErrInvalidCredentials is returned on a failed login
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPersistence wraps failures originating from the storage layer.
	// It is the only retryable category; everything above is permanent
	// until the caller supplies different input.
	ErrPersistence = errors.New("persistence failure")
)
