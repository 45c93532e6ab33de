package ledger

import "errors"

// Domain errors. These are terminal for the invocation: the enclosing
// atomic unit has been rolled back and retrying without changed inputs
// cannot succeed.
var (
	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrAccountNotFound indicates an unknown account id.
	ErrAccountNotFound = errors.New("account not found")
	// ErrSenderNotFound indicates the transfer source does not exist.
	ErrSenderNotFound = errors.New("sender account not found")
	// ErrReceiverNotFound indicates the transfer destination does not exist.
	ErrReceiverNotFound = errors.New("receiver account not found")
	// ErrInsufficientFunds indicates the balance could not cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// StorageError wraps a failure of the underlying durable store. Unlike the
// domain errors above it may be transient, so callers can choose to retry
// the whole operation.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "storage failure: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsDomainErr reports whether err is one of the typed domain failures,
// as opposed to a storage failure.
func IsDomainErr(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrSenderNotFound) ||
		errors.Is(err, ErrReceiverNotFound) ||
		errors.Is(err, ErrInsufficientFunds)
}
