package types

import (
	"errors"
	"fmt"
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Lookup and input errors.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidName = errors.New("name must not be empty")
)

// Validation errors.
var (
	ErrInvalidTitle   = errors.New("title must not be empty")
	ErrInvalidRating  = errors.New("rating must be between 0 and 5")
	ErrInvalidYear    = errors.New("publication year is out of range")
	ErrInvalidPages   = errors.New("page count must be positive")
	ErrInvalidDueDate = errors.New("due date must not precede the loan date")
)

// Circulation errors. ErrBookUnavailable is the conflict raised by a
// checkout against a book that already has an open loan; ErrHasOpenLoans
// guards deletion of books and readers that are still referenced by an
// active or overdue loan.
var (
	ErrBookUnavailable   = errors.New("book is not available")
	ErrReaderInactive    = errors.New("reader is not active")
	ErrHasOpenLoans      = errors.New("entity has open loans")
	ErrInvalidState      = errors.New("invalid loan state value")
	ErrInvalidTransition = errors.New("invalid loan state transition")
)

// ErrGuardNoEffect is returned by the transactional writer when a guarded
// statement affects zero rows. The whole transaction is rolled back. It is
// a business outcome, not a storage fault: the loan ledger maps it to the
// conflict sentinel of the operation that built the statement.
var ErrGuardNoEffect = errors.New("guarded statement affected no rows")

// TransactionError is the fault channel for storage failures inside a
// paired write. It always means the transaction was fully rolled back and
// no partial write is visible. Business errors (ErrBookUnavailable,
// ErrInvalidTransition, ErrGuardNoEffect) are never wrapped in it, so
// callers can branch on kind with errors.As.
type TransactionError struct {
	Op  string // operation being applied, e.g. "checkout" or "commit"
	Err error  // underlying driver fault
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s: %v (rolled back)", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
