package types

import "time"

// Loan states. A loan is created active and ends in one of the two
// terminal states, returned or cancelled. Overdue is an open state: the
// book stays unavailable until the loan is returned or cancelled.
const (
	LoanActive    = "active"
	LoanReturned  = "returned"
	LoanOverdue   = "overdue"
	LoanCancelled = "cancelled"
)

// validLoanStates is the set of recognized loan state values.
var validLoanStates = map[string]bool{
	LoanActive:    true,
	LoanReturned:  true,
	LoanOverdue:   true,
	LoanCancelled: true,
}

// ValidLoanState reports whether s is a recognized loan state.
func ValidLoanState(s string) bool {
	return validLoanStates[s]
}

// Loan records one reader borrowing one book copy for a bounded period.
type Loan struct {
	LoanID     string     `db:"loan_id" json:"loan_id"`
	BookID     string     `db:"book_id" json:"book_id"`
	ReaderID   string     `db:"reader_id" json:"reader_id"`
	LoanedOn   time.Time  `db:"-" json:"loaned_on"`
	DueOn      time.Time  `db:"-" json:"due_on"`
	ReturnedOn *time.Time `db:"-" json:"returned_on,omitempty"`
	State      string     `db:"state" json:"state"`
	Note       string     `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time  `db:"-" json:"created_at"`

	// Populated on read for display; not persisted on the loans table.
	BookTitle  string `db:"book_title" json:"book_title,omitempty"`
	ReaderName string `db:"reader_name" json:"reader_name,omitempty"`
}

// Open reports whether the loan still holds the book, i.e. the state is
// active or overdue. Book availability must be false exactly when an open
// loan exists for the book.
func (l *Loan) Open() bool {
	return l.State == LoanActive || l.State == LoanOverdue
}

// MarkReturned transitions the loan to returned and records the actual
// return time. Returns ErrInvalidTransition when the loan is already in a
// terminal state. An overdue loan can still be returned.
func (l *Loan) MarkReturned(now time.Time) error {
	if !l.Open() {
		return ErrInvalidTransition
	}
	ret := now.UTC()
	l.State = LoanReturned
	l.ReturnedOn = &ret
	return nil
}

// MarkCancelled transitions the loan to cancelled. The return date stays
// unset. Returns ErrInvalidTransition when the loan is already in a
// terminal state. Cancelling an overdue loan is permitted, symmetric with
// MarkReturned: terminal states are the only guard.
func (l *Loan) MarkCancelled() error {
	if !l.Open() {
		return ErrInvalidTransition
	}
	l.State = LoanCancelled
	return nil
}

// MarkOverdue transitions an active loan to overdue when its due date is
// strictly before today. Returns ErrInvalidTransition otherwise: overdue,
// returned, and cancelled loans are never re-marked, which keeps the
// sweep idempotent.
func (l *Loan) MarkOverdue(today time.Time) error {
	if l.State != LoanActive {
		return ErrInvalidTransition
	}
	if !BeforeDay(l.DueOn, today) {
		return ErrInvalidTransition
	}
	l.State = LoanOverdue
	return nil
}

// BeforeDay reports whether the calendar day of a (in UTC) is strictly
// before the calendar day of b. Overdue detection compares whole days,
// not instants.
func BeforeDay(a, b time.Time) bool {
	return a.UTC().Format(time.DateOnly) < b.UTC().Format(time.DateOnly)
}
