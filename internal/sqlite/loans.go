package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/libris-app/libris/pkg/types"
)

// The loan ledger. It is the sole writer of loans.state and
// books.available, and every state change pairs the two writes in one
// transaction through ApplyPaired: a book is unavailable exactly while an
// active or overdue loan references it.

type loanRow struct {
	LoanID     string         `db:"loan_id"`
	BookID     string         `db:"book_id"`
	ReaderID   string         `db:"reader_id"`
	LoanedOn   string         `db:"loaned_on"`
	DueOn      string         `db:"due_on"`
	ReturnedOn sql.NullString `db:"returned_on"`
	State      string         `db:"state"`
	Note       string         `db:"note"`
	CreatedAt  string         `db:"created_at"`
	BookTitle  string         `db:"book_title"`
	ReaderName string         `db:"reader_name"`
}

func (r loanRow) toLoan() (*types.Loan, error) {
	loanedOn, err := parseTime(r.LoanedOn)
	if err != nil {
		return nil, err
	}
	dueOn, err := parseTime(r.DueOn)
	if err != nil {
		return nil, err
	}
	returnedOn, err := parseTimePtr(r.ReturnedOn)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &types.Loan{
		LoanID:     r.LoanID,
		BookID:     r.BookID,
		ReaderID:   r.ReaderID,
		LoanedOn:   loanedOn,
		DueOn:      dueOn,
		ReturnedOn: returnedOn,
		State:      r.State,
		Note:       r.Note,
		CreatedAt:  createdAt,
		BookTitle:  r.BookTitle,
		ReaderName: r.ReaderName,
	}, nil
}

// LoanFilter narrows ListLoans. Zero values mean "any".
type LoanFilter struct {
	State    string
	BookID   string
	ReaderID string
}

// Checkout creates an active loan for the book and reader and flips the
// book to unavailable, as one atomic unit. Fails with ErrNotFound if book
// or reader is missing, ErrReaderInactive for a deactivated reader,
// ErrInvalidDueDate when dueOn precedes today, and ErrBookUnavailable when
// the book already has an open loan. The availability flip is a guarded
// statement in the same transaction as the insert, so a concurrent
// checkout of the same copy cannot slip between check and write.
func (s *Store) Checkout(bookID, readerID string, dueOn time.Time, note string) (*types.Loan, error) {
	book, err := s.GetBook(bookID)
	if err != nil {
		return nil, err
	}
	reader, err := s.GetReader(readerID)
	if err != nil {
		return nil, err
	}
	if !reader.Active {
		return nil, fmt.Errorf("reader %s: %w", readerID, types.ErrReaderInactive)
	}

	now := time.Now().UTC()
	if types.BeforeDay(dueOn, now) {
		return nil, fmt.Errorf("due %s: %w", dueOn.Format(time.DateOnly), types.ErrInvalidDueDate)
	}
	if !book.Available {
		return nil, fmt.Errorf("book %s: %w", bookID, types.ErrBookUnavailable)
	}

	loanID := generateUUID()
	stmts := []Statement{
		{
			SQL:   `UPDATE books SET available = 0 WHERE book_id = ? AND available = 1`,
			Args:  []any{bookID},
			Guard: true,
		},
		{
			SQL: `INSERT INTO loans (loan_id, book_id, reader_id, loaned_on, due_on, returned_on, state, note, created_at)
			      VALUES (?, ?, ?, ?, ?, NULL, ?, ?, ?)`,
			Args: []any{loanID, bookID, readerID, fmtTime(now), fmtTime(dueOn), types.LoanActive, note, fmtTime(now)},
		},
	}

	if _, err := s.ApplyPaired("checkout", stmts); err != nil {
		if errors.Is(err, types.ErrGuardNoEffect) {
			return nil, fmt.Errorf("book %s: %w", bookID, types.ErrBookUnavailable)
		}
		return nil, err
	}
	return s.GetLoan(loanID)
}

// Return transitions an open loan to returned, records the actual return
// time, and flips the book back to available, as one atomic unit. Fails
// with ErrInvalidTransition from returned or cancelled.
func (s *Store) Return(loanID string) (*types.Loan, error) {
	loan, err := s.GetLoan(loanID)
	if err != nil {
		return nil, err
	}

	prior := loan.State
	now := time.Now().UTC()
	if err := loan.MarkReturned(now); err != nil {
		return nil, fmt.Errorf("return loan %s in state %s: %w", loanID, prior, err)
	}

	stmts := []Statement{
		{
			SQL:   `UPDATE loans SET state = ?, returned_on = ? WHERE loan_id = ? AND state IN (?, ?)`,
			Args:  []any{types.LoanReturned, fmtTime(now), loanID, types.LoanActive, types.LoanOverdue},
			Guard: true,
		},
		{
			SQL:  `UPDATE books SET available = 1 WHERE book_id = ?`,
			Args: []any{loan.BookID},
		},
	}

	if _, err := s.ApplyPaired("return", stmts); err != nil {
		if errors.Is(err, types.ErrGuardNoEffect) {
			return nil, fmt.Errorf("return loan %s: %w", loanID, types.ErrInvalidTransition)
		}
		return nil, err
	}
	return s.GetLoan(loanID)
}

// Cancel transitions an open loan to cancelled and flips the book back to
// available, as one atomic unit. The return date stays unset. Fails with
// ErrInvalidTransition from returned or cancelled; cancelling an overdue
// loan is permitted.
func (s *Store) Cancel(loanID string) (*types.Loan, error) {
	loan, err := s.GetLoan(loanID)
	if err != nil {
		return nil, err
	}

	prior := loan.State
	if err := loan.MarkCancelled(); err != nil {
		return nil, fmt.Errorf("cancel loan %s in state %s: %w", loanID, prior, err)
	}

	stmts := []Statement{
		{
			SQL:   `UPDATE loans SET state = ? WHERE loan_id = ? AND state IN (?, ?)`,
			Args:  []any{types.LoanCancelled, loanID, types.LoanActive, types.LoanOverdue},
			Guard: true,
		},
		{
			SQL:  `UPDATE books SET available = 1 WHERE book_id = ?`,
			Args: []any{loan.BookID},
		},
	}

	if _, err := s.ApplyPaired("cancel", stmts); err != nil {
		if errors.Is(err, types.ErrGuardNoEffect) {
			return nil, fmt.Errorf("cancel loan %s: %w", loanID, types.ErrInvalidTransition)
		}
		return nil, err
	}
	return s.GetLoan(loanID)
}

// SweepOverdue marks every active loan whose due date is strictly before
// today as overdue and returns the number of loans reclassified. One
// statement, one transaction, so a reader never observes a half-swept
// ledger. Idempotent: a second sweep with the same day changes nothing.
// Book availability is not touched; an overdue loan still holds the copy.
func (s *Store) SweepOverdue(today time.Time) (int64, error) {
	results, err := s.ApplyPaired("sweep overdue", []Statement{
		{
			SQL:  `UPDATE loans SET state = ? WHERE state = ? AND date(due_on) < date(?)`,
			Args: []any{types.LoanOverdue, types.LoanActive, fmtTime(today)},
		},
	})
	if err != nil {
		return 0, err
	}
	return results[0].RowsAffected, nil
}

// selectLoanCols hydrates the display fields from books and readers.
const selectLoanCols = `SELECT l.loan_id, l.book_id, l.reader_id, l.loaned_on, l.due_on,
       l.returned_on, l.state, l.note, l.created_at,
       b.title AS book_title,
       r.first_name || ' ' || r.last_name AS reader_name
FROM loans l
JOIN books b ON l.book_id = b.book_id
JOIN readers r ON l.reader_id = r.reader_id`

// GetLoan retrieves a loan by ID with book title and reader name.
// Returns ErrNotFound if absent.
func (s *Store) GetLoan(id string) (*types.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	var row loanRow
	err := s.db.Get(&row, selectLoanCols+` WHERE l.loan_id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("loan %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting loan %s: %w", id, err)
	}
	return row.toLoan()
}

// ListLoans returns loans matching the filter, newest first. The variable
// WHERE clause is built with goqu.
func (s *Store) ListLoans(filter LoanFilter) ([]*types.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}

	if filter.State != "" && !types.ValidLoanState(filter.State) {
		return nil, fmt.Errorf("filter state %q: %w", filter.State, types.ErrInvalidState)
	}

	ds := dialect.From(goqu.T("loans").As("l")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("l.book_id").Eq(goqu.I("b.book_id")))).
		Join(goqu.T("readers").As("r"), goqu.On(goqu.I("l.reader_id").Eq(goqu.I("r.reader_id")))).
		Select(
			goqu.I("l.loan_id"), goqu.I("l.book_id"), goqu.I("l.reader_id"),
			goqu.I("l.loaned_on"), goqu.I("l.due_on"), goqu.I("l.returned_on"),
			goqu.I("l.state"), goqu.I("l.note"), goqu.I("l.created_at"),
			goqu.I("b.title").As("book_title"),
			goqu.L("r.first_name || ' ' || r.last_name").As("reader_name"),
		).
		Order(goqu.I("l.loaned_on").Desc())

	if filter.State != "" {
		ds = ds.Where(goqu.I("l.state").Eq(filter.State))
	}
	if filter.BookID != "" {
		ds = ds.Where(goqu.I("l.book_id").Eq(filter.BookID))
	}
	if filter.ReaderID != "" {
		ds = ds.Where(goqu.I("l.reader_id").Eq(filter.ReaderID))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building loan query: %w", err)
	}

	var rows []loanRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing loans: %w", err)
	}

	loans := make([]*types.Loan, 0, len(rows))
	for _, row := range rows {
		loan, err := row.toLoan()
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

// ListActiveLoans returns all active loans, newest first.
func (s *Store) ListActiveLoans() ([]*types.Loan, error) {
	return s.ListLoans(LoanFilter{State: types.LoanActive})
}

// ListOverdueLoans returns all overdue loans, newest first. Callers
// rendering an overdue view should run SweepOverdue first.
func (s *Store) ListOverdueLoans() ([]*types.Loan, error) {
	return s.ListLoans(LoanFilter{State: types.LoanOverdue})
}
