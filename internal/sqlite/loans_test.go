package sqlite

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libris-app/libris/pkg/types"
)

// assertAvailabilityInvariant checks that every book is available exactly
// when no open loan references it.
func assertAvailabilityInvariant(t *testing.T, s *Store) {
	t.Helper()
	var violations int
	err := s.db.Get(&violations, `
SELECT COUNT(*) FROM books b
WHERE b.available <> (CASE WHEN EXISTS (
    SELECT 1 FROM loans l WHERE l.book_id = b.book_id AND l.state IN ('active', 'overdue')
) THEN 0 ELSE 1 END)`)
	require.NoError(t, err)
	assert.Zero(t, violations, "book availability disagrees with open loans")
}

func TestCheckout(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Solaris")
	reader := seedReader(t, s, "Jan", "Novak")
	due := time.Now().UTC().Add(14 * 24 * time.Hour)

	loan, err := s.Checkout(book.BookID, reader.ReaderID, due, "summer reading")
	require.NoError(t, err)

	assert.NotEmpty(t, loan.LoanID)
	assert.Equal(t, types.LoanActive, loan.State)
	assert.Equal(t, book.BookID, loan.BookID)
	assert.Equal(t, reader.ReaderID, loan.ReaderID)
	assert.Nil(t, loan.ReturnedOn)
	assert.Equal(t, "summer reading", loan.Note)
	assert.Equal(t, "Solaris", loan.BookTitle)
	assert.Equal(t, "Jan Novak", loan.ReaderName)

	got, err := s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.False(t, got.Available)
	assertAvailabilityInvariant(t, s)
}

func TestCheckoutConflictLeavesStateUnchanged(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Solaris")
	first := seedReader(t, s, "Jan", "Novak")
	second := seedReader(t, s, "Eva", "Mala")
	due := time.Now().UTC().Add(7 * 24 * time.Hour)

	_, err := s.Checkout(book.BookID, first.ReaderID, due, "")
	require.NoError(t, err)

	_, err = s.Checkout(book.BookID, second.ReaderID, due, "")
	assert.ErrorIs(t, err, types.ErrBookUnavailable)

	loans, err := s.ListLoans(LoanFilter{BookID: book.BookID})
	require.NoError(t, err)
	assert.Len(t, loans, 1, "the failed checkout must not create a loan")
	assertAvailabilityInvariant(t, s)
}

func TestCheckoutValidation(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Solaris")
	reader := seedReader(t, s, "Jan", "Novak")
	due := time.Now().UTC().Add(7 * 24 * time.Hour)

	t.Run("unknown book", func(t *testing.T) {
		_, err := s.Checkout("missing", reader.ReaderID, due, "")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("unknown reader", func(t *testing.T) {
		_, err := s.Checkout(book.BookID, "missing", due, "")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("inactive reader", func(t *testing.T) {
		inactive := seedReader(t, s, "Petr", "Stary")
		inactive.Active = false
		_, err := s.UpdateReader(inactive)
		require.NoError(t, err)

		_, err = s.Checkout(book.BookID, inactive.ReaderID, due, "")
		assert.ErrorIs(t, err, types.ErrReaderInactive)
	})

	t.Run("due date in the past", func(t *testing.T) {
		_, err := s.Checkout(book.BookID, reader.ReaderID, time.Now().UTC().Add(-48*time.Hour), "")
		assert.ErrorIs(t, err, types.ErrInvalidDueDate)
	})

	// None of the rejected checkouts may have touched the book.
	got, err := s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.True(t, got.Available)
}

func TestReturn(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Solaris")
	reader := seedReader(t, s, "Jan", "Novak")
	due := time.Now().UTC().Add(7 * 24 * time.Hour)

	loan, err := s.Checkout(book.BookID, reader.ReaderID, due, "")
	require.NoError(t, err)

	returned, err := s.Return(loan.LoanID)
	require.NoError(t, err)
	assert.Equal(t, types.LoanReturned, returned.State)
	require.NotNil(t, returned.ReturnedOn)

	got, err := s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.True(t, got.Available)
	assertAvailabilityInvariant(t, s)

	// Returned is terminal.
	_, err = s.Return(loan.LoanID)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)
	_, err = s.Cancel(loan.LoanID)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Solaris")
	reader := seedReader(t, s, "Jan", "Novak")
	due := time.Now().UTC().Add(7 * 24 * time.Hour)

	loan, err := s.Checkout(book.BookID, reader.ReaderID, due, "")
	require.NoError(t, err)

	cancelled, err := s.Cancel(loan.LoanID)
	require.NoError(t, err)
	assert.Equal(t, types.LoanCancelled, cancelled.State)
	assert.Nil(t, cancelled.ReturnedOn, "cancellation records no return date")

	got, err := s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.True(t, got.Available)
	assertAvailabilityInvariant(t, s)

	// Cancelled is terminal; the book can be checked out again.
	_, err = s.Return(loan.LoanID)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	_, err = s.Checkout(book.BookID, reader.ReaderID, due, "")
	require.NoError(t, err)
}

func TestSweepOverdue(t *testing.T) {
	s := setupStore(t)
	pastDue := seedBook(t, s, "Solaris")
	onTime := seedBook(t, s, "The Trial")
	reader := seedReader(t, s, "Jan", "Novak")
	other := seedReader(t, s, "Eva", "Mala")

	now := time.Now().UTC()
	loan, err := s.Checkout(pastDue.BookID, reader.ReaderID, now, "")
	require.NoError(t, err)
	_, err = s.Checkout(onTime.BookID, other.ReaderID, now.Add(30*24*time.Hour), "")
	require.NoError(t, err)

	sweepDay := now.Add(48 * time.Hour)

	count, err := s.SweepOverdue(sweepDay)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	swept, err := s.GetLoan(loan.LoanID)
	require.NoError(t, err)
	assert.Equal(t, types.LoanOverdue, swept.State)

	// The book stays unavailable while overdue.
	got, err := s.GetBook(pastDue.BookID)
	require.NoError(t, err)
	assert.False(t, got.Available)

	// Loans due on or after the sweep day are untouched.
	untouched, err := s.ListActiveLoans()
	require.NoError(t, err)
	assert.Len(t, untouched, 1)

	// Idempotent: a second sweep with the same day changes nothing.
	count, err = s.SweepOverdue(sweepDay)
	require.NoError(t, err)
	assert.Zero(t, count)
	assertAvailabilityInvariant(t, s)
}

func TestSweepDueTodayIsNotOverdue(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Solaris")
	reader := seedReader(t, s, "Jan", "Novak")

	now := time.Now().UTC()
	loan, err := s.Checkout(book.BookID, reader.ReaderID, now, "")
	require.NoError(t, err)

	// Strictly-before comparison: due today is not yet overdue.
	count, err := s.SweepOverdue(now)
	require.NoError(t, err)
	assert.Zero(t, count)

	got, err := s.GetLoan(loan.LoanID)
	require.NoError(t, err)
	assert.Equal(t, types.LoanActive, got.State)
}

func TestReturnAndCancelFromOverdue(t *testing.T) {
	s := setupStore(t)
	reader := seedReader(t, s, "Jan", "Novak")
	now := time.Now().UTC()

	makeOverdue := func(title string) *types.Loan {
		book := seedBook(t, s, title)
		loan, err := s.Checkout(book.BookID, reader.ReaderID, now, "")
		require.NoError(t, err)
		_, err = s.SweepOverdue(now.Add(48 * time.Hour))
		require.NoError(t, err)
		loan, err = s.GetLoan(loan.LoanID)
		require.NoError(t, err)
		require.Equal(t, types.LoanOverdue, loan.State)
		return loan
	}

	t.Run("return", func(t *testing.T) {
		loan := makeOverdue("Solaris")
		returned, err := s.Return(loan.LoanID)
		require.NoError(t, err)
		assert.Equal(t, types.LoanReturned, returned.State)
		assert.NotNil(t, returned.ReturnedOn)
		assertAvailabilityInvariant(t, s)
	})

	t.Run("cancel", func(t *testing.T) {
		loan := makeOverdue("The Trial")
		cancelled, err := s.Cancel(loan.LoanID)
		require.NoError(t, err)
		assert.Equal(t, types.LoanCancelled, cancelled.State)
		assert.Nil(t, cancelled.ReturnedOn)
		assertAvailabilityInvariant(t, s)
	})
}

// TestCheckoutSweepReturnLifecycle walks one loan through checkout,
// overdue sweep, and late return, checking the book flag at each step.
func TestCheckoutSweepReturnLifecycle(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Solaris")
	reader := seedReader(t, s, "Jan", "Novak")
	now := time.Now().UTC()

	loan, err := s.Checkout(book.BookID, reader.ReaderID, now, "")
	require.NoError(t, err)
	got, err := s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.False(t, got.Available)

	count, err := s.SweepOverdue(now.Add(24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	swept, err := s.GetLoan(loan.LoanID)
	require.NoError(t, err)
	assert.Equal(t, types.LoanOverdue, swept.State)
	got, err = s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.False(t, got.Available, "overdue does not release the copy")

	returned, err := s.Return(loan.LoanID)
	require.NoError(t, err)
	assert.Equal(t, types.LoanReturned, returned.State)
	require.NotNil(t, returned.ReturnedOn)
	got, err = s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.True(t, got.Available)
	assertAvailabilityInvariant(t, s)
}

// TestCheckoutStorageFaultRollsBack simulates the checkout pair failing
// after the availability flip: nothing of the pair may be visible.
func TestCheckoutStorageFaultRollsBack(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Solaris")

	_, err := s.ApplyPaired("checkout", []Statement{
		{
			SQL:   `UPDATE books SET available = 0 WHERE book_id = ? AND available = 1`,
			Args:  []any{book.BookID},
			Guard: true,
		},
		{
			// Broken insert stands in for a driver fault mid-pair.
			SQL:  `INSERT INTO loans (loan_id) VALUES (?)`,
			Args: []any{"partial"},
		},
	})
	require.Error(t, err)
	var txErr *types.TransactionError
	require.True(t, errors.As(err, &txErr))

	got, err := s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.True(t, got.Available, "availability flip must be rolled back")

	loans, err := s.ListLoans(LoanFilter{BookID: book.BookID})
	require.NoError(t, err)
	assert.Empty(t, loans, "no loan row survives the rollback")
}

func TestListLoansFilters(t *testing.T) {
	s := setupStore(t)
	bookA := seedBook(t, s, "Solaris")
	bookB := seedBook(t, s, "The Trial")
	alice := seedReader(t, s, "Alice", "Prvni")
	bob := seedReader(t, s, "Bob", "Druhy")
	due := time.Now().UTC().Add(7 * 24 * time.Hour)

	loanA, err := s.Checkout(bookA.BookID, alice.ReaderID, due, "")
	require.NoError(t, err)
	loanB, err := s.Checkout(bookB.BookID, bob.ReaderID, due, "")
	require.NoError(t, err)
	_, err = s.Return(loanB.LoanID)
	require.NoError(t, err)

	active, err := s.ListActiveLoans()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, loanA.LoanID, active[0].LoanID)

	byReader, err := s.ListLoans(LoanFilter{ReaderID: bob.ReaderID})
	require.NoError(t, err)
	require.Len(t, byReader, 1)
	assert.Equal(t, loanB.LoanID, byReader[0].LoanID)

	byBook, err := s.ListLoans(LoanFilter{BookID: bookA.BookID})
	require.NoError(t, err)
	require.Len(t, byBook, 1)

	all, err := s.ListLoans(LoanFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.ListLoans(LoanFilter{State: "lost"})
	assert.ErrorIs(t, err, types.ErrInvalidState)
}
