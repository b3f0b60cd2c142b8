package sqlite

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libris-app/libris/pkg/types"
)

func TestApplyPairedCommitsAllStatements(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Ferdydurke")

	results, err := s.ApplyPaired("test", []Statement{
		{SQL: `UPDATE books SET rating = ? WHERE book_id = ?`, Args: []any{3.5, book.BookID}},
		{SQL: `UPDATE books SET pages = ? WHERE book_id = ?`, Args: []any{290, book.BookID}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].RowsAffected)
	assert.Equal(t, int64(1), results[1].RowsAffected)

	got, err := s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, got.Rating)
	assert.Equal(t, 290, got.Pages)
}

func TestApplyPairedRollsBackOnFailure(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Ferdydurke")

	// The first statement succeeds, the second hits a missing column; the
	// first write must not survive.
	_, err := s.ApplyPaired("test", []Statement{
		{SQL: `UPDATE books SET rating = ? WHERE book_id = ?`, Args: []any{1.0, book.BookID}},
		{SQL: `UPDATE books SET no_such_column = 1 WHERE book_id = ?`, Args: []any{book.BookID}},
	})
	require.Error(t, err)

	var txErr *types.TransactionError
	require.True(t, errors.As(err, &txErr), "storage faults surface as TransactionError")
	assert.Equal(t, "test", txErr.Op)
	assert.Error(t, txErr.Unwrap())

	got, err := s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Rating, "rolled-back write must not be visible")
}

func TestApplyPairedGuardAbortsTransaction(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Ferdydurke")

	// Guard matches no row; the following write must be rolled back too.
	_, err := s.ApplyPaired("test", []Statement{
		{SQL: `UPDATE books SET available = 0 WHERE book_id = ? AND available = 0`, Args: []any{book.BookID}, Guard: true},
		{SQL: `UPDATE books SET rating = 0 WHERE book_id = ?`, Args: []any{book.BookID}},
	})
	assert.ErrorIs(t, err, types.ErrGuardNoEffect)

	var txErr *types.TransactionError
	assert.False(t, errors.As(err, &txErr), "a failed guard is a business outcome, not a storage fault")

	got, err := s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.True(t, got.Available)
	assert.Equal(t, 4.0, got.Rating)
}

func TestApplyPairedGuardOrderMatters(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Ferdydurke")

	// Guard appears second: the first statement executes, the guard
	// fails, and everything rolls back.
	_, err := s.ApplyPaired("test", []Statement{
		{SQL: `UPDATE books SET rating = 0 WHERE book_id = ?`, Args: []any{book.BookID}},
		{SQL: `DELETE FROM books WHERE book_id = 'missing'`, Guard: true},
	})
	assert.ErrorIs(t, err, types.ErrGuardNoEffect)

	got, err := s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Rating)
}

func TestApplyPairedReportsInsertID(t *testing.T) {
	s := setupStore(t)

	results, err := s.ApplyPaired("test", []Statement{
		{SQL: `INSERT INTO genres (genre_id, name, description, created_at) VALUES (?, ?, ?, ?)`,
			Args: []any{"g-1", "sci-fi", "", "2024-01-01T00:00:00Z"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].RowsAffected)
	assert.Positive(t, results[0].LastInsertID)
}
