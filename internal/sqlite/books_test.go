package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libris-app/libris/pkg/types"
)

func TestBookCRUD(t *testing.T) {
	s := setupStore(t)

	genre, err := s.CreateGenre(&types.Genre{Name: "sci-fi", Description: "speculative fiction"})
	require.NoError(t, err)

	book, err := s.CreateBook(&types.Book{
		Title:   "Solaris",
		ISBN:    "978-0156027601",
		Year:    1961,
		Pages:   204,
		Rating:  4.5,
		GenreID: &genre.GenreID,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, book.BookID)
	assert.True(t, book.Available, "new books are available")

	got, err := s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.Equal(t, "Solaris", got.Title)
	assert.Equal(t, "sci-fi", got.GenreName)
	require.NotNil(t, got.GenreID)
	assert.Equal(t, genre.GenreID, *got.GenreID)

	got.Title = "Solaris (revised)"
	got.Rating = 4.8
	updated, err := s.UpdateBook(got)
	require.NoError(t, err)
	assert.Equal(t, "Solaris (revised)", updated.Title)
	assert.Equal(t, 4.8, updated.Rating)

	require.NoError(t, s.DeleteBook(book.BookID))
	_, err = s.GetBook(book.BookID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBookValidationAtStore(t *testing.T) {
	s := setupStore(t)

	_, err := s.CreateBook(&types.Book{Title: ""})
	assert.ErrorIs(t, err, types.ErrInvalidTitle)
	_, err = s.CreateBook(&types.Book{Title: "X", Rating: 9})
	assert.ErrorIs(t, err, types.ErrInvalidRating)

	book := seedBook(t, s, "Solaris")
	book.Rating = -1
	_, err = s.UpdateBook(book)
	assert.ErrorIs(t, err, types.ErrInvalidRating)
}

func TestBookAuthorsOrdering(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Good Omens")

	pratchett, err := s.CreateAuthor(&types.Author{FirstName: "Terry", LastName: "Pratchett", Country: "UK"})
	require.NoError(t, err)
	gaiman, err := s.CreateAuthor(&types.Author{FirstName: "Neil", LastName: "Gaiman", Country: "UK"})
	require.NoError(t, err)

	require.NoError(t, s.SetBookAuthors(book.BookID, []string{gaiman.AuthorID, pratchett.AuthorID}))

	got, err := s.GetBook(book.BookID)
	require.NoError(t, err)
	require.Len(t, got.Authors, 2)
	assert.Equal(t, "Neil Gaiman", got.Authors[0].FullName())
	assert.Equal(t, "Terry Pratchett", got.Authors[1].FullName())

	// Replacing the list reorders it.
	require.NoError(t, s.SetBookAuthors(book.BookID, []string{pratchett.AuthorID, gaiman.AuthorID}))
	authors, err := s.BookAuthors(book.BookID)
	require.NoError(t, err)
	require.Len(t, authors, 2)
	assert.Equal(t, "Terry Pratchett", authors[0].FullName())

	// Unknown references are rejected up front.
	assert.ErrorIs(t, s.SetBookAuthors("missing", nil), types.ErrNotFound)
	assert.ErrorIs(t, s.SetBookAuthors(book.BookID, []string{"missing"}), types.ErrNotFound)

	// Deleting an author clears the association but keeps the book.
	require.NoError(t, s.DeleteAuthor(gaiman.AuthorID))
	authors, err = s.BookAuthors(book.BookID)
	require.NoError(t, err)
	assert.Len(t, authors, 1)
}

func TestSearchBooks(t *testing.T) {
	s := setupStore(t)
	seedBook(t, s, "The Left Hand of Darkness")
	seedBook(t, s, "A Wizard of Earthsea")
	seedBook(t, s, "The Dispossessed")

	found, err := s.SearchBooks("of")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = s.SearchBooks("earthsea")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "A Wizard of Earthsea", found[0].Title)

	found, err = s.SearchBooks("zzz")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestListAvailableBooks(t *testing.T) {
	s := setupStore(t)
	lent := seedBook(t, s, "Solaris")
	seedBook(t, s, "The Trial")
	reader := seedReader(t, s, "Jan", "Novak")

	_, err := s.Checkout(lent.BookID, reader.ReaderID, time.Now().UTC().Add(24*time.Hour), "")
	require.NoError(t, err)

	available, err := s.ListAvailableBooks()
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "The Trial", available[0].Title)

	all, err := s.ListBooks()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteGuards(t *testing.T) {
	s := setupStore(t)
	book := seedBook(t, s, "Solaris")
	reader := seedReader(t, s, "Jan", "Novak")

	loan, err := s.Checkout(book.BookID, reader.ReaderID, time.Now().UTC().Add(24*time.Hour), "")
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteBook(book.BookID), types.ErrHasOpenLoans)
	assert.ErrorIs(t, s.DeleteReader(reader.ReaderID), types.ErrHasOpenLoans)

	_, err = s.Return(loan.LoanID)
	require.NoError(t, err)

	// Closed history no longer blocks deletion.
	require.NoError(t, s.DeleteBook(book.BookID))
	require.NoError(t, s.DeleteReader(reader.ReaderID))
}
