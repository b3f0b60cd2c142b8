package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libris-app/libris/pkg/types"
)

func TestGenreCRUD(t *testing.T) {
	s := setupStore(t)

	genre, err := s.CreateGenre(&types.Genre{Name: "noir", Description: "hard-boiled"})
	require.NoError(t, err)

	byName, err := s.GetGenreByName("noir")
	require.NoError(t, err)
	assert.Equal(t, genre.GenreID, byName.GenreID)

	_, err = s.GetGenreByName("western")
	assert.ErrorIs(t, err, types.ErrNotFound)

	genre.Description = "crime fiction"
	_, err = s.UpdateGenre(genre)
	require.NoError(t, err)

	genres, err := s.ListGenres()
	require.NoError(t, err)
	require.Len(t, genres, 1)
	assert.Equal(t, "crime fiction", genres[0].Description)

	// Deleting a genre orphans the book reference, not the book.
	book, err := s.CreateBook(&types.Book{Title: "The Big Sleep", GenreID: &genre.GenreID})
	require.NoError(t, err)
	require.NoError(t, s.DeleteGenre(genre.GenreID))

	got, err := s.GetBook(book.BookID)
	require.NoError(t, err)
	assert.Nil(t, got.GenreID)
	assert.Empty(t, got.GenreName)
}

func TestAuthorCRUD(t *testing.T) {
	s := setupStore(t)

	birth := time.Date(1920, 1, 2, 0, 0, 0, 0, time.UTC)
	author, err := s.CreateAuthor(&types.Author{
		FirstName: "Isaac",
		LastName:  "Asimov",
		BirthDate: &birth,
		Country:   "US",
	})
	require.NoError(t, err)

	got, err := s.GetAuthor(author.AuthorID)
	require.NoError(t, err)
	require.NotNil(t, got.BirthDate)
	assert.Equal(t, birth, *got.BirthDate)

	got.Country = "USA"
	_, err = s.UpdateAuthor(got)
	require.NoError(t, err)

	authors, err := s.ListAuthors()
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, "USA", authors[0].Country)

	require.NoError(t, s.DeleteAuthor(author.AuthorID))
	assert.ErrorIs(t, s.DeleteAuthor(author.AuthorID), types.ErrNotFound)
}

func TestReaderCRUD(t *testing.T) {
	s := setupStore(t)

	reader, err := s.CreateReader(&types.Reader{FirstName: "Jan", LastName: "Novak", Email: "jan@example.com", Active: true})
	require.NoError(t, err)
	assert.NotNil(t, reader.RegisteredOn, "registration date defaults to today")

	reader.Active = false
	_, err = s.UpdateReader(reader)
	require.NoError(t, err)

	all, err := s.ListReaders()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	active, err := s.ListActiveReaders()
	require.NoError(t, err)
	assert.Empty(t, active)

	got, err := s.GetReader(reader.ReaderID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	require.NoError(t, s.DeleteReader(reader.ReaderID))
	_, err = s.GetReader(reader.ReaderID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
