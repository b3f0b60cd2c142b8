package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/libris-app/libris/pkg/types"
)

type bookRow struct {
	BookID    string          `db:"book_id"`
	Title     string          `db:"title"`
	ISBN      string          `db:"isbn"`
	Year      int             `db:"year"`
	Pages     int             `db:"pages"`
	Rating    float64         `db:"rating"`
	Available bool            `db:"available"`
	GenreID   sql.NullString  `db:"genre_id"`
	CreatedAt string          `db:"created_at"`
	GenreName sql.NullString  `db:"genre_name"`
}

func (r bookRow) toBook() (*types.Book, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	book := &types.Book{
		BookID:    r.BookID,
		Title:     r.Title,
		ISBN:      r.ISBN,
		Year:      r.Year,
		Pages:     r.Pages,
		Rating:    r.Rating,
		Available: r.Available,
		CreatedAt: createdAt,
		GenreName: r.GenreName.String,
	}
	if r.GenreID.Valid {
		genreID := r.GenreID.String
		book.GenreID = &genreID
	}
	return book, nil
}

// selectBookCols joins the genre name in; every book read goes through it.
const selectBookCols = `SELECT b.book_id, b.title, b.isbn, b.year, b.pages, b.rating,
       b.available, b.genre_id, b.created_at, g.name AS genre_name
FROM books b
LEFT JOIN genres g ON b.genre_id = g.genre_id`

// CreateBook inserts a new book and returns it with its generated ID.
// New books are available; only the loan ledger flips the flag afterwards.
func (s *Store) CreateBook(book *types.Book) (*types.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}

	book.BookID = generateUUID()
	book.Available = true
	book.CreatedAt = time.Now().UTC()

	var genreID any
	if book.GenreID != nil {
		genreID = *book.GenreID
	}

	_, err := s.db.Exec(
		`INSERT INTO books (book_id, title, isbn, year, pages, rating, available, genre_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		book.BookID, book.Title, book.ISBN, book.Year, book.Pages,
		book.Rating, genreID, fmtTime(book.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("creating book: %w", err)
	}
	return book, nil
}

// GetBook retrieves a book by ID with its genre name and ordered authors.
// Returns ErrNotFound if absent.
func (s *Store) GetBook(id string) (*types.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	return s.getBookLocked(id)
}

// getBookLocked is GetBook without lock management, for callers already
// holding s.mu.
func (s *Store) getBookLocked(id string) (*types.Book, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}

	var row bookRow
	err := s.db.Get(&row, selectBookCols+` WHERE b.book_id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting book %s: %w", id, err)
	}

	book, err := row.toBook()
	if err != nil {
		return nil, err
	}
	authors, err := s.bookAuthorsLocked(id)
	if err != nil {
		return nil, err
	}
	book.Authors = authors
	return book, nil
}

// ListBooks returns all books ordered by title.
func (s *Store) ListBooks() ([]*types.Book, error) {
	return s.fetchBooks(selectBookCols + ` ORDER BY b.title`)
}

// ListAvailableBooks returns books with no open loan, ordered by title.
func (s *Store) ListAvailableBooks() ([]*types.Book, error) {
	return s.fetchBooks(selectBookCols + ` WHERE b.available = 1 ORDER BY b.title`)
}

// SearchBooks returns books whose title contains the term, ordered by
// title. The WHERE clause is built with goqu so the pattern stays a bound
// parameter.
func (s *Store) SearchBooks(term string) ([]*types.Book, error) {
	ds := dialect.From(goqu.T("books").As("b")).
		LeftJoin(goqu.T("genres").As("g"), goqu.On(goqu.I("b.genre_id").Eq(goqu.I("g.genre_id")))).
		Select(
			goqu.I("b.book_id"), goqu.I("b.title"), goqu.I("b.isbn"), goqu.I("b.year"),
			goqu.I("b.pages"), goqu.I("b.rating"), goqu.I("b.available"),
			goqu.I("b.genre_id"), goqu.I("b.created_at"),
			goqu.I("g.name").As("genre_name"),
		).
		Where(goqu.I("b.title").Like("%" + term + "%")).
		Order(goqu.I("b.title").Asc())

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building book search: %w", err)
	}
	return s.fetchBooks(query, args...)
}

func (s *Store) fetchBooks(query string, args ...any) ([]*types.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}

	var rows []bookRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetching books: %w", err)
	}

	books := make([]*types.Book, 0, len(rows))
	for _, row := range rows {
		book, err := row.toBook()
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// UpdateBook updates the caller-editable fields. Availability is owned by
// the loan ledger and deliberately not written here. Returns ErrNotFound
// if the book does not exist.
func (s *Store) UpdateBook(book *types.Book) (*types.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	if book.BookID == "" {
		return nil, types.ErrInvalidID
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}

	var genreID any
	if book.GenreID != nil {
		genreID = *book.GenreID
	}

	res, err := s.db.Exec(
		`UPDATE books SET title = ?, isbn = ?, year = ?, pages = ?, rating = ?, genre_id = ? WHERE book_id = ?`,
		book.Title, book.ISBN, book.Year, book.Pages, book.Rating, genreID, book.BookID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating book %s: %w", book.BookID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("book %s: %w", book.BookID, types.ErrNotFound)
	}
	return s.getBookLocked(book.BookID)
}

// DeleteBook removes a book, its author associations, and its loan
// history. Fails with ErrHasOpenLoans while an open loan references it.
func (s *Store) DeleteBook(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return err
	}
	if id == "" {
		return types.ErrInvalidID
	}

	var open int
	err := s.db.Get(&open,
		`SELECT COUNT(*) FROM loans WHERE book_id = ? AND state IN (?, ?)`,
		id, types.LoanActive, types.LoanOverdue,
	)
	if err != nil {
		return fmt.Errorf("checking book %s loans: %w", id, err)
	}
	if open > 0 {
		return fmt.Errorf("book %s: %w", id, types.ErrHasOpenLoans)
	}

	res, err := s.db.Exec(`DELETE FROM books WHERE book_id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting book %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("book %s: %w", id, types.ErrNotFound)
	}
	return nil
}

// SetBookAuthors replaces the book's author list with the given authors in
// the given order, positions starting at 1. Both writes run in one
// transaction through the paired writer.
func (s *Store) SetBookAuthors(bookID string, authorIDs []string) error {
	if _, err := s.GetBook(bookID); err != nil {
		return err
	}
	for _, authorID := range authorIDs {
		if _, err := s.GetAuthor(authorID); err != nil {
			return err
		}
	}

	stmts := []Statement{
		{SQL: `DELETE FROM book_authors WHERE book_id = ?`, Args: []any{bookID}},
	}
	for i, authorID := range authorIDs {
		stmts = append(stmts, Statement{
			SQL:  `INSERT INTO book_authors (book_id, author_id, position) VALUES (?, ?, ?)`,
			Args: []any{bookID, authorID, i + 1},
		})
	}

	if _, err := s.ApplyPaired("set book authors", stmts); err != nil {
		return err
	}
	return nil
}

// BookAuthors returns the book's authors ordered by position.
func (s *Store) BookAuthors(bookID string) ([]types.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	return s.bookAuthorsLocked(bookID)
}

func (s *Store) bookAuthorsLocked(bookID string) ([]types.Author, error) {
	var rows []authorRow
	err := s.db.Select(&rows,
		`SELECT a.author_id, a.first_name, a.last_name, a.birth_date, a.country, a.created_at
		 FROM authors a
		 JOIN book_authors ba ON ba.author_id = a.author_id
		 WHERE ba.book_id = ?
		 ORDER BY ba.position`,
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting authors for book %s: %w", bookID, err)
	}

	authors := make([]types.Author, 0, len(rows))
	for _, row := range rows {
		author, err := row.toAuthor()
		if err != nil {
			return nil, err
		}
		authors = append(authors, *author)
	}
	return authors, nil
}
