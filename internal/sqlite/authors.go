package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/libris-app/libris/pkg/types"
)

type authorRow struct {
	AuthorID  string         `db:"author_id"`
	FirstName string         `db:"first_name"`
	LastName  string         `db:"last_name"`
	BirthDate sql.NullString `db:"birth_date"`
	Country   string         `db:"country"`
	CreatedAt string         `db:"created_at"`
}

func (r authorRow) toAuthor() (*types.Author, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	birthDate, err := parseTimePtr(r.BirthDate)
	if err != nil {
		return nil, err
	}
	return &types.Author{
		AuthorID:  r.AuthorID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		BirthDate: birthDate,
		Country:   r.Country,
		CreatedAt: createdAt,
	}, nil
}

const selectAuthorCols = `SELECT author_id, first_name, last_name, birth_date, country, created_at FROM authors`

// CreateAuthor inserts a new author and returns it with its generated ID.
func (s *Store) CreateAuthor(author *types.Author) (*types.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	if err := author.Validate(); err != nil {
		return nil, err
	}

	author.AuthorID = generateUUID()
	author.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(
		`INSERT INTO authors (author_id, first_name, last_name, birth_date, country, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		author.AuthorID, author.FirstName, author.LastName,
		fmtTimePtr(author.BirthDate), author.Country, fmtTime(author.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("creating author: %w", err)
	}
	return author, nil
}

// GetAuthor retrieves an author by ID. Returns ErrNotFound if absent.
func (s *Store) GetAuthor(id string) (*types.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	var row authorRow
	err := s.db.Get(&row, selectAuthorCols+` WHERE author_id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("author %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting author %s: %w", id, err)
	}
	return row.toAuthor()
}

// ListAuthors returns all authors ordered by last name, first name.
func (s *Store) ListAuthors() ([]*types.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}

	var rows []authorRow
	if err := s.db.Select(&rows, selectAuthorCols+` ORDER BY last_name, first_name`); err != nil {
		return nil, fmt.Errorf("listing authors: %w", err)
	}

	authors := make([]*types.Author, 0, len(rows))
	for _, row := range rows {
		author, err := row.toAuthor()
		if err != nil {
			return nil, err
		}
		authors = append(authors, author)
	}
	return authors, nil
}

// SearchAuthors returns authors whose first or last name contains the
// term, ordered by last name, first name.
func (s *Store) SearchAuthors(term string) ([]*types.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}

	pattern := "%" + term + "%"
	ds := dialect.From(goqu.T("authors")).
		Select(
			goqu.I("author_id"), goqu.I("first_name"), goqu.I("last_name"),
			goqu.I("birth_date"), goqu.I("country"), goqu.I("created_at"),
		).
		Where(goqu.Or(
			goqu.I("first_name").Like(pattern),
			goqu.I("last_name").Like(pattern),
		)).
		Order(goqu.I("last_name").Asc(), goqu.I("first_name").Asc())

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building author search: %w", err)
	}

	var rows []authorRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("searching authors: %w", err)
	}

	authors := make([]*types.Author, 0, len(rows))
	for _, row := range rows {
		author, err := row.toAuthor()
		if err != nil {
			return nil, err
		}
		authors = append(authors, author)
	}
	return authors, nil
}

// UpdateAuthor updates the editable fields. Returns ErrNotFound if the
// author does not exist.
func (s *Store) UpdateAuthor(author *types.Author) (*types.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	if author.AuthorID == "" {
		return nil, types.ErrInvalidID
	}
	if err := author.Validate(); err != nil {
		return nil, err
	}

	res, err := s.db.Exec(
		`UPDATE authors SET first_name = ?, last_name = ?, birth_date = ?, country = ? WHERE author_id = ?`,
		author.FirstName, author.LastName, fmtTimePtr(author.BirthDate), author.Country, author.AuthorID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating author %s: %w", author.AuthorID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("author %s: %w", author.AuthorID, types.ErrNotFound)
	}
	return author, nil
}

// DeleteAuthor removes an author. Book associations cascade away; the
// books themselves are untouched.
func (s *Store) DeleteAuthor(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return err
	}
	if id == "" {
		return types.ErrInvalidID
	}

	res, err := s.db.Exec(`DELETE FROM authors WHERE author_id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting author %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("author %s: %w", id, types.ErrNotFound)
	}
	return nil
}
