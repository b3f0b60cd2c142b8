package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/libris-app/libris/pkg/types"
)

type readerRow struct {
	ReaderID     string         `db:"reader_id"`
	FirstName    string         `db:"first_name"`
	LastName     string         `db:"last_name"`
	Email        string         `db:"email"`
	Phone        string         `db:"phone"`
	RegisteredOn sql.NullString `db:"registered_on"`
	Active       bool           `db:"active"`
	CreatedAt    string         `db:"created_at"`
}

func (r readerRow) toReader() (*types.Reader, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	registeredOn, err := parseTimePtr(r.RegisteredOn)
	if err != nil {
		return nil, err
	}
	return &types.Reader{
		ReaderID:     r.ReaderID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		Phone:        r.Phone,
		RegisteredOn: registeredOn,
		Active:       r.Active,
		CreatedAt:    createdAt,
	}, nil
}

const selectReaderCols = `SELECT reader_id, first_name, last_name, email, phone, registered_on, active, created_at FROM readers`

// CreateReader inserts a new reader and returns it with its generated ID.
// A reader with no RegisteredOn gets today.
func (s *Store) CreateReader(reader *types.Reader) (*types.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	if err := reader.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reader.ReaderID = generateUUID()
	reader.CreatedAt = now
	if reader.RegisteredOn == nil {
		reader.RegisteredOn = &now
	}

	_, err := s.db.Exec(
		`INSERT INTO readers (reader_id, first_name, last_name, email, phone, registered_on, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		reader.ReaderID, reader.FirstName, reader.LastName, reader.Email,
		reader.Phone, fmtTimePtr(reader.RegisteredOn), reader.Active, fmtTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reader: %w", err)
	}
	return reader, nil
}

// GetReader retrieves a reader by ID. Returns ErrNotFound if absent.
func (s *Store) GetReader(id string) (*types.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	var row readerRow
	err := s.db.Get(&row, selectReaderCols+` WHERE reader_id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reader %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting reader %s: %w", id, err)
	}
	return row.toReader()
}

// ListReaders returns all readers ordered by last name, first name.
func (s *Store) ListReaders() ([]*types.Reader, error) {
	return s.listReaders(false)
}

// ListActiveReaders returns only readers allowed to check out books.
func (s *Store) ListActiveReaders() ([]*types.Reader, error) {
	return s.listReaders(true)
}

func (s *Store) listReaders(activeOnly bool) ([]*types.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}

	query := selectReaderCols
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY last_name, first_name`

	var rows []readerRow
	if err := s.db.Select(&rows, query); err != nil {
		return nil, fmt.Errorf("listing readers: %w", err)
	}

	readers := make([]*types.Reader, 0, len(rows))
	for _, row := range rows {
		reader, err := row.toReader()
		if err != nil {
			return nil, err
		}
		readers = append(readers, reader)
	}
	return readers, nil
}

// UpdateReader updates the editable fields, including the active flag.
// Returns ErrNotFound if the reader does not exist.
func (s *Store) UpdateReader(reader *types.Reader) (*types.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	if reader.ReaderID == "" {
		return nil, types.ErrInvalidID
	}
	if err := reader.Validate(); err != nil {
		return nil, err
	}

	res, err := s.db.Exec(
		`UPDATE readers SET first_name = ?, last_name = ?, email = ?, phone = ?, registered_on = ?, active = ?
		 WHERE reader_id = ?`,
		reader.FirstName, reader.LastName, reader.Email, reader.Phone,
		fmtTimePtr(reader.RegisteredOn), reader.Active, reader.ReaderID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating reader %s: %w", reader.ReaderID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("reader %s: %w", reader.ReaderID, types.ErrNotFound)
	}
	return reader, nil
}

// DeleteReader removes a reader and their loan history. Fails with
// ErrHasOpenLoans while any loan of the reader is still open.
func (s *Store) DeleteReader(id string) error {
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
		`SELECT COUNT(*) FROM loans WHERE reader_id = ? AND state IN (?, ?)`,
		id, types.LoanActive, types.LoanOverdue,
	)
	if err != nil {
		return fmt.Errorf("checking reader %s loans: %w", id, err)
	}
	if open > 0 {
		return fmt.Errorf("reader %s: %w", id, types.ErrHasOpenLoans)
	}

	res, err := s.db.Exec(`DELETE FROM readers WHERE reader_id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting reader %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("reader %s: %w", id, types.ErrNotFound)
	}
	return nil
}
