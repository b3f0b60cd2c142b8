package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/libris-app/libris/pkg/types"
)

// genreRow maps one genres row; sqlx scans it by db tag and toGenre
// converts the stored text timestamp once, in one place.
type genreRow struct {
	GenreID     string `db:"genre_id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	CreatedAt   string `db:"created_at"`
}

func (r genreRow) toGenre() (*types.Genre, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &types.Genre{
		GenreID:     r.GenreID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   createdAt,
	}, nil
}

// CreateGenre inserts a new genre and returns it with its generated ID.
func (s *Store) CreateGenre(genre *types.Genre) (*types.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	if err := genre.Validate(); err != nil {
		return nil, err
	}

	genre.GenreID = generateUUID()
	genre.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(
		`INSERT INTO genres (genre_id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		genre.GenreID, genre.Name, genre.Description, fmtTime(genre.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("creating genre: %w", err)
	}
	return genre, nil
}

// GetGenre retrieves a genre by ID. Returns ErrNotFound if absent.
func (s *Store) GetGenre(id string) (*types.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	var row genreRow
	err := s.db.Get(&row, `SELECT genre_id, name, description, created_at FROM genres WHERE genre_id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("genre %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting genre %s: %w", id, err)
	}
	return row.toGenre()
}

// GetGenreByName retrieves a genre by its unique name, matched
// case-insensitively. Returns ErrNotFound if absent. The CSV importer
// resolves genre references this way.
func (s *Store) GetGenreByName(name string) (*types.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}

	var row genreRow
	err := s.db.Get(&row, `SELECT genre_id, name, description, created_at FROM genres WHERE name = ? COLLATE NOCASE`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("genre %q: %w", name, types.ErrNotFound)
		}
		return nil, fmt.Errorf("getting genre %q: %w", name, err)
	}
	return row.toGenre()
}

// ListGenres returns all genres ordered by name.
func (s *Store) ListGenres() ([]*types.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}

	var rows []genreRow
	if err := s.db.Select(&rows, `SELECT genre_id, name, description, created_at FROM genres ORDER BY name`); err != nil {
		return nil, fmt.Errorf("listing genres: %w", err)
	}

	genres := make([]*types.Genre, 0, len(rows))
	for _, row := range rows {
		genre, err := row.toGenre()
		if err != nil {
			return nil, err
		}
		genres = append(genres, genre)
	}
	return genres, nil
}

// UpdateGenre updates name and description. Returns ErrNotFound if the
// genre does not exist.
func (s *Store) UpdateGenre(genre *types.Genre) (*types.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}
	if genre.GenreID == "" {
		return nil, types.ErrInvalidID
	}
	if err := genre.Validate(); err != nil {
		return nil, err
	}

	res, err := s.db.Exec(
		`UPDATE genres SET name = ?, description = ? WHERE genre_id = ?`,
		genre.Name, genre.Description, genre.GenreID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating genre %s: %w", genre.GenreID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("genre %s: %w", genre.GenreID, types.ErrNotFound)
	}
	return genre, nil
}

// DeleteGenre removes a genre. Books referencing it keep existing with a
// null genre (ON DELETE SET NULL).
func (s *Store) DeleteGenre(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return err
	}
	if id == "" {
		return types.ErrInvalidID
	}

	res, err := s.db.Exec(`DELETE FROM genres WHERE genre_id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting genre %s: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("genre %s: %w", id, types.ErrNotFound)
	}
	return nil
}
