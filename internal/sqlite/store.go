package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect import
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // driver import

	"github.com/libris-app/libris/pkg/types"
)

// DatabaseFileName is the SQLite file created inside the data directory.
const DatabaseFileName = "libris.db"

// dialect builds the dynamic queries (filtered listings, title search).
var dialect = goqu.Dialect("sqlite3")

// Store provides access to the Libris database. It is not attached until
// Attach is called with a Config; after Detach every operation returns
// ErrStoreDetached.
type Store struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sqlx.DB
}

// NewStore creates a new SQLite store instance.
// The store is not attached; call Attach with a Config to initialize.
func NewStore() *Store {
	return &Store{}
}

// Attach opens (or creates) the database under config.DataDir, enables
// foreign keys, and applies the schema. Returns ErrAlreadyAttached if
// called while already attached.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := sqlx.Open("sqlite", filepath.Join(dataDir, DatabaseFileName))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// The modernc driver serializes access per connection; a single
	// connection avoids SQLITE_BUSY between the ledger and the sweeper.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("apply indexes: %w", err)
		}
	}

	s.db = db
	s.config = config
	s.attached = true

	return nil
}

// Detach closes the database connection. Idempotent. After Detach, all
// operations return ErrStoreDetached.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
		s.db = nil
	}

	s.attached = false
	return nil
}

// checkAttached returns ErrStoreDetached when the store is not usable.
// The caller must hold s.mu (read or write lock).
func (s *Store) checkAttached() error {
	if !s.attached {
		return types.ErrStoreDetached
	}
	return nil
}

// generateUUID generates a new UUID v7 for entity IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails.
		return uuid.New().String()
	}
	return id.String()
}

// Timestamps are stored as RFC 3339 UTC text, which sorts lexicographically
// and lets SQLite's date() extract the calendar day for overdue checks.

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}
