// Shared helpers for libris CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/libris-app/libris/internal/sqlite"
	"github.com/libris-app/libris/pkg/types"
)

// attachStore resolves the data directory, creates a SQLite store, and
// attaches it. The caller must defer store.Detach().
func attachStore() (*sqlite.Store, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	}

	store := sqlite.NewStore()
	if err := store.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach store: %w", err)
	}

	return store, nil
}

// userErrors are rejections of the request itself: bad input, unknown
// IDs, business conflicts. Everything else is a system fault.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidName,
	types.ErrInvalidTitle,
	types.ErrInvalidRating,
	types.ErrInvalidYear,
	types.ErrInvalidPages,
	types.ErrInvalidDueDate,
	types.ErrBookUnavailable,
	types.ErrReaderInactive,
	types.ErrHasOpenLoans,
	types.ErrInvalidState,
	types.ErrInvalidTransition,
}

// fail prints the error and exits with the code matching its kind.
func fail(op string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", op, err)
	for _, userErr := range userErrors {
		if errors.Is(err, userErr) {
			os.Exit(exitUserError)
		}
	}
	os.Exit(exitSysError)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal JSON:", err)
		os.Exit(exitSysError)
	}
	fmt.Println(string(out))
}

// parseDate parses a YYYY-MM-DD flag value as a UTC date.
func parseDate(value string) (time.Time, error) {
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return day.UTC(), nil
}

// formatDay renders a timestamp as a date for human-readable listings.
func formatDay(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// formatDayPtr renders an optional timestamp, or "-" when unset.
func formatDayPtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDay(*t)
}
