// Package importer loads authors and books from CSV files. Imports are
// row-by-row: a malformed row is recorded and skipped, the rest of the
// file still imports.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/libris-app/libris/internal/sqlite"
	"github.com/libris-app/libris/pkg/types"
)

var (
	ErrMissingColumns = errors.New("csv is missing required columns")
	ErrEmptyFile      = errors.New("csv file has no header row")
)

// Column sets the import files must carry. Order does not matter; extra
// columns are ignored.
var (
	authorRequiredCols = []string{"first_name", "last_name"}
	bookRequiredCols   = []string{"title"}
)

// RowError records a failure on one data row. Row numbers are 1-based
// and count data rows, not file lines.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the wrapped error as its message.
func (e RowError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Row   int    `json:"row"`
		Error string `json:"error"`
	}{Row: e.Row, Error: e.Err.Error()})
}

// Result summarizes one import run.
type Result struct {
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors,omitempty"`
}

// Importer writes imported rows through the store so all entity
// validation applies.
type Importer struct {
	store *sqlite.Store
}

func New(store *sqlite.Store) *Importer {
	return &Importer{store: store}
}

// ImportAuthors reads an authors CSV. Required columns: first_name,
// last_name. Optional columns: birth_date (YYYY-MM-DD), country.
func (im *Importer) ImportAuthors(path string) (*Result, error) {
	rows, header, err := openCSV(path, authorRequiredCols)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, record := range rows {
		rowNum := i + 1

		author := &types.Author{
			FirstName: field(record, header, "first_name"),
			LastName:  field(record, header, "last_name"),
			Country:   field(record, header, "country"),
		}
		if author.FirstName == "" || author.LastName == "" {
			result.addError(rowNum, fmt.Errorf("first_name and last_name are required: %w", types.ErrInvalidName))
			continue
		}

		if raw := field(record, header, "birth_date"); raw != "" {
			birthDate, err := time.Parse(time.DateOnly, raw)
			if err != nil {
				result.addError(rowNum, fmt.Errorf("birth_date %q is not YYYY-MM-DD", raw))
				continue
			}
			author.BirthDate = &birthDate
		}

		if _, err := im.store.CreateAuthor(author); err != nil {
			result.addError(rowNum, err)
			continue
		}
		result.Imported++
	}
	return result, nil
}

// ImportBooks reads a books CSV. Required column: title. Optional
// columns: isbn, year, pages, rating, genre (resolved by name), author
// (last name, linked to the first matching author). Imported books
// start available.
func (im *Importer) ImportBooks(path string) (*Result, error) {
	rows, header, err := openCSV(path, bookRequiredCols)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, record := range rows {
		rowNum := i + 1

		book := &types.Book{
			Title: field(record, header, "title"),
			ISBN:  field(record, header, "isbn"),
		}
		if book.Title == "" {
			result.addError(rowNum, fmt.Errorf("title is required: %w", types.ErrInvalidTitle))
			continue
		}

		if book.Year, err = intField(record, header, "year"); err != nil {
			result.addError(rowNum, err)
			continue
		}
		if book.Pages, err = intField(record, header, "pages"); err != nil {
			result.addError(rowNum, err)
			continue
		}
		if raw := field(record, header, "rating"); raw != "" {
			book.Rating, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				result.addError(rowNum, fmt.Errorf("rating %q is not a number", raw))
				continue
			}
		}

		if name := field(record, header, "genre"); name != "" {
			genre, err := im.store.GetGenreByName(name)
			if err != nil {
				result.addError(rowNum, fmt.Errorf("genre %q: %w", name, err))
				continue
			}
			book.GenreID = &genre.GenreID
		}

		created, err := im.store.CreateBook(book)
		if err != nil {
			result.addError(rowNum, err)
			continue
		}
		result.Imported++

		// Author linking is best-effort: a miss is reported but the
		// book stays imported.
		if name := field(record, header, "author"); name != "" {
			if err := im.linkAuthor(created.BookID, name); err != nil {
				result.addError(rowNum, err)
			}
		}
	}
	return result, nil
}

func (im *Importer) linkAuthor(bookID, name string) error {
	authors, err := im.store.SearchAuthors(name)
	if err != nil {
		return err
	}
	if len(authors) == 0 {
		return fmt.Errorf("author %q not found, book imported without author", name)
	}
	return im.store.SetBookAuthors(bookID, []string{authors[0].AuthorID})
}

func (r *Result) addError(row int, err error) {
	r.Errors = append(r.Errors, RowError{Row: row, Err: err})
}

// openCSV reads the whole file, validates the header against required,
// and returns the data rows plus a column-name index.
func openCSV(path string, required []string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headerRow, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrEmptyFile
		}
		return nil, nil, fmt.Errorf("reading csv header: %w", err)
	}

	header := make(map[string]int, len(headerRow))
	for i, col := range headerRow {
		header[strings.ToLower(strings.TrimSpace(col))] = i
	}

	var missing []string
	for _, col := range required {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv rows: %w", err)
	}
	return rows, header, nil
}

func field(record []string, header map[string]int, name string) string {
	idx, ok := header[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func intField(record []string, header map[string]int, name string) (int, error) {
	raw := field(record, header, name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", name, raw)
	}
	return n, nil
}
