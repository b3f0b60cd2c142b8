// Package report renders the store's aggregate queries as CSV. The SQL
// lives in the sqlite package; this package only owns the file format.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/libris-app/libris/internal/sqlite"
)

// Writer renders reports from an attached store.
type Writer struct {
	store *sqlite.Store
}

func New(store *sqlite.Store) *Writer {
	return &Writer{store: store}
}

// Books writes the per-book usage report: genre, authors, loan counts
// by state, last loan date, most-borrowed first.
func (r *Writer) Books(w io.Writer) error {
	rows, err := r.store.BookUsage()
	if err != nil {
		return err
	}

	records := [][]string{{
		"book_id", "title", "isbn", "genre", "authors", "year", "pages",
		"rating", "available", "total_loans", "active_loans",
		"returned_loans", "overdue_loans", "last_loaned_on",
	}}
	for _, row := range rows {
		records = append(records, []string{
			row.BookID, row.Title, row.ISBN, row.Genre, row.Authors,
			strconv.Itoa(row.Year), strconv.Itoa(row.Pages),
			formatRating(row.Rating), strconv.FormatBool(row.Available),
			strconv.Itoa(row.TotalLoans), strconv.Itoa(row.ActiveLoans),
			strconv.Itoa(row.Returned), strconv.Itoa(row.Overdue),
			row.LastLoanedOn,
		})
	}
	return writeCSV(w, records)
}

// Loans writes the circulation report: every non-cancelled loan with
// book and reader detail plus a days-overdue column, newest first.
func (r *Writer) Loans(w io.Writer, today time.Time) error {
	rows, err := r.store.LoanReport(today)
	if err != nil {
		return err
	}

	records := [][]string{{
		"loan_id", "book_title", "isbn", "reader_name", "reader_email",
		"loaned_on", "due_on", "returned_on", "state", "days_overdue",
		"note",
	}}
	for _, row := range rows {
		records = append(records, []string{
			row.LoanID, row.BookTitle, row.ISBN, row.ReaderName,
			row.ReaderEmail, row.LoanedOn, row.DueOn, row.ReturnedOn,
			row.State, strconv.Itoa(row.DaysOverdue), row.Note,
		})
	}
	return writeCSV(w, records)
}

// Readers writes the per-reader statistics report, heaviest borrowers
// first.
func (r *Writer) Readers(w io.Writer) error {
	rows, err := r.store.ReaderStats()
	if err != nil {
		return err
	}

	records := [][]string{{
		"reader_id", "name", "email", "registered_on", "active",
		"total_loans", "active_loans", "overdue_loans", "returned_loans",
		"last_loaned_on",
	}}
	for _, row := range rows {
		records = append(records, []string{
			row.ReaderID, row.Name, row.Email, row.RegisteredOn,
			strconv.FormatBool(row.Active),
			strconv.Itoa(row.TotalLoans), strconv.Itoa(row.ActiveLoans),
			strconv.Itoa(row.Overdue), strconv.Itoa(row.Returned),
			row.LastLoanedOn,
		})
	}
	return writeCSV(w, records)
}

// Summary returns the library-wide totals.
func (r *Writer) Summary() (sqlite.Summary, error) {
	return r.store.Summarize()
}

func writeCSV(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func formatRating(rating float64) string {
	return strconv.FormatFloat(rating, 'f', 1, 64)
}
