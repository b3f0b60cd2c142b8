package sqlite

import (
	"fmt"
	"time"
)

// Aggregate queries backing the CSV reports. The report package owns the
// file format; every piece of SQL stays in here.

// BookUsageRow is one line of the per-book usage report.
type BookUsageRow struct {
	BookID       string  `db:"book_id"`
	Title        string  `db:"title"`
	ISBN         string  `db:"isbn"`
	Genre        string  `db:"genre"`
	Authors      string  `db:"authors"`
	Year         int     `db:"year"`
	Pages        int     `db:"pages"`
	Rating       float64 `db:"rating"`
	Available    bool    `db:"available"`
	TotalLoans   int     `db:"total_loans"`
	ActiveLoans  int     `db:"active_loans"`
	Returned     int     `db:"returned_loans"`
	Overdue      int     `db:"overdue_loans"`
	LastLoanedOn string  `db:"last_loaned_on"`
}

// BookUsage returns one row per book with loan counts by state and the
// concatenated author list, most-borrowed first.
func (s *Store) BookUsage() ([]BookUsageRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}

	var rows []BookUsageRow
	err := s.db.Select(&rows, `
SELECT b.book_id, b.title, b.isbn,
       COALESCE(g.name, '') AS genre,
       COALESCE((SELECT group_concat(full_name, ', ') FROM (
           SELECT a.first_name || ' ' || a.last_name AS full_name
           FROM book_authors ba
           JOIN authors a ON a.author_id = ba.author_id
           WHERE ba.book_id = b.book_id
           ORDER BY ba.position)), '') AS authors,
       b.year, b.pages, b.rating, b.available,
       (SELECT COUNT(*) FROM loans l WHERE l.book_id = b.book_id AND l.state != 'cancelled') AS total_loans,
       (SELECT COUNT(*) FROM loans l WHERE l.book_id = b.book_id AND l.state = 'active') AS active_loans,
       (SELECT COUNT(*) FROM loans l WHERE l.book_id = b.book_id AND l.state = 'returned') AS returned_loans,
       (SELECT COUNT(*) FROM loans l WHERE l.book_id = b.book_id AND l.state = 'overdue') AS overdue_loans,
       COALESCE((SELECT MAX(l.loaned_on) FROM loans l WHERE l.book_id = b.book_id), '') AS last_loaned_on
FROM books b
LEFT JOIN genres g ON b.genre_id = g.genre_id
ORDER BY total_loans DESC, b.title`)
	if err != nil {
		return nil, fmt.Errorf("book usage report: %w", err)
	}
	return rows, nil
}

// LoanReportRow is one line of the circulation report. DaysOverdue is the
// days past due for overdue loans, the days returned late for late
// returns, and zero otherwise.
type LoanReportRow struct {
	LoanID      string `db:"loan_id"`
	BookTitle   string `db:"book_title"`
	ISBN        string `db:"isbn"`
	ReaderName  string `db:"reader_name"`
	ReaderEmail string `db:"reader_email"`
	LoanedOn    string `db:"loaned_on"`
	DueOn       string `db:"due_on"`
	ReturnedOn  string `db:"returned_on"`
	State       string `db:"state"`
	DaysOverdue int    `db:"days_overdue"`
	Note        string `db:"note"`
}

// LoanReport returns every non-cancelled loan with book and reader detail,
// newest first. The overdue-day count for still-open loans is relative to
// today.
func (s *Store) LoanReport(today time.Time) ([]LoanReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}

	var rows []LoanReportRow
	err := s.db.Select(&rows, `
SELECT l.loan_id,
       b.title AS book_title,
       b.isbn,
       r.first_name || ' ' || r.last_name AS reader_name,
       r.email AS reader_email,
       l.loaned_on, l.due_on,
       COALESCE(l.returned_on, '') AS returned_on,
       l.state,
       CASE
           WHEN l.state = 'overdue'
               THEN CAST(julianday(date(?)) - julianday(date(l.due_on)) AS INTEGER)
           WHEN l.state = 'returned' AND date(l.returned_on) > date(l.due_on)
               THEN CAST(julianday(date(l.returned_on)) - julianday(date(l.due_on)) AS INTEGER)
           ELSE 0
       END AS days_overdue,
       l.note
FROM loans l
JOIN books b ON l.book_id = b.book_id
JOIN readers r ON l.reader_id = r.reader_id
WHERE l.state != 'cancelled'
ORDER BY l.loaned_on DESC`, fmtTime(today))
	if err != nil {
		return nil, fmt.Errorf("loan report: %w", err)
	}
	return rows, nil
}

// ReaderStatsRow is one line of the per-reader statistics report.
type ReaderStatsRow struct {
	ReaderID     string `db:"reader_id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	RegisteredOn string `db:"registered_on"`
	Active       bool   `db:"active"`
	TotalLoans   int    `db:"total_loans"`
	ActiveLoans  int    `db:"active_loans"`
	Overdue      int    `db:"overdue_loans"`
	Returned     int    `db:"returned_loans"`
	LastLoanedOn string `db:"last_loaned_on"`
}

// ReaderStats returns one row per reader with loan counts by state,
// heaviest borrowers first.
func (s *Store) ReaderStats() ([]ReaderStatsRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return nil, err
	}

	var rows []ReaderStatsRow
	err := s.db.Select(&rows, `
SELECT r.reader_id,
       r.first_name || ' ' || r.last_name AS name,
       r.email,
       COALESCE(r.registered_on, '') AS registered_on,
       r.active,
       (SELECT COUNT(*) FROM loans l WHERE l.reader_id = r.reader_id AND l.state != 'cancelled') AS total_loans,
       (SELECT COUNT(*) FROM loans l WHERE l.reader_id = r.reader_id AND l.state = 'active') AS active_loans,
       (SELECT COUNT(*) FROM loans l WHERE l.reader_id = r.reader_id AND l.state = 'overdue') AS overdue_loans,
       (SELECT COUNT(*) FROM loans l WHERE l.reader_id = r.reader_id AND l.state = 'returned') AS returned_loans,
       COALESCE((SELECT MAX(l.loaned_on) FROM loans l WHERE l.reader_id = r.reader_id), '') AS last_loaned_on
FROM readers r
ORDER BY total_loans DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("reader stats report: %w", err)
	}
	return rows, nil
}

// Summary holds the library-wide totals.
type Summary struct {
	TotalBooks     int `db:"total_books" json:"total_books"`
	AvailableBooks int `db:"available_books" json:"available_books"`
	TotalAuthors   int `db:"total_authors" json:"total_authors"`
	TotalReaders   int `db:"total_readers" json:"total_readers"`
	ActiveReaders  int `db:"active_readers" json:"active_readers"`
	ActiveLoans    int `db:"active_loans" json:"active_loans"`
	OverdueLoans   int `db:"overdue_loans" json:"overdue_loans"`
	TotalLoans     int `db:"total_loans" json:"total_loans"`
}

// Summarize returns the library-wide totals. TotalLoans excludes
// cancelled loans.
func (s *Store) Summarize() (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkAttached(); err != nil {
		return Summary{}, err
	}

	var summary Summary
	err := s.db.Get(&summary, `
SELECT (SELECT COUNT(*) FROM books) AS total_books,
       (SELECT COUNT(*) FROM books WHERE available = 1) AS available_books,
       (SELECT COUNT(*) FROM authors) AS total_authors,
       (SELECT COUNT(*) FROM readers) AS total_readers,
       (SELECT COUNT(*) FROM readers WHERE active = 1) AS active_readers,
       (SELECT COUNT(*) FROM loans WHERE state = 'active') AS active_loans,
       (SELECT COUNT(*) FROM loans WHERE state = 'overdue') AS overdue_loans,
       (SELECT COUNT(*) FROM loans WHERE state != 'cancelled') AS total_loans`)
	if err != nil {
		return Summary{}, fmt.Errorf("summary statistics: %w", err)
	}
	return summary, nil
}
