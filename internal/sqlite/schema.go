// Package sqlite implements the SQLite storage layer for Libris: entity
// tables, the transactional writer, and the loan ledger that owns
// loans.state and books.available.
package sqlite

// Schema DDL. The database file is the source of truth and survives
// restarts, so every statement is IF NOT EXISTS.
const (
	createGenres = `CREATE TABLE IF NOT EXISTS genres (
    genre_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);`

	createAuthors = `CREATE TABLE IF NOT EXISTS authors (
    author_id TEXT PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    birth_date TEXT,
    country TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);`

	createReaders = `CREATE TABLE IF NOT EXISTS readers (
    reader_id TEXT PRIMARY KEY,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    registered_on TEXT,
    active INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL
);`

	createBooks = `CREATE TABLE IF NOT EXISTS books (
    book_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    isbn TEXT NOT NULL DEFAULT '',
    year INTEGER NOT NULL DEFAULT 0,
    pages INTEGER NOT NULL DEFAULT 0,
    rating REAL NOT NULL DEFAULT 0,
    available INTEGER NOT NULL DEFAULT 1,
    genre_id TEXT REFERENCES genres(genre_id) ON DELETE SET NULL,
    created_at TEXT NOT NULL
);`

	createBookAuthors = `CREATE TABLE IF NOT EXISTS book_authors (
    book_id TEXT NOT NULL REFERENCES books(book_id) ON DELETE CASCADE,
    author_id TEXT NOT NULL REFERENCES authors(author_id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    PRIMARY KEY (book_id, author_id)
);`

	createLoans = `CREATE TABLE IF NOT EXISTS loans (
    loan_id TEXT PRIMARY KEY,
    book_id TEXT NOT NULL REFERENCES books(book_id) ON DELETE CASCADE,
    reader_id TEXT NOT NULL REFERENCES readers(reader_id) ON DELETE CASCADE,
    loaned_on TEXT NOT NULL,
    due_on TEXT NOT NULL,
    returned_on TEXT,
    state TEXT NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);`
)

// Index DDL. idxLoansOpenBook has the engine enforce the one-open-loan
// invariant: at most one active or overdue loan may reference a book.
const (
	idxLoansState    = `CREATE INDEX IF NOT EXISTS idx_loans_state ON loans(state);`
	idxLoansBook     = `CREATE INDEX IF NOT EXISTS idx_loans_book ON loans(book_id);`
	idxLoansReader   = `CREATE INDEX IF NOT EXISTS idx_loans_reader ON loans(reader_id);`
	idxLoansOpenBook = `CREATE UNIQUE INDEX IF NOT EXISTS idx_loans_open_book
    ON loans(book_id) WHERE state IN ('active', 'overdue');`
	idxBooksGenre       = `CREATE INDEX IF NOT EXISTS idx_books_genre ON books(genre_id);`
	idxBooksAvailable   = `CREATE INDEX IF NOT EXISTS idx_books_available ON books(available);`
	idxBookAuthorsAuthor = `CREATE INDEX IF NOT EXISTS idx_book_authors_author ON book_authors(author_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createGenres,
	createAuthors,
	createReaders,
	createBooks,
	createBookAuthors,
	createLoans,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxLoansState,
	idxLoansBook,
	idxLoansReader,
	idxLoansOpenBook,
	idxBooksGenre,
	idxBooksAvailable,
	idxBookAuthorsAuthor,
}
