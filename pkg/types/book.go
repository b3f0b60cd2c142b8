package types

import "time"

// Book represents one physical book copy. Available is owned by the loan
// ledger: it is false exactly while an open loan references the book.
type Book struct {
	BookID    string    `db:"book_id" json:"book_id"`
	Title     string    `db:"title" json:"title"`
	ISBN      string    `db:"isbn" json:"isbn,omitempty"`
	Year      int       `db:"year" json:"year,omitempty"`
	Pages     int       `db:"pages" json:"pages,omitempty"`
	Rating    float64   `db:"rating" json:"rating"`
	Available bool      `db:"available" json:"available"`
	GenreID   *string   `db:"genre_id" json:"genre_id,omitempty"`
	CreatedAt time.Time `db:"-" json:"created_at"`

	// Populated on read for display.
	GenreName string   `db:"genre_name" json:"genre_name,omitempty"`
	Authors   []Author `db:"-" json:"authors,omitempty"`
}

// Validate checks the caller-editable fields. Availability is not
// validated here; only the loan ledger writes it.
func (b *Book) Validate() error {
	if b.Title == "" {
		return ErrInvalidTitle
	}
	if b.Rating < 0 || b.Rating > 5 {
		return ErrInvalidRating
	}
	if b.Year < 0 || b.Year > time.Now().Year()+1 {
		return ErrInvalidYear
	}
	if b.Pages < 0 {
		return ErrInvalidPages
	}
	return nil
}
