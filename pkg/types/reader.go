package types

import "time"

// Reader is a library member. Only active readers may check out books.
type Reader struct {
	ReaderID     string     `db:"reader_id" json:"reader_id"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	Email        string     `db:"email" json:"email,omitempty"`
	Phone        string     `db:"phone" json:"phone,omitempty"`
	RegisteredOn *time.Time `db:"-" json:"registered_on,omitempty"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"-" json:"created_at"`
}

// Validate checks required fields.
func (r *Reader) Validate() error {
	if r.FirstName == "" || r.LastName == "" {
		return ErrInvalidName
	}
	return nil
}

// FullName returns "First Last" for display.
func (r *Reader) FullName() string {
	return r.FirstName + " " + r.LastName
}
