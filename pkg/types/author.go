package types

import "time"

// Author is a reference entity linked to books through an ordered
// many-to-many association.
type Author struct {
	AuthorID  string     `db:"author_id" json:"author_id"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	BirthDate *time.Time `db:"-" json:"birth_date,omitempty"`
	Country   string     `db:"country" json:"country,omitempty"`
	CreatedAt time.Time  `db:"-" json:"created_at"`
}

// Validate checks required fields.
func (a *Author) Validate() error {
	if a.FirstName == "" || a.LastName == "" {
		return ErrInvalidName
	}
	return nil
}

// FullName returns "First Last" for display.
func (a *Author) FullName() string {
	return a.FirstName + " " + a.LastName
}
