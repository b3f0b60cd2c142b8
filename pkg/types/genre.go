package types

import "time"

// Genre is a reference entity. Books reference at most one genre.
type Genre struct {
	GenreID     string    `db:"genre_id" json:"genre_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"-" json:"created_at"`
}

// Validate checks required fields.
func (g *Genre) Validate() error {
	if g.Name == "" {
		return ErrInvalidName
	}
	return nil
}
