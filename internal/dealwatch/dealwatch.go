// Package dealwatch holds the domain types for the marketplace deal
// pipeline: scraped posts, the listings parsed out of their titles, the
// user-authored rules, and the recorded matches between rules and posts.
package dealwatch

import "errors"

var (
	// ErrNotFound is returned when a lookup by id finds nothing.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned when a write collides with an existing row.
	ErrConflict = errors.New("resource already exists")
	// ErrForeignKey is returned when a write references a parent row that
	// does not exist. It is never swallowed: the caller decides whether the
	// missing parent is transient or permanent.
	ErrForeignKey = errors.New("referenced resource not found")
	// ErrInvalid is returned when a value fails validation before any write
	// happens.
	ErrInvalid = errors.New("invalid value")
)
