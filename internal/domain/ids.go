package domain

import "github.com/google/uuid"

// NewID returns a time-ordered identifier. Rows created later sort after rows created earlier,
// which keeps FIFO ordering stable when two rows share a created_at timestamp.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
