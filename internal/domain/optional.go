package domain

import (
	"bytes"
	"encoding/json"
)

// Optional marks a patch field as present or absent.
// Set is true when the field was supplied, Null when it was supplied as JSON null.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns a present Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value and whether it is usable (present and not null)
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set && !o.Null
}

// UnmarshalJSON is only invoked for keys present in the payload, which is what marks the field as set
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}
