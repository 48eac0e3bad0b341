package service

import (
	"bytes"
	"encoding/json"
)

// Nullable is a patch field that tells an absent key apart from an explicit
// null. Set is true whenever the key was present; Value is nil for null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// NullableOf returns a present, non-null field.
func NullableOf[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a present field that clears the column.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// apply overwrites dst when the field was present.
func (n Nullable[T]) apply(dst **T) {
	if n.Set {
		*dst = n.Value
	}
}
