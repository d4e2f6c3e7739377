package models

import (
	"bytes"
	"encoding/json"
)

// Optional is a JSON field that distinguishes an absent key from an explicit
// null. Partial updates use it: an absent field keeps the stored value, a
// null clears it and any other value replaces it.
type Optional[T any] struct {
	Set   bool // the key was present in the request
	Valid bool // the value was not null
	Value T
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: v}
}

// Null returns a present Optional carrying an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON implements json.Unmarshaler. It is only called for keys that
// are present in the document.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Valid = false
		var zero T
		o.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Ptr returns a pointer to the value, or nil when the field is null or absent.
func (o Optional[T]) Ptr() *T {
	if !o.Set || !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// ValidationValue exposes the wrapped value to the request validator.
func (o Optional[T]) ValidationValue() interface{} {
	if !o.Set || !o.Valid {
		return nil
	}
	return o.Value
}
