package core

import (
	"bytes"
	"encoding/json"
)

// Optional marks whether a field was supplied. The zero value is unset.
type Optional[T any] struct {
	Value T
	Set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value, or fallback when unset.
func (o Optional[T]) Get(fallback T) T {
	if !o.Set {
		return fallback
	}
	return o.Value
}

// UnmarshalJSON treats an explicit null the same as an absent key.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
