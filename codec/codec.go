// Package codec serializes component values for snapshot bags, prefabs, and
// the script bridge. The encoding is JSON: self-describing and human-readable,
// so saved entities stay diffable and editable by hand.
package codec

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// Encode serializes a component value.
func Encode[T any](value T) ([]byte, error) {
	bz, err := json.Marshal(value)
	if err != nil {
		return nil, eris.Wrapf(err, "could not encode value of type %T", value)
	}
	return bz, nil
}

// Decode deserializes a payload produced by Encode back into a value of type
// T. Payloads that do not fit T's shape fail with the target type in the
// error.
func Decode[T any](bz []byte) (T, error) {
	var value T
	if err := json.Unmarshal(bz, &value); err != nil {
		return value, eris.Wrapf(err, "could not decode payload into %T", value)
	}
	return value, nil
}
