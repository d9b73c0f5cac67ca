package kserde

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrTrailingData is returned by strict decoders when the input holds more
// than one value.
var ErrTrailingData = errors.New("kserde: trailing data after value")

func JSONSerializer[T any]() Serializer[T] {
	return func(t T) ([]byte, error) {
		serialized, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return serialized, nil
	}
}

// JSONIndentSerializer renders human-readable JSON with a trailing newline.
func JSONIndentSerializer[T any](indent string) Serializer[T] {
	return func(t T) ([]byte, error) {
		serialized, err := json.MarshalIndent(t, "", indent)
		if err != nil {
			return nil, err
		}
		return append(serialized, '\n'), nil
	}
}

func JSONDeserializer[T any]() Deserializer[T] {
	return func(b []byte) (T, error) {
		var deserialized T
		if err := json.Unmarshal(b, &deserialized); err != nil {
			return *new(T), err
		}
		return deserialized, nil
	}
}

// StrictJSONDeserializer rejects unknown object fields and trailing values.
func StrictJSONDeserializer[T any]() Deserializer[T] {
	return func(b []byte) (T, error) {
		var deserialized T
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&deserialized); err != nil {
			return *new(T), err
		}
		if _, err := dec.Token(); err != io.EOF {
			return *new(T), fmt.Errorf("%w: json", ErrTrailingData)
		}
		return deserialized, nil
	}
}

func JSON[T any]() Serde[T] {
	return Serde[T]{
		Serializer:   JSONSerializer[T](),
		Deserializer: JSONDeserializer[T](),
	}
}

// StrictJSON pairs the compact encoder with the strict decoder.
func StrictJSON[T any]() Serde[T] {
	return Serde[T]{
		Serializer:   JSONSerializer[T](),
		Deserializer: StrictJSONDeserializer[T](),
	}
}
