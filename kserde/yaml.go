package kserde

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

func YAMLSerializer[T any]() Serializer[T] {
	return func(t T) ([]byte, error) {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// YAMLDeserializer decodes a single YAML document. Unknown fields are
// rejected. Empty input is an error.
func YAMLDeserializer[T any]() Deserializer[T] {
	return func(b []byte) (T, error) {
		var deserialized T
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&deserialized); err != nil {
			if errors.Is(err, io.EOF) {
				return *new(T), fmt.Errorf("kserde: empty yaml document")
			}
			return *new(T), err
		}
		var extra yaml.Node
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return *new(T), fmt.Errorf("%w: yaml", ErrTrailingData)
		}
		return deserialized, nil
	}
}

func YAML[T any]() Serde[T] {
	return Serde[T]{
		Serializer:   YAMLSerializer[T](),
		Deserializer: YAMLDeserializer[T](),
	}
}
