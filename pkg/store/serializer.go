package store

import "encoding/json"

// Serializer converts application values to and from the byte form that the
// Record Store encrypts and persists. The default Serializer produces
// compact UTF-8 JSON; callers may substitute any byte-producing codec.
type Serializer interface {
	// Marshal reduces value to bytes.
	Marshal(value any) ([]byte, error)

	// Unmarshal populates the value pointed to by target from data.
	Unmarshal(data []byte, target any) error
}

// jsonSerializer is the default Serializer: compact JSON, no indentation.
type jsonSerializer struct{}

// DefaultSerializer returns the compact-JSON Serializer used when a Record
// Store is constructed without an explicit one.
func DefaultSerializer() Serializer {
	return jsonSerializer{}
}

func (jsonSerializer) Marshal(value any) ([]byte, error) {
	return json.Marshal(value)
}

func (jsonSerializer) Unmarshal(data []byte, target any) error {
	return json.Unmarshal(data, target)
}
