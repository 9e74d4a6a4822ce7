package kirara

import (
	"fmt"
	"net/http"
	"unicode/utf8"
)

// Serializer converts between request/response values and byte payloads.
//
// Serialize turns a body value into bytes. Implementations that cannot
// represent the given value type fail with ErrUnsupportedOperation.
//
// Deserialize fills target (always a non-nil pointer) from the response
// body. The status code and response headers are passed through so
// implementations can reject incompatible content types. An empty body is
// a "no value" result: target is left untouched and no error is returned.
type Serializer interface {
	Serialize(value any) ([]byte, error)
	Deserialize(target any, statusCode int, header http.Header, body []byte) error
}

// StringSerializer serializes string values to their UTF-8 bytes and
// deserializes response bodies into *string targets. Any other value or
// target type fails.
type StringSerializer struct {
	// Decode converts response bytes to a string. Defaults to a plain
	// UTF-8 conversion when nil.
	Decode func([]byte) string
}

// NewStringSerializer creates a StringSerializer with UTF-8 decoding.
func NewStringSerializer() *StringSerializer {
	return &StringSerializer{}
}

// Serialize encodes string values. Nil serializes to an empty payload.
func (s *StringSerializer) Serialize(value any) ([]byte, error) {
	if value == nil {
		return []byte{}, nil
	}
	if str, ok := value.(string); ok {
		return []byte(str), nil
	}
	return nil, fmt.Errorf("%w: StringSerializer only serializes strings, got %T", ErrUnsupportedOperation, value)
}

// Deserialize fills a *string target with the decoded body.
func (s *StringSerializer) Deserialize(target any, _ int, _ http.Header, body []byte) error {
	str, ok := target.(*string)
	if !ok {
		return fmt.Errorf("%w: StringSerializer only deserializes into *string, got %T", ErrInvalidArgument, target)
	}
	if s.Decode != nil {
		*str = s.Decode(body)
		return nil
	}
	*str = string(body)
	return nil
}

// ByteSerializer passes response bodies through unchanged into *[]byte
// targets. Serialization is not supported; raw bodies should be set on the
// request directly as []byte, which bypasses the serializer.
type ByteSerializer struct{}

// NewByteSerializer creates a ByteSerializer.
func NewByteSerializer() *ByteSerializer {
	return &ByteSerializer{}
}

// Serialize always fails; ByteSerializer is deserialization-only.
func (s *ByteSerializer) Serialize(any) ([]byte, error) {
	return nil, fmt.Errorf("%w: ByteSerializer does not support serialization", ErrUnsupportedOperation)
}

// Deserialize copies the body into a *[]byte target unchanged.
func (s *ByteSerializer) Deserialize(target any, _ int, _ http.Header, body []byte) error {
	raw, ok := target.(*[]byte)
	if !ok {
		return fmt.Errorf("%w: ByteSerializer only deserializes into *[]byte, got %T", ErrInvalidArgument, target)
	}
	*raw = body
	return nil
}

// previewPayload truncates a payload for inclusion in error messages.
func previewPayload(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	trimmed := body[:limit]
	// Do not split a multi-byte rune at the cut point.
	for i := 0; i < utf8.UTFMax-1 && len(trimmed) > 0 && !utf8.Valid(trimmed); i++ {
		trimmed = trimmed[:len(trimmed)-1]
	}
	return string(trimmed) + "..."
}
