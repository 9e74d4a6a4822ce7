package kirara

import (
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// JSONSerializer converts structured values to and from JSON.
//
// Serialization rules:
//   - nil serializes to an empty payload
//   - strings pass through as their raw UTF-8 bytes
//   - everything else is marshaled as JSON
//
// Deserialization accepts responses whose Content-Type is absent or matches
// one of ContentTypes; anything else fails with ErrUnsupportedContentType.
// An empty body is a "no value" result and leaves the target untouched.
type JSONSerializer struct {
	// ContentTypes is the accepted Content-Type allow-list. A response
	// matches when its Content-Type contains one of these values, so
	// "application/json; charset=utf-8" matches "application/json".
	ContentTypes []string
}

// NewJSONSerializer creates a JSONSerializer accepting application/json.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{ContentTypes: []string{"application/json"}}
}

// Serialize marshals the value to JSON. Strings are passed through raw.
func (s *JSONSerializer) Serialize(value any) ([]byte, error) {
	if value == nil {
		return []byte{}, nil
	}
	if str, ok := value.(string); ok {
		return []byte(str), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot marshal %T: %v", ErrUnsupportedOperation, value, err)
	}
	return data, nil
}

// Deserialize unmarshals the body into target after checking the response
// Content-Type against the accepted set.
func (s *JSONSerializer) Deserialize(target any, _ int, header http.Header, body []byte) error {
	if len(body) == 0 {
		return nil
	}

	contentType := header.Get("Content-Type")
	if contentType != "" && !s.accepts(contentType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%w: malformed JSON payload %q: %v", ErrInvalidArgument, previewPayload(body), err)
	}
	return nil
}

func (s *JSONSerializer) accepts(contentType string) bool {
	for _, accepted := range s.ContentTypes {
		if strings.Contains(contentType, accepted) {
			return true
		}
	}
	return false
}
