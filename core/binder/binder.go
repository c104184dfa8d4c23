package binder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"
)

// DefaultMaxBodySize is the default maximum size for in-memory request bodies (10MB).
const DefaultMaxBodySize = 10 << 20 // 10 MB

// Kind classifies a body by its media type.
type Kind int

const (
	KindRaw Kind = iota
	KindForm
	KindJSON
)

// KindOf returns the body kind for a Content-Type header value.
// Parameters such as charset are ignored; unknown or missing types are raw.
func KindOf(contentType string) Kind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
		if idx := strings.Index(mediaType, ";"); idx != -1 {
			mediaType = strings.TrimSpace(mediaType[:idx])
		}
	}

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		return KindForm
	case mediaType == "application/json", strings.HasSuffix(mediaType, "+json"):
		return KindJSON
	default:
		return KindRaw
	}
}

// Read reads r fully, failing with ErrBodyTooLarge when more than maxSize bytes
// are available. A non-positive maxSize uses DefaultMaxBodySize.
func Read(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}

	// Read one extra byte to detect oversized bodies without buffering them.
	body, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToReadBody, err)
	}
	if int64(len(body)) > maxSize {
		return nil, fmt.Errorf("%w: max %d bytes", ErrBodyTooLarge, maxSize)
	}
	return body, nil
}

// Decode reads and parses a body by content type:
// form-encoded bodies become url.Values, JSON becomes the decoded value
// (map[string]any, []any, string, float64, bool or nil) and anything else is
// returned as []byte.
func Decode(contentType string, r io.Reader, maxSize int64) (any, error) {
	body, err := Read(r, maxSize)
	if err != nil {
		return nil, err
	}
	return Parse(contentType, body)
}

// Parse is Decode for an already buffered body.
func Parse(contentType string, body []byte) (any, error) {
	switch KindOf(contentType) {
	case KindForm:
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedToParseForm, err)
		}
		return values, nil

	case KindJSON:
		if len(bytes.TrimSpace(body)) == 0 {
			return nil, nil
		}

		var v any
		decoder := json.NewDecoder(bytes.NewReader(body))
		if err := decoder.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFailedToParseJSON, err)
		}

		// Verify no trailing data exists after valid JSON
		var extra json.RawMessage
		if err := decoder.Decode(&extra); err != io.EOF {
			return nil, fmt.Errorf("%w: unexpected data after JSON value", ErrFailedToParseJSON)
		}
		return v, nil

	default:
		return body, nil
	}
}
