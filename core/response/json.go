package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

const (
	ContentTypeJSON       = "application/json; charset=utf-8"
	ContentTypeJavaScript = "application/javascript; charset=utf-8"
	ContentTypeHTML       = "text/html; charset=utf-8"
	ContentTypeText       = "text/plain; charset=utf-8"
)

// callbackPattern accepts dotted JavaScript identifier paths like "cb" or "app.handlers.load".
var callbackPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

// EncodeJSON serializes v without a trailing newline.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeJSON, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// EncodeJSONP serializes v wrapped as callback(JSON);.
func EncodeJSONP(v any, callback string) ([]byte, error) {
	if !ValidCallback(callback) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCallback, callback)
	}

	body, err := EncodeJSON(v)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(callback)+len(body)+3)
	out = append(out, callback...)
	out = append(out, '(')
	out = append(out, body...)
	out = append(out, ");"...)
	return out, nil
}

// ValidCallback reports whether name is safe to use as a JSONP callback.
func ValidCallback(name string) bool {
	return len(name) <= 128 && callbackPattern.MatchString(name)
}
