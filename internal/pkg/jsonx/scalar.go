// Package jsonx holds JSON helpers for third-party payloads that are loose
// about value types.
package jsonx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Scalar accepts a JSON string, number or boolean and keeps its textual form.
// null decodes to the empty string.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Scalar(strings.TrimSpace(str))
	case bytes.Equal(b, []byte("true")), bytes.Equal(b, []byte("false")):
		*s = Scalar(b)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string, number or boolean, got %s", b)
		}
		*s = Scalar(n.String())
	}
	return nil
}

func (s Scalar) String() string { return string(s) }

// Float parses the value as a float64.
func (s Scalar) Float() (float64, error) {
	return strconv.ParseFloat(string(s), 64)
}

// Int parses the value as an integer, truncating any fraction. Empty is 0.
func (s Scalar) Int() (int, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// Bool reports true for "true", "1" and "yes" (case-insensitive).
func (s Scalar) Bool() bool {
	switch strings.ToLower(string(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
