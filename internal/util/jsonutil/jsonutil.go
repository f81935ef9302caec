package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNoJSON = errors.New("jsonutil: no JSON value found")

	reFence = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.+?)\\s*```")
)

// MarshalNoEscape encodes v into JSON without escaping <, >, & and without
// a trailing newline.
func MarshalNoEscape(v any) ([]byte, error) {
	return MarshalNoEscapeIndent(v, "", "")
}

// MarshalNoEscapeIndent is MarshalNoEscape with indentation. Non-ASCII text
// is written verbatim.
func MarshalNoEscapeIndent(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if prefix != "" || indent != "" {
		enc.SetIndent(prefix, indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ExtractJSON pulls the JSON document out of a model reply. It accepts bare
// JSON, a ```json fenced block, or prose surrounding a single object/array.
func ExtractJSON(text string) ([]byte, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, ErrNoJSON
	}
	if json.Valid([]byte(s)) {
		return []byte(s), nil
	}
	if m := reFence.FindStringSubmatch(s); m != nil {
		body := strings.TrimSpace(m[1])
		if json.Valid([]byte(body)) {
			return []byte(body), nil
		}
	}
	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		start := strings.IndexByte(s, pair[0])
		end := strings.LastIndexByte(s, pair[1])
		if start >= 0 && end > start {
			body := s[start : end+1]
			if json.Valid([]byte(body)) {
				return []byte(body), nil
			}
		}
	}
	return nil, ErrNoJSON
}

// UnmarshalFlex decodes raw into v, first directly, then after extracting
// the JSON body from fenced or quoted model output.
func UnmarshalFlex(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	var quoted string
	if err := json.Unmarshal(raw, &quoted); err == nil {
		raw = []byte(quoted)
	}
	body, err := ExtractJSON(string(raw))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}
