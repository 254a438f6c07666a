// Package extract recovers a single JSON value embedded in freeform model
// output. Models routinely wrap JSON in prose or code fences and emit
// common defects (trailing commas, raw newlines inside the structure);
// extraction slices out the delimited region, applies a small deterministic
// repair pass, and parses the result.
//
// This is a pragmatic recovery pass, not a JSON5 parser: mismatched
// brackets, unescaped quotes, and comments remain hard failures.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Shape selects the top-level delimiter pair to look for.
type Shape int

const (
	// Object extracts a {...} value.
	Object Shape = iota
	// Array extracts a [...] value.
	Array
)

func (s Shape) String() string {
	switch s {
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

func (s Shape) delimiters() (open, close byte) {
	switch s {
	case Object:
		return '{', '}'
	case Array:
		return '[', ']'
	default:
		panic(fmt.Sprintf("extract: invalid shape %d", int(s)))
	}
}

// NoDelimitersError reports that the raw text contains no candidate value
// of the requested shape.
type NoDelimitersError struct {
	Shape Shape
}

func (e *NoDelimitersError) Error() string {
	open, close := e.Shape.delimiters()
	return fmt.Sprintf("no %s delimiters (%c...%c) found in text", e.Shape, open, close)
}

// ParseError reports that the candidate region was not valid JSON even
// after repair. Snippet is a bounded prefix of the repaired text, never
// the full payload.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse repaired text: %v (near %q)", e.Err, e.Snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

// snippetLimit bounds ParseError.Snippet so error payloads stay small.
const snippetLimit = 160

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)
var spaceRun = regexp.MustCompile(` {2,}`)

// Repair applies the deterministic textual repairs, in order:
// trailing commas before a closing brace or bracket are removed,
// newlines and carriage returns collapse to spaces, tabs collapse to
// spaces, and runs of spaces collapse to one. Each pass is idempotent,
// so Repair(Repair(s)) == Repair(s).
func Repair(s string) string {
	s = trailingComma.ReplaceAllString(s, "$1")
	s = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(s)
	s = spaceRun.ReplaceAllString(s, " ")
	return s
}

// Extract locates the first opening and last closing delimiter for the
// requested shape, repairs the slice between them, and returns it as raw
// JSON. Failures are typed: *NoDelimitersError when no candidate region
// exists, *ParseError when the repaired region still does not parse.
//
// The returned value is only checked for JSON well-formedness; callers
// decode it into their target type and validate shape there.
func Extract(raw string, shape Shape) (json.RawMessage, error) {
	open, close := shape.delimiters()

	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, close)
	if start < 0 || end < 0 || end < start {
		return nil, &NoDelimitersError{Shape: shape}
	}

	repaired := Repair(raw[start : end+1])

	var probe any
	if err := json.Unmarshal([]byte(repaired), &probe); err != nil {
		snippet := repaired
		if len(snippet) > snippetLimit {
			snippet = snippet[:snippetLimit]
		}
		return nil, &ParseError{Snippet: snippet, Err: err}
	}

	return json.RawMessage(repaired), nil
}

// ExtractInto extracts a value of the given shape and decodes it into v.
func ExtractInto(raw string, shape Shape, v any) error {
	data, err := Extract(raw, shape)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode extracted %s: %w", shape, err)
	}
	return nil
}
