package utils

import (
	"encoding/json"
)

// FirstJSONValue scans text for the first syntactically valid top-level JSON
// object or array and returns the raw span together with its start offset.
// Model replies routinely wrap the payload in prose ("Sure! Here is the
// outline: [...] Hope that helps!"), so the scanner cannot assume the JSON
// starts at offset 0, and braces inside string literals must not move the
// nesting depth.
//
// String state is tracked across the whole input, not just inside
// candidates: a delimiter sitting in a quoted literal in the surrounding
// prose (`use "{}" as the default`) never starts a candidate, so a
// decorative brace pair cannot shadow the real payload that follows it.
//
// A balanced span that still fails to parse (decorative braces in a code
// example, for instance) is skipped and the scan resumes one byte after its
// opening delimiter, so a later real payload is still found.
func FirstJSONValue(s string) (string, int, bool) {
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			end := scanBalanced(s, i)
			if end < 0 {
				// Candidate never closed; nothing after its opener can
				// close either.
				return "", 0, false
			}
			span := s[i : end+1]
			if json.Valid([]byte(span)) {
				return span, i, true
			}
			// Invalid span: re-scan from the byte after the opener. The
			// opener sat outside a string, so the resumed scan does too.
		}
	}
	return "", 0, false
}

// scanBalanced returns the offset of the closer matching the opener at
// start, or -1 if the span never closes. The candidate keeps its own string
// state so quoted delimiters inside the span do not move the depth.
func scanBalanced(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
