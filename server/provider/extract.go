package provider

import (
	"encoding/json"
	"strings"
)

// ExtractJSON locates the single JSON object embedded in model output.
// Models routinely wrap their JSON in prose or markdown fences, so the
// text is cleaned first and then scanned for the outermost matching
// braces. Fails with *ParseError when no well-formed object is found.
func ExtractJSON(text string) ([]byte, error) {
	cleaned := stripFences(strings.TrimSpace(text))

	start := strings.IndexByte(cleaned, '{')
	if start < 0 {
		return nil, &ParseError{Reason: "no JSON object in model output"}
	}

	end, ok := matchBrace(cleaned, start)
	if !ok {
		return nil, &ParseError{Reason: "unbalanced braces in model output"}
	}

	candidate := []byte(cleaned[start : end+1])
	if !json.Valid(candidate) {
		return nil, &ParseError{Reason: "extracted object is not valid JSON"}
	}
	return candidate, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// matchBrace returns the index of the brace closing the object opened at
// start, skipping braces inside JSON strings.
func matchBrace(s string, start int) (int, bool) {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
