package ai

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// stripMarkdownCodeBlock removes a ```json ... ``` fence if the model
// wrapped its output in one. Some models do this even when asked for bare
// JSON.
func stripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// ExtractJSON locates the first top-level JSON object or array in raw
// model output. Providers wrap JSON in prose even when told not to, so
// this is a tolerant best-effort scan: fences are stripped first, then
// the decoder is anchored at the first '{' or '[' and balanced to the
// matching close.
//
// A *ParseError (with a snippet for the logs) is returned when nothing
// decodable is found.
func ExtractJSON(feature, raw string) (json.RawMessage, error) {
	text := stripMarkdownCodeBlock(raw)

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return nil, &ParseError{Feature: feature, Snippet: snippet(raw)}
	}

	open := text[start]
	var closer byte = '}'
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if json.Valid([]byte(candidate)) {
					return json.RawMessage(candidate), nil
				}
				return nil, &ParseError{Feature: feature, Snippet: snippet(raw)}
			}
		}
	}

	return nil, &ParseError{Feature: feature, Snippet: snippet(raw)}
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 120 {
		return s
	}
	// cut on a rune boundary so the log line stays valid UTF-8
	n := 120
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
