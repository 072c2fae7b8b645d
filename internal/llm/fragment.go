// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoFragment is returned when a completion holds no balanced JSON
// fragment of the requested kind.
var ErrNoFragment = errors.New("no balanced JSON fragment")

// ExtractObject returns the first balanced {...} substring of text.
// Completions often wrap JSON in prose or code fences; braces inside
// JSON strings do not count toward balance.
func ExtractObject(text string) (string, bool) {
	return extractBalanced(text, '{', '}')
}

// ExtractArray returns the first balanced [...] substring of text.
func ExtractArray(text string) (string, bool) {
	return extractBalanced(text, '[', ']')
}

func extractBalanced(text string, open, close byte) (string, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != open {
			continue
		}
		if end, ok := matchClose(text, start, open, close); ok {
			return text[start : end+1], true
		}
	}
	return "", false
}

// matchClose scans from text[start] (an opening delimiter) and returns
// the index of its matching close.
func matchClose(text string, start int, open, close byte) (int, bool) {
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
		case close:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// DecodeObject extracts the first balanced object from text and decodes
// it into v. Fragments that balance but fail to decode are skipped in
// favour of later ones.
func DecodeObject(text string, v any) error {
	return decodeFirst(text, '{', '}', v)
}

// DecodeArray is DecodeObject for arrays.
func DecodeArray(text string, v any) error {
	return decodeFirst(text, '[', ']', v)
}

func decodeFirst(text string, open, close byte, v any) error {
	var lastErr error
	for start := 0; start < len(text); start++ {
		if text[start] != open {
			continue
		}
		end, ok := matchClose(text, start, open, close)
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %v", ErrNoFragment, lastErr)
	}
	return ErrNoFragment
}
