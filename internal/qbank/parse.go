package qbank

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawQuestion mirrors the JSON objects the generation prompt asks for.
type rawQuestion struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Passage       string   `json:"passage"`
	Group         string   `json:"group"`
}

// parseQuestionArray recovers a question array from free-form model output.
// It tolerates surrounding prose and code fences by locating the first
// balanced [...] span. ok is false when no array is present at all, which
// callers treat as the essay signal.
func parseQuestionArray(raw string) (qs []rawQuestion, ok bool, err error) {
	span := firstArraySpan(stripCodeFences(raw))
	if span == "" {
		return nil, false, nil
	}
	if err := json.Unmarshal([]byte(span), &qs); err != nil {
		return nil, true, fmt.Errorf("decode question array: %w", err)
	}
	return qs, true, nil
}

// firstArraySpan returns the first balanced top-level JSON array in s, or "".
func firstArraySpan(s string) string {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return ""
	}
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
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
