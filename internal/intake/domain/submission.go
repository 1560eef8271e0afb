package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf16"
)

const (
	// MaxMessageLength is the inclusive upper bound on a trimmed message, in UTF-16 code units.
	MaxMessageLength = 500
	// CooldownWindow is the minimum interval between accepted submissions per source key.
	CooldownWindow = 5 * time.Second
)

// Submission is a validated visitor message.
type Submission struct {
	Message string
}

// ParseSubmission decodes a raw request body and validates the message field.
// Checks run in order and stop at the first failure.
func ParseSubmission(raw []byte) (Submission, error) {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return Submission{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	fields, _ := body.(map[string]any)
	message, ok := fields["message"].(string)
	if !ok {
		return Submission{}, ErrInvalidField
	}

	return NewSubmission(message)
}

// NewSubmission trims message and applies the length rules.
// Length is measured in UTF-16 code units so astral characters count twice,
// matching what browser clients see in a textarea counter.
func NewSubmission(message string) (Submission, error) {
	trimmed := strings.TrimFunc(message, isTrimmable)
	if trimmed == "" {
		return Submission{}, ErrEmptyMessage
	}
	if MessageLength(trimmed) > MaxMessageLength {
		return Submission{}, fmt.Errorf("%w: must be under %d characters", ErrMessageTooLong, MaxMessageLength)
	}
	return Submission{Message: trimmed}, nil
}

// MessageLength counts s in UTF-16 code units.
func MessageLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// isTrimmable は前後から除去する文字。BOM (U+FEFF) も空白として扱う。
func isTrimmable(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
