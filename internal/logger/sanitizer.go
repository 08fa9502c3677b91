package logger

import (
	"fmt"
	"regexp"
	"strings"
)

// Sanitizer masks statement parameters bound to sensitive columns before they are logged.
type Sanitizer struct {
	sensitiveFields []string
	maskValue       string
	patterns        []*regexp.Regexp
}

// NewSanitizer creates a sanitizer for the given column names.
// If no fields are provided, a default set of common sensitive names is used.
func NewSanitizer(sensitiveFields []string) *Sanitizer {
	if len(sensitiveFields) == 0 {
		sensitiveFields = []string{
			"password", "passwd", "pwd",
			"token", "api_key", "apikey", "api_token",
			"secret", "auth", "authorization",
			"credit_card", "card_number", "cvv", "cvc",
			"ssn", "social_security",
			"private_key", "priv_key",
		}
	}

	patterns := make([]*regexp.Regexp, 0, len(sensitiveFields))
	for _, field := range sensitiveFields {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(field)+`\b`))
	}

	return &Sanitizer{
		sensitiveFields: sensitiveFields,
		maskValue:       "***REDACTED***",
		patterns:        patterns,
	}
}

// MaskParams masks parameters for logging. When the originating column of each parameter is
// known (cols parallel to params, empty for unknown), only parameters of sensitive columns
// are masked. Otherwise every parameter is masked once the SQL names a sensitive field.
// The input slice is never modified.
func (s *Sanitizer) MaskParams(sql string, params []any, cols []string) []any {
	if len(params) == 0 || !s.isSensitive(sql) {
		return params
	}

	masked := make([]any, len(params))
	for i, p := range params {
		if i < len(cols) && cols[i] != "" && !s.isSensitive(cols[i]) {
			masked[i] = p
			continue
		}
		masked[i] = s.maskValue
	}
	return masked
}

func (s *Sanitizer) isSensitive(text string) bool {
	for _, pattern := range s.patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// FormatParams converts parameters to a bounded string for logging.
// Sensitive values should be masked using MaskParams before calling this.
func (s *Sanitizer) FormatParams(params []any) string {
	if len(params) == 0 {
		return "[]"
	}

	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = formatValue(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}

	str := fmt.Sprintf("%v", v)

	const maxLen = 100
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}
