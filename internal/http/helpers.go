package http

import (
	"strings"

	"github.com/google/uuid"
)

// sanitizeInput removes control characters (except tab and newlines) and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// requestID returns the caller's X-Request-ID when it looks sane, otherwise
// a fresh uuid.
func requestID(header string) string {
	header = strings.TrimSpace(header)
	if header != "" && len(header) <= 64 && !strings.ContainsAny(header, " \t\r\n") {
		return header
	}
	return uuid.NewString()
}
