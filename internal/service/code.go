package service

import (
	"strconv"
	"strings"
)

// DefaultBadgePrefix is printed on badges and accepted by DecodeCode.
const DefaultBadgePrefix = "AGFI"

// BadgeCode returns the canonical badge code of an attendee, e.g. AGFI-42.
func BadgeCode(prefix string, attendeeID uint64) string {
	return prefix + "-" + strconv.FormatUint(attendeeID, 10)
}

// DecodeCode extracts the attendee id from a scanned or typed code. Both
// "<prefix>-42" (case-insensitive) and a bare "42" are accepted. ok is false
// for empty or non-numeric input; callers report that as a client error.
func DecodeCode(raw, prefix string) (id uint64, ok bool) {
	s := strings.TrimSpace(raw)
	head := strings.ToUpper(prefix) + "-"
	if len(s) >= len(head) && strings.ToUpper(s[:len(head)]) == head {
		s = s[len(head):]
	}
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}
