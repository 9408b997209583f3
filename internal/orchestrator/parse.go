package orchestrator

import (
	"strconv"
	"strings"

	"github.com/samber/lo"

	"deepcut-desktop/internal/domain"
)

// ParseIDs splits comma-separated text and keeps every token that starts with
// an integer. Other tokens are dropped; order and duplicates are preserved.
func ParseIDs(raw string) []domain.BookID {
	return lo.FilterMap(strings.Split(raw, ","), func(token string, _ int) (domain.BookID, bool) {
		return parseLeadingInt(token)
	})
}

// FormatIDs renders ids the way the book-ID field shows them.
func FormatIDs(ids []domain.BookID) string {
	return strings.Join(lo.Map(ids, func(id domain.BookID, _ int) string {
		return strconv.Itoa(id)
	}), ", ")
}

// parseLeadingInt reads an optional sign followed by decimal digits and
// ignores anything after the digits ("12abc" is 12, "abc" is rejected).
func parseLeadingInt(token string) (int, bool) {
	s := strings.TrimSpace(token)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
