package transaction

import (
	"fmt"
	"strings"
	"time"

	"finsync/internal/shared/errs"
)

var postedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// NormalizePostedDate converts a provider date string into a UTC instant.
//
// Accepted forms: a bare date ("2024-03-01", midnight UTC), a datetime with
// or without an offset, "T" or space separated, and a trailing "Z". A naive
// datetime is taken as UTC. Fractional seconds beyond microseconds are
// truncated.
func NormalizePostedDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errs.Wrap(errs.ErrValidation, "normalize posted date", fmt.Errorf("empty date"))
	}

	if len(s) == len("2006-01-02") {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return time.Time{}, errs.Wrap(errs.ErrValidation, "normalize posted date", fmt.Errorf("invalid date %q", raw))
		}
		return t.UTC(), nil
	}

	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}
	s = truncateFraction(s)

	for _, layout := range postedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, errs.Wrap(errs.ErrValidation, "normalize posted date", fmt.Errorf("invalid date %q", raw))
}

// truncateFraction keeps at most six fractional-second digits.
func truncateFraction(s string) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}

	end := dot + 1
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end-dot-1 <= 6 {
		return s
	}
	return s[:dot+7] + s[end:]
}
