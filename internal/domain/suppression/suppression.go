package suppression

import (
	"fmt"
	"strings"
	"time"

	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
	"github.com/khanhnv2901/assess/internal/shared/security"
)

// DateLayout is the ISO-8601 calendar date format of the expires field.
const DateLayout = "2006-01-02"

// Suppression authorizes hiding one finding (or every finding of a rule in a
// file when LineNumber is nil) until it expires.
type Suppression struct {
	RuleID     string
	FilePath   string
	LineNumber *int
	Reason     string
	Expires    time.Time
	CreatedBy  string
	ApprovedBy string
}

// Config is the parsed suppression file.
type Config struct {
	Version      string
	Suppressions []Suppression
}

// ParseExpires accepts a calendar date or a full RFC 3339 timestamp and
// returns the calendar date in UTC.
func ParseExpires(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(DateLayout, raw); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		y, m, d := ts.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", sharedErrors.ErrInvalidDate, raw)
}

// IsExpired reports whether now falls on a day after the expiry date. The
// expiry day itself is still covered.
func (s Suppression) IsExpired(now time.Time) bool {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ey, em, ed := s.Expires.Date()
	expires := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return today.After(expires)
}

// Location renders file[:line] for log lines and reports.
func (s Suppression) Location() string {
	if s.LineNumber == nil {
		return s.FilePath
	}
	return fmt.Sprintf("%s:%d", s.FilePath, *s.LineNumber)
}

// Matches reports whether the rule covers a finding at the given location.
func (s Suppression) Matches(ruleID, filePath string, line int) bool {
	if s.RuleID != ruleID {
		return false
	}
	if security.NormalizeRel(s.FilePath) != security.NormalizeRel(filePath) {
		return false
	}
	return s.LineNumber == nil || *s.LineNumber == line
}
