package suppression

import (
	"time"

	"github.com/khanhnv2901/assess/internal/domain/finding"
	"go.uber.org/zap"
)

// Partition splits rules into active and expired sets without side effects.
func Partition(rules []Suppression, now time.Time) (active, expired []Suppression) {
	for _, r := range rules {
		if r.IsExpired(now) {
			expired = append(expired, r)
			continue
		}
		active = append(active, r)
	}
	return active, expired
}

// Outcome is the result of filtering findings through active suppressions.
type Outcome struct {
	Kept       []finding.Finding
	Suppressed []finding.Finding
}

// SuppressedCount is the number of findings removed.
func (o Outcome) SuppressedCount() int {
	return len(o.Suppressed)
}

// Apply filters findings against active rules. The input slice is never
// modified; callers must pass only rules returned as active by Partition.
func Apply(findings []finding.Finding, active []Suppression) Outcome {
	out := Outcome{Kept: make([]finding.Finding, 0, len(findings))}
	for _, f := range findings {
		if matchesAny(f, active) {
			out.Suppressed = append(out.Suppressed, f)
			continue
		}
		out.Kept = append(out.Kept, f)
	}
	return out
}

func matchesAny(f finding.Finding, rules []Suppression) bool {
	for _, r := range rules {
		if r.Matches(f.RuleID, f.FilePath, f.LineNumber) {
			return true
		}
	}
	return false
}

// LogExpired reports stale rules so they are visible to whoever owns the
// suppression file.
func LogExpired(logger *zap.SugaredLogger, expired []Suppression) {
	if logger == nil {
		return
	}
	for _, r := range expired {
		logger.Warnw("suppression expired; finding will be reported",
			"rule_id", r.RuleID,
			"location", r.Location(),
			"expired", r.Expires.Format(DateLayout),
			"created_by", r.CreatedBy,
		)
	}
}

// LogSuppressed records which findings were hidden, at debug level.
func LogSuppressed(logger *zap.SugaredLogger, suppressed []finding.Finding) {
	if logger == nil {
		return
	}
	for _, f := range suppressed {
		logger.Debugw("finding suppressed", "rule_id", f.RuleID, "file", f.FilePath, "line", f.LineNumber)
	}
}
