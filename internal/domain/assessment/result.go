package assessment

import (
	"sort"
	"time"

	"github.com/khanhnv2901/assess/internal/domain/finding"
)

// Project describes the scanned tree.
type Project struct {
	Name      string        `json:"name"`
	Path      string        `json:"path"`
	FileCount int           `json:"file_count"`
	Duration  time.Duration `json:"-"`
	Timestamp time.Time     `json:"timestamp"`
}

// Result aggregates everything a report needs about one run.
type Result struct {
	Project          Project           `json:"project"`
	Findings         []finding.Finding `json:"findings"`
	SuppressedCount  int               `json:"suppressed_count"`
	AnalyzerVersions map[string]string `json:"analyzer_versions"`
	Errors           []string          `json:"errors,omitempty"`
}

// Posture is the qualitative verdict derived from the risk score.
type Posture string

const (
	PostureCritical Posture = "critical"
	PostureHigh     Posture = "high"
	PostureModerate Posture = "moderate"
	PostureLow      Posture = "low"
	PostureClean    Posture = "clean"
)

const (
	highRiskScore     = 50
	moderateRiskScore = 20
)

// TotalBeforeSuppression is the number of findings the analyzers produced.
func (r *Result) TotalBeforeSuppression() int {
	return r.SuppressedCount + len(r.Findings)
}

// SeverityCounts is the severity histogram of the reported findings. Every
// severity is present, zero counts included.
func (r *Result) SeverityCounts() map[finding.Severity]int {
	counts := make(map[finding.Severity]int, len(finding.Severities))
	for _, s := range finding.Severities {
		counts[s] = 0
	}
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// CategoryCounts counts findings per OWASP category; all ten are present.
func (r *Result) CategoryCounts() map[finding.Category]int {
	counts := make(map[finding.Category]int, len(finding.Categories))
	for _, c := range finding.Categories {
		counts[c] = 0
	}
	for _, f := range r.Findings {
		counts[f.Category]++
	}
	return counts
}

// RiskScore weights findings 10/5/2/1 for CRITICAL/HIGH/MEDIUM/LOW.
func (r *Result) RiskScore() int {
	score := 0
	for _, f := range r.Findings {
		score += f.Severity.Weight()
	}
	return score
}

// Posture maps the score and the presence of critical findings to a verdict.
func (r *Result) Posture() Posture {
	if r.SeverityCounts()[finding.SeverityCritical] > 0 {
		return PostureCritical
	}
	score := r.RiskScore()
	switch {
	case score >= highRiskScore:
		return PostureHigh
	case score >= moderateRiskScore:
		return PostureModerate
	case score > 0:
		return PostureLow
	default:
		return PostureClean
	}
}

// HasBlockingFindings reports whether any CRITICAL or HIGH finding remains.
func (r *Result) HasBlockingFindings() bool {
	for _, f := range r.Findings {
		if f.Severity.Blocking() {
			return true
		}
	}
	return false
}

// FindingsBySeverity groups findings preserving their order inside a group.
func (r *Result) FindingsBySeverity() map[finding.Severity][]finding.Finding {
	grouped := make(map[finding.Severity][]finding.Finding)
	for _, f := range r.Findings {
		grouped[f.Severity] = append(grouped[f.Severity], f)
	}
	return grouped
}

// AnalyzerNames returns the analyzer names in lexical order.
func (r *Result) AnalyzerNames() []string {
	names := make([]string, 0, len(r.AnalyzerVersions))
	for name := range r.AnalyzerVersions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
