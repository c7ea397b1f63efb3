package finding

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	consts "github.com/khanhnv2901/assess/internal/shared/constants"
)

// Finding is one reported security issue.
type Finding struct {
	ID          int            `json:"id"`
	RuleID      string         `json:"rule_id"`
	Category    Category       `json:"category"`
	Severity    Severity       `json:"severity"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	FilePath    string         `json:"file_path"`
	LineNumber  int            `json:"line_number"`
	CodeSample  string         `json:"code_sample,omitempty"`
	Remediation string         `json:"remediation"`
	CWE         string         `json:"cwe,omitempty"`
	Confidence  float64        `json:"confidence"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// DisplayID renders the identifier shown in reports.
func (f Finding) DisplayID() string {
	if f.ID == 0 {
		return "SEC-???"
	}
	return fmt.Sprintf("SEC-%03d", f.ID)
}

// Validate checks the closed enumerations and the confidence range.
func (f Finding) Validate() error {
	if f.RuleID == "" {
		return fmt.Errorf("finding %q: rule id is required", f.Title)
	}
	if !f.Severity.Valid() {
		return fmt.Errorf("finding %q: invalid severity %q", f.Title, f.Severity)
	}
	if !f.Category.Valid() {
		return fmt.Errorf("finding %q: invalid category %q", f.Title, f.Category)
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return fmt.Errorf("finding %q: confidence %.2f outside [0,1]", f.Title, f.Confidence)
	}
	return nil
}

// Less orders findings by severity (most severe first), file path, then line.
// Rule id and title break remaining ties so concurrent producers still yield
// a deterministic order.
func Less(a, b Finding) bool {
	if ra, rb := a.Severity.Rank(), b.Severity.Rank(); ra != rb {
		return ra > rb
	}
	if a.FilePath != b.FilePath {
		return a.FilePath < b.FilePath
	}
	if a.LineNumber != b.LineNumber {
		return a.LineNumber < b.LineNumber
	}
	if a.RuleID != b.RuleID {
		return a.RuleID < b.RuleID
	}
	return a.Title < b.Title
}

// SortAndNumber returns a sorted copy of findings with IDs assigned 1..n in
// that order. The input slice is left untouched.
func SortAndNumber(findings []Finding) []Finding {
	out := make([]Finding, len(findings))
	copy(out, findings)
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	for i := range out {
		out[i].ID = i + 1
	}
	return out
}

// Snippet trims a code excerpt to a single bounded line.
func Snippet(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= consts.CodeSampleMaxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:consts.CodeSampleMaxRunes-3]) + "..."
}
