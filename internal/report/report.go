// Package report renders an assessment result as Markdown or JSON.
//
// Rendering is pure: the output depends only on the result, so the same
// result always produces byte-identical reports.
package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"math"
	"path"
	"strings"
	"text/template"
	"time"

	"github.com/khanhnv2901/assess/internal/domain/assessment"
	"github.com/khanhnv2901/assess/internal/domain/finding"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
)

const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"

	markdownTemplatePath = "templates/report.md"
	barWidth             = 40

	jsonPrefix = ""
	jsonIndent = "  "
)

//go:embed templates/report.md
var reportTemplateFS embed.FS

var (
	markdownTemplateFuncs = template.FuncMap{
		"formatTime":   formatTimestamp,
		"location":     location,
		"percent":      percent,
		"fence":        fence,
		"codeLanguage": codeLanguage,
	}

	markdownReportTemplate = template.Must(
		template.New("report.md").Funcs(markdownTemplateFuncs).ParseFS(reportTemplateFS, markdownTemplatePath),
	)
)

// Render dispatches on format name.
func Render(result *assessment.Result, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatMarkdown, "md":
		return Markdown(result)
	case FormatJSON:
		return JSON(result)
	default:
		return "", fmt.Errorf("%w: %q", sharedErrors.ErrUnknownFormat, format)
	}
}

// Markdown renders the human-readable report.
func Markdown(result *assessment.Result) (string, error) {
	if result == nil {
		return "", fmt.Errorf("report: nil result")
	}
	var buf strings.Builder
	if err := markdownReportTemplate.Execute(&buf, buildTemplateData(result)); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", markdownReportTemplate.Name(), err)
	}
	return buf.String(), nil
}

// JSON renders the result with a computed summary block.
func JSON(result *assessment.Result) (string, error) {
	if result == nil {
		return "", fmt.Errorf("report: nil result")
	}
	data, err := json.MarshalIndent(newJSONReport(result), jsonPrefix, jsonIndent)
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

// TemplateData is the view model of the Markdown template.
type TemplateData struct {
	Project         assessment.Project
	Duration        string
	GeneratedAt     time.Time
	Score           int
	PostureLabel    string
	PostureSentence string
	TotalFindings   int
	SeverityRows    []SeverityRow
	CategoryRows    []CategoryRow
	Groups          []SeverityGroup
	Errors          []string
	SuppressedCount int
	Analyzers       []AnalyzerRow
}

type SeverityRow struct {
	Severity finding.Severity
	Count    int
	Weight   int
	Points   int
	Bar      string
}

type CategoryRow struct {
	Category finding.Category
	Title    string
	Count    int
}

type SeverityGroup struct {
	Severity finding.Severity
	Findings []finding.Finding
}

type AnalyzerRow struct {
	Name    string
	Version string
}

func buildTemplateData(result *assessment.Result) TemplateData {
	counts := result.SeverityCounts()
	posture := result.Posture()

	data := TemplateData{
		Project:         result.Project,
		Duration:        formatDuration(result.Project.Duration),
		GeneratedAt:     result.Project.Timestamp.Add(result.Project.Duration),
		Score:           result.RiskScore(),
		PostureLabel:    postureLabel(posture),
		PostureSentence: postureSentence(posture, counts),
		TotalFindings:   len(result.Findings),
		Errors:          result.Errors,
		SuppressedCount: result.SuppressedCount,
	}

	peak := 0
	for _, s := range finding.Severities {
		peak = max(peak, counts[s])
	}
	for _, s := range finding.Severities {
		data.SeverityRows = append(data.SeverityRows, SeverityRow{
			Severity: s,
			Count:    counts[s],
			Weight:   s.Weight(),
			Points:   counts[s] * s.Weight(),
			Bar:      bar(counts[s], peak),
		})
	}

	categories := result.CategoryCounts()
	for _, c := range finding.Categories {
		data.CategoryRows = append(data.CategoryRows, CategoryRow{Category: c, Title: c.Title(), Count: categories[c]})
	}

	grouped := result.FindingsBySeverity()
	for _, s := range finding.Severities {
		if len(grouped[s]) > 0 {
			data.Groups = append(data.Groups, SeverityGroup{Severity: s, Findings: grouped[s]})
		}
	}

	for _, name := range result.AnalyzerNames() {
		data.Analyzers = append(data.Analyzers, AnalyzerRow{Name: name, Version: result.AnalyzerVersions[name]})
	}
	return data
}

// bar scales count against the largest bucket; any non-zero count gets at
// least one cell.
func bar(count, peak int) string {
	if count <= 0 || peak <= 0 {
		return ""
	}
	cells := int(math.Round(float64(count) / float64(peak) * barWidth))
	cells = min(max(cells, 1), barWidth)
	return strings.Repeat("#", cells)
}

func postureLabel(p assessment.Posture) string {
	switch p {
	case assessment.PostureCritical:
		return "Critical"
	case assessment.PostureHigh:
		return "High risk"
	case assessment.PostureModerate:
		return "Moderate risk"
	case assessment.PostureLow:
		return "Low risk"
	case assessment.PostureClean:
		return "Clean"
	default:
		return string(p)
	}
}

func postureSentence(p assessment.Posture, counts map[finding.Severity]int) string {
	switch p {
	case assessment.PostureCritical:
		return fmt.Sprintf("The project has %d critical issue(s) that need immediate remediation before release.", counts[finding.SeverityCritical])
	case assessment.PostureHigh:
		return "The project carries significant security risk. Address the high severity findings before the next release."
	case assessment.PostureModerate:
		return "The project has a moderate security posture. Schedule the reported findings for remediation."
	case assessment.PostureLow:
		return "The project has a good security posture with minor issues to address."
	case assessment.PostureClean:
		return "No security issues were identified in the analyzed files."
	default:
		return ""
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	seconds := d.Seconds()
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	return fmt.Sprintf("%.1f min", seconds/60)
}

func location(f finding.Finding) string {
	if f.LineNumber > 0 {
		return fmt.Sprintf("%s:%d", f.FilePath, f.LineNumber)
	}
	return f.FilePath
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

// fence picks a backtick run longer than any run inside code.
func fence(code string) string {
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}

func codeLanguage(filePath string) string {
	switch path.Ext(filePath) {
	case ".py":
		return "python"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".go", ".mod":
		return "go"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".toml", ".lock":
		return "toml"
	default:
		return ""
	}
}

type jsonSummary struct {
	RiskScore              int            `json:"risk_score"`
	Posture                string         `json:"posture"`
	TotalFindings          int            `json:"total_findings"`
	TotalBeforeSuppression int            `json:"total_before_suppression"`
	SeverityCounts         map[string]int `json:"severity_counts"`
	CategoryCounts         map[string]int `json:"category_counts"`
	DurationSeconds        float64        `json:"duration_seconds"`
	Blocking               bool           `json:"blocking"`
}

type jsonReport struct {
	*assessment.Result
	Summary jsonSummary `json:"summary"`
}

func newJSONReport(result *assessment.Result) jsonReport {
	if result.Findings == nil {
		clone := *result
		clone.Findings = []finding.Finding{}
		result = &clone
	}
	summary := jsonSummary{
		RiskScore:              result.RiskScore(),
		Posture:                string(result.Posture()),
		TotalFindings:          len(result.Findings),
		TotalBeforeSuppression: result.TotalBeforeSuppression(),
		SeverityCounts:         map[string]int{},
		CategoryCounts:         map[string]int{},
		DurationSeconds:        result.Project.Duration.Seconds(),
		Blocking:               result.HasBlockingFindings(),
	}
	for s, n := range result.SeverityCounts() {
		summary.SeverityCounts[string(s)] = n
	}
	for c, n := range result.CategoryCounts() {
		summary.CategoryCounts[string(c)] = n
	}
	return jsonReport{Result: result, Summary: summary}
}
