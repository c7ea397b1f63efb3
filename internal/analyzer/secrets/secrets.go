// Package secrets finds credentials committed to source files.
package secrets

import (
	"context"
	"regexp"

	"github.com/khanhnv2901/assess/internal/analyzer"
	"github.com/khanhnv2901/assess/internal/domain/finding"
	"github.com/khanhnv2901/assess/internal/domain/source"
)

const (
	Name    = "secrets"
	Version = "1.0.0"
)

const rotate = "Remove the credential from source control, rotate it, and load it from the environment or a secret manager."

var placeholder = regexp.MustCompile(`(?i)['"](\s*|.*(example|sample|dummy|changeme|placeholder|your[_-]?|xxxx|\*\*\*|<[^>]*>|\$\{|\{\{).*)['"]`)

var rules = []analyzer.LineRule{
	{
		ID:          "aws-access-key",
		Title:       "AWS access key id in source",
		Description: "An AWS access key id is embedded in the file. Anyone with read access to the repository can use it.",
		Pattern:     regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`),
		Severity:    finding.SeverityCritical,
		Confidence:  0.9,
	},
	{
		ID:          "private-key",
		Title:       "Private key in source",
		Description: "A PEM encoded private key is embedded in the file.",
		Pattern:     regexp.MustCompile(`-----BEGIN ([A-Z]+ )?PRIVATE KEY-----`),
		Severity:    finding.SeverityCritical,
		Confidence:  0.95,
	},
	{
		ID:          "github-token",
		Title:       "GitHub token in source",
		Description: "A GitHub personal access or app token is embedded in the file.",
		Pattern:     regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,255}\b`),
		Severity:    finding.SeverityHigh,
		Confidence:  0.9,
	},
	{
		ID:          "slack-token",
		Title:       "Slack token in source",
		Description: "A Slack API token is embedded in the file.",
		Pattern:     regexp.MustCompile(`\bxox[baprs]-[0-9A-Za-z-]{10,72}`),
		Severity:    finding.SeverityHigh,
		Confidence:  0.85,
	},
	{
		ID:          "generic-api-key",
		Title:       "Hard-coded API key",
		Description: "A value assigned to an API key or access token variable looks like a real credential.",
		Pattern:     regexp.MustCompile(`(?i)(api|access|auth|secret)[_-]?(key|token)['"]?\s*[:=]\s*['"][A-Za-z0-9_\-./+=]{20,}['"]`),
		Unless:      placeholder,
		Severity:    finding.SeverityHigh,
		Confidence:  0.7,
	},
	{
		ID:          "hardcoded-password",
		Title:       "Hard-coded password",
		Description: "A password-like variable is assigned a string literal.",
		Pattern:     regexp.MustCompile(`(?i)(password|passwd|pwd)\w*['"]?\s*[:=]\s*['"][^'"]{6,}['"]`),
		Unless:      placeholder,
		Severity:    finding.SeverityMedium,
		Confidence:  0.6,
	},
}

func init() {
	for i := range rules {
		rules[i].Category = finding.CategoryAuthFailures
		rules[i].CWE = "CWE-798"
		rules[i].Remediation = rotate
		rules[i].Redact = true
	}
}

// Analyzer scans every source line for credential patterns. Matches are
// masked in the reported code sample.
type Analyzer struct{}

var _ analyzer.Analyzer = Analyzer{}

func New() Analyzer { return Analyzer{} }

func (Analyzer) Name() string    { return Name }
func (Analyzer) Version() string { return Version }

func (Analyzer) Analyze(ctx context.Context, files []*source.ParseResult) ([]finding.Finding, error) {
	return analyzer.ScanLines(ctx, files, rules)
}
