// Package misconfig flags insecure settings and risky library usage:
// disabled TLS verification, debug mode, weak hashes, permissive CORS,
// unsafe deserialization and CSRF exemptions.
package misconfig

import (
	"context"
	"regexp"
	"strings"

	"github.com/khanhnv2901/assess/internal/analyzer"
	"github.com/khanhnv2901/assess/internal/domain/finding"
	"github.com/khanhnv2901/assess/internal/domain/source"
)

const (
	Name    = "misconfig"
	Version = "1.0.0"
)

var lineRules = []analyzer.LineRule{
	{
		ID:           "tls-verification-disabled",
		Title:        "TLS certificate verification disabled",
		Description:  "Certificate checks are turned off, so any host can impersonate the server.",
		Remediation:  "Keep verification enabled and trust a private CA explicitly when one is needed.",
		Category:     finding.CategoryCryptographicFailures,
		Severity:     finding.SeverityHigh,
		CWE:          "CWE-295",
		Confidence:   0.85,
		Pattern:      regexp.MustCompile(`\bverify\s*=\s*False\b|InsecureSkipVerify:\s*true|rejectUnauthorized:\s*false|NODE_TLS_REJECT_UNAUTHORIZED['"]?\]?\s*=\s*['"]?0`),
		SkipComments: true,
	},
	{
		ID:           "weak-hash",
		Title:        "Weak hash algorithm",
		Description:  "MD5 and SHA-1 are broken for collision resistance and unsuitable for passwords or signatures.",
		Remediation:  "Use SHA-256 or stronger; hash passwords with bcrypt, scrypt or Argon2.",
		Category:     finding.CategoryCryptographicFailures,
		Severity:     finding.SeverityMedium,
		CWE:          "CWE-328",
		Confidence:   0.6,
		Pattern:      regexp.MustCompile(`\bhashlib\.(md5|sha1)\s*\(|\b(md5|sha1)\.(New|Sum)\w*\(|createHash\(\s*['"](md5|sha1)['"]`),
		Unless:       regexp.MustCompile(`usedforsecurity\s*=\s*False`),
		SkipComments: true,
	},
	{
		ID:           "debug-enabled",
		Title:        "Debug mode enabled",
		Description:  "Debug mode exposes stack traces and interactive consoles to clients.",
		Remediation:  "Drive debug mode from the environment and keep it off in production.",
		Category:     finding.CategorySecurityMisconfig,
		Severity:     finding.SeverityMedium,
		CWE:          "CWE-489",
		Confidence:   0.7,
		Pattern:      regexp.MustCompile(`^\s*DEBUG\s*=\s*True\b|\.run\(.*\bdebug\s*=\s*True`),
		Languages:    []source.Language{source.LanguagePython},
		SkipComments: true,
	},
	{
		ID:           "cors-wildcard",
		Title:        "CORS allows any origin",
		Description:  "A wildcard origin lets every site read responses from this service.",
		Remediation:  "List the trusted origins explicitly.",
		Category:     finding.CategorySecurityMisconfig,
		Severity:     finding.SeverityMedium,
		CWE:          "CWE-942",
		Confidence:   0.6,
		Pattern:      regexp.MustCompile(`(?i)access-control-allow-origin['"]?\s*[,:=]\s*['"]\*['"]|\borigins?\s*[:=]\s*['"]\*['"]|CORS_ORIGIN_ALLOW_ALL\s*=\s*True`),
		SkipComments: true,
	},
}

var deserializers = map[string]bool{
	"pickle.loads":  true,
	"marshal.loads": true,
	"yaml.load":     true,
}

// Analyzer combines line rules with parser extractions.
type Analyzer struct{}

var _ analyzer.Analyzer = Analyzer{}

func New() Analyzer { return Analyzer{} }

func (Analyzer) Name() string    { return Name }
func (Analyzer) Version() string { return Version }

func (Analyzer) Analyze(ctx context.Context, files []*source.ParseResult) ([]finding.Finding, error) {
	out, err := analyzer.ScanLines(ctx, files, lineRules)
	if err != nil {
		return out, err
	}

	for _, f := range files {
		if f == nil || !f.Language.IsSource() {
			continue
		}
		for _, c := range f.DangerousCalls {
			if !deserializers[c.Name] {
				continue
			}
			out = append(out, finding.Finding{
				RuleID:      "unsafe-deserialization",
				Category:    finding.CategoryIntegrityFailures,
				Severity:    finding.SeverityHigh,
				Title:       "Unsafe deserialization",
				Description: "Deserializing untrusted data with " + c.Name + " can execute arbitrary code.",
				FilePath:    f.FilePath,
				LineNumber:  c.Line,
				CodeSample:  finding.Snippet(c.Text),
				Remediation: "Use a data-only format such as JSON, or yaml.safe_load, for untrusted input.",
				CWE:         "CWE-502",
				Confidence:  0.7,
			})
		}
		for _, d := range f.Decorators {
			if !strings.Contains(d.Text, "csrf_exempt") {
				continue
			}
			out = append(out, finding.Finding{
				RuleID:      "csrf-exempt",
				Category:    finding.CategoryBrokenAccessControl,
				Severity:    finding.SeverityMedium,
				Title:       "CSRF protection disabled for view",
				Description: "The view opts out of CSRF checks, so other sites can submit state-changing requests on a user's behalf.",
				FilePath:    f.FilePath,
				LineNumber:  d.Line,
				CodeSample:  finding.Snippet(d.Text),
				Remediation: "Remove the exemption or require a token-based authentication scheme for this endpoint.",
				CWE:         "CWE-352",
				Confidence:  0.8,
			})
		}
	}
	return out, nil
}
