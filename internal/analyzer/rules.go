package analyzer

import (
	"context"
	"regexp"
	"strings"

	"github.com/khanhnv2901/assess/internal/domain/finding"
	"github.com/khanhnv2901/assess/internal/domain/source"
)

// LineRule is a single-line pattern check shared by the pattern-based
// analyzers.
type LineRule struct {
	ID          string
	Title       string
	Description string
	Remediation string
	Category    finding.Category
	Severity    finding.Severity
	CWE         string
	Confidence  float64
	Pattern     *regexp.Regexp
	// Unless suppresses a match when it also matches the line.
	Unless *regexp.Regexp
	// Languages restricts the rule; empty means every source language.
	Languages []source.Language
	// SkipComments ignores whole-line comments.
	SkipComments bool
	// Redact masks the matched text in the code sample.
	Redact bool
}

func (r LineRule) appliesTo(lang source.Language) bool {
	if len(r.Languages) == 0 {
		return lang.IsSource()
	}
	for _, l := range r.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// ScanLines applies rules to every line of every source file. One finding is
// produced per rule and line. Scanning stops early when ctx is cancelled.
func ScanLines(ctx context.Context, files []*source.ParseResult, rules []LineRule) ([]finding.Finding, error) {
	var out []finding.Finding
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if f == nil || !f.Language.IsSource() {
			continue
		}
		comment := CommentPrefix(f.Language)
		for i, line := range f.Lines {
			isComment := comment != "" && strings.HasPrefix(strings.TrimSpace(line), comment)
			for _, rule := range rules {
				if !rule.appliesTo(f.Language) || (rule.SkipComments && isComment) {
					continue
				}
				loc := rule.Pattern.FindStringIndex(line)
				if loc == nil {
					continue
				}
				if rule.Unless != nil && rule.Unless.MatchString(line) {
					continue
				}
				sample := line
				if rule.Redact {
					sample = line[:loc[0]] + Mask(line[loc[0]:loc[1]]) + line[loc[1]:]
				}
				out = append(out, finding.Finding{
					RuleID:      rule.ID,
					Category:    rule.Category,
					Severity:    rule.Severity,
					Title:       rule.Title,
					Description: rule.Description,
					FilePath:    f.FilePath,
					LineNumber:  i + 1,
					CodeSample:  finding.Snippet(sample),
					Remediation: rule.Remediation,
					CWE:         rule.CWE,
					Confidence:  rule.Confidence,
				})
			}
		}
	}
	return out, nil
}

// CommentPrefix returns the line comment marker of a source language.
func CommentPrefix(lang source.Language) string {
	switch lang {
	case source.LanguagePython:
		return "#"
	case source.LanguageJavaScript, source.LanguageTypeScript, source.LanguageGo:
		return "//"
	default:
		return ""
	}
}

// Mask keeps the first four characters of a secret and hides the rest.
func Mask(s string) string {
	const keep = 4
	if len(s) <= keep {
		return strings.Repeat("*", len(s))
	}
	return s[:keep] + strings.Repeat("*", min(len(s)-keep, 16))
}
