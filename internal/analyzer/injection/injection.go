// Package injection flags query strings built from untrusted input and calls
// that hand data to an interpreter, a shell or the DOM.
package injection

import (
	"context"
	"regexp"
	"strings"

	"github.com/khanhnv2901/assess/internal/analyzer"
	"github.com/khanhnv2901/assess/internal/domain/finding"
	"github.com/khanhnv2901/assess/internal/domain/source"
)

const (
	Name    = "injection"
	Version = "1.1.0"
)

// reDynamicQuery matches the usual ways a query string is assembled at
// runtime: concatenation, printf and format calls, f-strings and template
// literals.
var reDynamicQuery = regexp.MustCompile(`(["'\x60]\s*\+|\+\s*["'\x60]|["']\s*%\s*[(\w]|\.format\(|\bf["']|\$\{|Sprintf\()`)

// reShellInvocation spots an explicit shell in a Go exec call.
var reShellInvocation = regexp.MustCompile(`"(sh|bash|zsh|cmd|cmd\.exe|powershell)"\s*,\s*"(-c|/c|-Command)"`)

type callKind struct {
	rule        string
	title       string
	severity    finding.Severity
	cwe         string
	description string
	remediation string
}

var (
	commandInjection = callKind{
		rule:        "command-injection",
		title:       "OS command built from program data",
		severity:    finding.SeverityHigh,
		cwe:         "CWE-78",
		description: "The call runs an operating system command through a shell. Input that reaches the command string can execute arbitrary commands.",
		remediation: "Pass arguments as a list without a shell and validate them against an allow list.",
	}
	codeInjection = callKind{
		rule:        "code-injection",
		title:       "Dynamic code evaluation",
		severity:    finding.SeverityHigh,
		cwe:         "CWE-95",
		description: "The call evaluates a string as code. Input that reaches it runs with the application's privileges.",
		remediation: "Replace dynamic evaluation with explicit parsing or a lookup table of allowed operations.",
	}
	crossSiteScripting = callKind{
		rule:        "xss",
		title:       "Unescaped HTML output",
		severity:    finding.SeverityMedium,
		cwe:         "CWE-79",
		description: "Markup is written to the page without escaping. Input that reaches it can inject script.",
		remediation: "Use text APIs such as textContent or the framework's escaping, and sanitize any HTML that must be rendered.",
	}
	sqlInjection = callKind{
		rule:        "sql-injection",
		title:       "SQL query built from program data",
		severity:    finding.SeverityHigh,
		cwe:         "CWE-89",
		description: "The query text is assembled at runtime. Input that reaches it can change the statement.",
		remediation: "Use parameterized queries or prepared statements and pass values as bind parameters.",
	}
)

var callKinds = map[string]callKind{
	"os.system":               commandInjection,
	"os.popen":                commandInjection,
	"subprocess.shell":        commandInjection,
	"child_process.exec":      commandInjection,
	"exec.Command":            commandInjection,
	"exec.CommandContext":     commandInjection,
	"syscall.Exec":            commandInjection,
	"eval":                    codeInjection,
	"exec":                    codeInjection,
	"Function":                codeInjection,
	"setTimeout.string":       codeInjection,
	"innerHTML":               crossSiteScripting,
	"document.write":          crossSiteScripting,
	"dangerouslySetInnerHTML": crossSiteScripting,
	"template.HTML":           crossSiteScripting,
	"template.JS":             crossSiteScripting,
	"template.URL":            crossSiteScripting,
}

// Analyzer reports injection risks from parser extractions.
type Analyzer struct{}

var _ analyzer.Analyzer = Analyzer{}

func New() Analyzer { return Analyzer{} }

func (Analyzer) Name() string    { return Name }
func (Analyzer) Version() string { return Version }

func (Analyzer) Analyze(ctx context.Context, files []*source.ParseResult) ([]finding.Finding, error) {
	var out []finding.Finding
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if f == nil || !f.Language.IsSource() {
			continue
		}
		out = append(out, queryFindings(f)...)
		out = append(out, callFindings(f)...)
	}
	return out, nil
}

func queryFindings(f *source.ParseResult) []finding.Finding {
	var out []finding.Finding
	seen := map[int]bool{}
	for _, q := range f.Queries {
		if seen[q.Line] || !reDynamicQuery.MatchString(q.Text) {
			continue
		}
		seen[q.Line] = true
		out = append(out, build(f, sqlInjection, q.Line, q.Text, 0.7, map[string]any{"construct": "query"}))
	}
	for _, c := range f.DangerousCalls {
		if !strings.HasPrefix(c.Name, "sql.") || seen[c.Line] {
			continue
		}
		seen[c.Line] = true
		out = append(out, build(f, sqlInjection, c.Line, c.Text, 0.6, map[string]any{"call": c.Name}))
	}
	return out
}

func callFindings(f *source.ParseResult) []finding.Finding {
	var out []finding.Finding
	for _, c := range f.DangerousCalls {
		kind, ok := callKinds[c.Name]
		if !ok {
			continue
		}
		confidence := 0.6
		if kind == commandInjection && strings.HasPrefix(c.Name, "exec.") {
			// argv-style exec is only a shell when one is named explicitly
			if !reShellInvocation.MatchString(c.Text) {
				kind.severity = finding.SeverityMedium
				kind.title = "External command executed"
				kind.description = "The program starts an external command. Arguments derived from input can alter what runs."
				confidence = 0.4
			}
		}
		if kind == codeInjection && c.Name == "setTimeout.string" {
			kind.severity = finding.SeverityMedium
		}
		out = append(out, build(f, kind, c.Line, c.Text, confidence, map[string]any{"call": c.Name}))
	}
	return out
}

func build(f *source.ParseResult, kind callKind, line int, text string, confidence float64, meta map[string]any) finding.Finding {
	meta["language"] = string(f.Language)
	return finding.Finding{
		RuleID:      kind.rule,
		Category:    finding.CategoryInjection,
		Severity:    kind.severity,
		Title:       kind.title,
		Description: kind.description,
		FilePath:    f.FilePath,
		LineNumber:  line,
		CodeSample:  finding.Snippet(text),
		Remediation: kind.remediation,
		CWE:         kind.cwe,
		Confidence:  confidence,
		Metadata:    meta,
	}
}
