package parser

import (
	"regexp"
	"strings"

	"github.com/khanhnv2901/assess/internal/domain/source"
)

// callRule flags a dangerous call. unless suppresses the match when the line
// also contains it (e.g. yaml.load with SafeLoader).
type callRule struct {
	name   string
	re     *regexp.Regexp
	unless string
}

var (
	reSQLStatement = regexp.MustCompile(`(?i)^\s*(select\s.+\sfrom|insert\s+into|update\s.+\sset|delete\s+from|replace\s+into|drop\s+(table|database)|create\s+table|alter\s+table|truncate\s+table)\b`)
	reDecorator    = regexp.MustCompile(`^\s*@([A-Za-z_][\w.]*)`)

	rePyLiteral = regexp.MustCompile(`(?i)([rbuf]{0,2})("(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*')`)
	reJSLiteral = regexp.MustCompile("(\"(?:[^\"\\\\]|\\\\.)*\"|'(?:[^'\\\\]|\\\\.)*'|`(?:[^`\\\\]|\\\\.)*`)")
)

var pythonCallRules = []callRule{
	{name: "eval", re: regexp.MustCompile(`(^|[^.\w])eval\s*\(`)},
	{name: "exec", re: regexp.MustCompile(`(^|[^.\w])exec\s*\(`)},
	{name: "os.system", re: regexp.MustCompile(`\bos\.system\s*\(`)},
	{name: "os.popen", re: regexp.MustCompile(`\bos\.popen\s*\(`)},
	{name: "subprocess.shell", re: regexp.MustCompile(`\bsubprocess\.\w+\s*\(.*\bshell\s*=\s*True`)},
	{name: "pickle.loads", re: regexp.MustCompile(`\b(c?pickle)\.loads?\s*\(`)},
	{name: "marshal.loads", re: regexp.MustCompile(`\bmarshal\.loads?\s*\(`)},
	{name: "yaml.load", re: regexp.MustCompile(`\byaml\.(unsafe_)?load\s*\(`), unless: "SafeLoader"},
}

var javascriptCallRules = []callRule{
	{name: "eval", re: regexp.MustCompile(`(^|[^.\w])eval\s*\(`)},
	{name: "Function", re: regexp.MustCompile(`\bnew\s+Function\s*\(`)},
	{name: "child_process.exec", re: regexp.MustCompile(`\b(child_process|cp|childProcess)\.exec(Sync)?\s*\(|require\(\s*['"]child_process['"]\s*\)\.exec(Sync)?\s*\(`)},
	{name: "setTimeout.string", re: regexp.MustCompile(`\bset(Timeout|Interval)\s*\(\s*['"]`)},
	{name: "innerHTML", re: regexp.MustCompile(`\.(inner|outer)HTML\s*=[^=]`)},
	{name: "document.write", re: regexp.MustCompile(`\bdocument\.write(ln)?\s*\(`)},
	{name: "dangerouslySetInnerHTML", re: regexp.MustCompile(`\bdangerouslySetInnerHTML\b`)},
}

// scanLines runs the line-oriented extractors shared by the scripting
// languages. literal returns the unquoted literal bodies found on a line.
func scanLines(r *source.ParseResult, comment string, rules []callRule, literals func(string) []string) {
	for i, line := range r.Lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, comment) {
			continue
		}

		if m := reDecorator.FindStringSubmatch(line); m != nil {
			r.Decorators = append(r.Decorators, source.Extraction{Line: lineNo, Text: trimmed})
		}

		for _, rule := range rules {
			if !rule.re.MatchString(line) {
				continue
			}
			if rule.unless != "" && strings.Contains(line, rule.unless) {
				continue
			}
			r.DangerousCalls = append(r.DangerousCalls, source.Call{Line: lineNo, Name: rule.name, Text: trimmed})
		}

		isQuery := false
		for _, lit := range literals(line) {
			r.Literals = append(r.Literals, source.Extraction{Line: lineNo, Text: lit})
			if reSQLStatement.MatchString(lit) {
				isQuery = true
			}
		}
		if isQuery {
			r.Queries = append(r.Queries, source.Extraction{Line: lineNo, Text: trimmed})
		}
	}
}

func unquote(lit string) string {
	if len(lit) < 2 {
		return ""
	}
	return lit[1 : len(lit)-1]
}
