package parser

import "github.com/khanhnv2901/assess/internal/domain/source"

func extractPython(r *source.ParseResult) {
	scanLines(r, "#", pythonCallRules, pythonLiterals)
}

// pythonLiterals returns single-line string bodies; the empty pairs produced
// by triple-quote delimiters are dropped.
func pythonLiterals(line string) []string {
	var out []string
	for _, m := range rePyLiteral.FindAllStringSubmatch(line, -1) {
		if body := unquote(m[2]); body != "" {
			out = append(out, body)
		}
	}
	return out
}
