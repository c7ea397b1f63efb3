package parser

import "github.com/khanhnv2901/assess/internal/domain/source"

func extractJavaScript(r *source.ParseResult) {
	scanLines(r, "//", javascriptCallRules, javascriptLiterals)
}

func javascriptLiterals(line string) []string {
	var out []string
	for _, lit := range reJSLiteral.FindAllString(line, -1) {
		out = append(out, unquote(lit))
	}
	return out
}
