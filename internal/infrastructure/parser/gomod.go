package parser

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/khanhnv2901/assess/internal/domain/source"
)

// parseGoMod reads require directives, both single-line and block form.
// Indirect requirements are kept since they ship in the binary too.
func parseGoMod(content []byte) ([]source.Dependency, error) {
	var deps []source.Dependency
	inRequire := false

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "require (":
			inRequire = true
			continue
		case line == ")" && inRequire:
			inRequire = false
			continue
		}

		var fields []string
		if rest, ok := strings.CutPrefix(line, "require "); ok {
			fields = strings.Fields(rest)
		} else if inRequire {
			fields = strings.Fields(line)
		}
		if len(fields) < 2 {
			continue
		}
		deps = append(deps, source.Dependency{
			Name:      fields[0],
			Version:   strings.TrimPrefix(fields[1], "v"),
			Ecosystem: source.EcosystemGo,
		})
	}
	return deps, scanner.Err()
}
