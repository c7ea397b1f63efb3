package parser

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/khanhnv2901/assess/internal/domain/source"
)

// parseYarnLock handles classic (v1) and berry lockfiles. A header may list
// several range aliases that resolve to the same version, so the caller
// dedupes by (name, version).
func parseYarnLock(content []byte) ([]source.Dependency, error) {
	var (
		deps    []source.Dependency
		pending []string
	)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			pending = nil
			if strings.HasSuffix(trimmed, ":") {
				pending = yarnHeaderNames(strings.TrimSuffix(trimmed, ":"))
			}
			continue
		}

		if len(pending) == 0 {
			continue
		}
		if version, ok := yarnVersionLine(trimmed); ok {
			for _, name := range pending {
				deps = append(deps, source.Dependency{Name: name, Version: version, Ecosystem: source.EcosystemNPM})
			}
			pending = nil
		}
	}
	return deps, scanner.Err()
}

func yarnHeaderNames(header string) []string {
	var names []string
	seen := map[string]struct{}{}
	for _, spec := range strings.Split(header, ",") {
		name := yarnSpecName(strings.Trim(strings.TrimSpace(spec), `"`))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// yarnSpecName extracts the package from "name@range", "@scope/name@range"
// and aliased "alias@npm:real@range" descriptors.
func yarnSpecName(spec string) string {
	at := strings.Index(strings.TrimPrefix(spec, "@"), "@")
	if at < 0 {
		return ""
	}
	if strings.HasPrefix(spec, "@") {
		at++
	}
	name, rng := spec[:at], spec[at+1:]
	if real, ok := strings.CutPrefix(rng, "npm:"); ok {
		if aliased := yarnSpecName(real); aliased != "" {
			return aliased
		}
	}
	return name
}

func yarnVersionLine(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "version")
	if !ok {
		return "", false
	}
	rest = strings.TrimPrefix(strings.TrimSpace(rest), ":")
	version := strings.Trim(strings.TrimSpace(rest), `"'`)
	if version == "" || strings.ContainsAny(version, " :") {
		return "", false
	}
	return version, true
}
