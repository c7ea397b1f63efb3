package parser

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/khanhnv2901/assess/internal/domain/source"
)

type poetryLock struct {
	Packages []poetryPackage `toml:"package"`
}

type poetryPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// parsePoetryLock decodes the [[package]] array. Files that are not valid
// TOML fall back to a line scan so one bad table does not hide the rest.
func (p *Parser) parsePoetryLock(content []byte) ([]source.Dependency, error) {
	var lock poetryLock
	if err := toml.Unmarshal(content, &lock); err != nil {
		p.logger.Debugw("poetry.lock is not valid TOML; scanning lines", "error", err)
		return p.scanPoetryLock(content)
	}

	deps := make([]source.Dependency, 0, len(lock.Packages))
	for _, pkg := range lock.Packages {
		deps = p.appendPoetryPackage(deps, pkg.Name, pkg.Version)
	}
	return deps, nil
}

func (p *Parser) appendPoetryPackage(deps []source.Dependency, name, version string) []source.Dependency {
	if name == "" || version == "" {
		p.logger.Debugw("poetry package entry without name or version", "name", name, "version", version)
		return deps
	}
	return append(deps, source.Dependency{Name: name, Version: version, Ecosystem: source.EcosystemPyPI})
}

// scanPoetryLock reads [[package]] tables line by line. A record is flushed
// when the next [[package]] starts, when any other table header appears, and
// at end of input.
func (p *Parser) scanPoetryLock(content []byte) ([]source.Dependency, error) {
	var (
		deps    []source.Dependency
		inPkg   bool
		name    string
		version string
	)

	flush := func() {
		if inPkg {
			deps = p.appendPoetryPackage(deps, name, version)
		}
		inPkg, name, version = false, "", ""
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "[[package]]":
			flush()
			inPkg = true
		case strings.HasPrefix(line, "["):
			flush()
		case inPkg:
			key, value, ok := tomlAssignment(line)
			if !ok {
				continue
			}
			switch key {
			case "name":
				name = value
			case "version":
				version = value
			}
		}
	}
	flush()
	return deps, scanner.Err()
}

// tomlAssignment reads a `key = "value"` line, allowing escapes in basic
// strings and a trailing comment. Non-string values are ignored.
func tomlAssignment(line string) (string, string, bool) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if value == "" {
		return "", "", false
	}

	switch value[0] {
	case '"':
		for i := 1; i < len(value); i++ {
			switch value[i] {
			case '\\':
				i++
			case '"':
				unquoted, err := strconv.Unquote(value[:i+1])
				if err != nil {
					return "", "", false
				}
				return key, unquoted, true
			}
		}
	case '\'':
		if end := strings.IndexByte(value[1:], '\''); end >= 0 {
			return key, value[1 : end+1], true
		}
	}
	return "", "", false
}
