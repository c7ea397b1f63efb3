package discovery

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"
)

// Pattern is one simplified-glob ignore rule.
//
// A trailing "/" restricts the rule to directories. A rule containing "/" is
// anchored at the project root; otherwise it is matched against the base
// name of every path. "**" spans any number of path segments.
type Pattern struct {
	raw      string
	glob     string
	dirOnly  bool
	anchored bool
}

func (p Pattern) String() string {
	return p.raw
}

// ParsePatterns reads ignore rules from r. Comments, blank lines and negated
// ("!") rules are dropped.
func ParsePatterns(r io.Reader, logger *zap.SugaredLogger) ([]Pattern, error) {
	logger = orNop(logger)
	var patterns []Pattern
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "!") {
			logger.Debugw("negated ignore patterns are not supported; dropping", "pattern", line)
			continue
		}
		if p, ok := compilePattern(line); ok {
			patterns = append(patterns, p)
		}
	}
	return patterns, scanner.Err()
}

// LoadIgnoreFile reads patterns from file. A missing file yields no patterns.
func LoadIgnoreFile(file string, logger *zap.SugaredLogger) ([]Pattern, error) {
	logger = orNop(logger)
	f, err := os.Open(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ignore file: %w", err)
	}
	defer f.Close()

	patterns, err := ParsePatterns(f, logger)
	if err != nil {
		return nil, fmt.Errorf("read ignore file: %w", err)
	}
	logger.Debugw("loaded ignore patterns", "file", file, "count", len(patterns))
	return patterns, nil
}

func compilePattern(line string) (Pattern, bool) {
	p := Pattern{raw: line}
	glob := strings.ReplaceAll(line, "\\", "/")
	if strings.HasSuffix(glob, "/") {
		p.dirOnly = true
		glob = strings.TrimRight(glob, "/")
	}
	if strings.Contains(glob, "/") {
		p.anchored = true
		glob = strings.TrimLeft(glob, "/")
	}
	if glob == "" {
		return Pattern{}, false
	}
	if _, err := path.Match(strings.ReplaceAll(glob, "**", "*"), ""); err != nil {
		return Pattern{}, false
	}
	p.glob = glob
	return p, true
}

// Match reports whether the project-relative slash path is ignored.
func (p Pattern) Match(rel string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	if !p.anchored {
		ok, _ := path.Match(p.glob, path.Base(rel))
		return ok
	}
	return matchSegments(strings.Split(p.glob, "/"), strings.Split(rel, "/"))
}

func matchSegments(pattern, parts []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(parts); i++ {
				if matchSegments(rest, parts[i:]) {
					return true
				}
			}
			return false
		}
		if len(parts) == 0 {
			return false
		}
		if ok, _ := path.Match(pattern[0], parts[0]); !ok {
			return false
		}
		pattern, parts = pattern[1:], parts[1:]
	}
	return len(parts) == 0
}

func matchAny(patterns []Pattern, rel string, isDir bool) (Pattern, bool) {
	for _, p := range patterns {
		if p.Match(rel, isDir) {
			return p, true
		}
	}
	return Pattern{}, false
}

func orNop(logger *zap.SugaredLogger) *zap.SugaredLogger {
	if logger == nil {
		return zap.NewNop().Sugar()
	}
	return logger
}
