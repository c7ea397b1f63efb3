// Package parser turns discovered files into normalized source.ParseResult
// records.
//
// Every entry point is total: malformed input produces a result with empty
// extraction fields and a logged warning, never an error. Source-language
// parsers populate literals, dangerous calls, query strings and decorators;
// lockfile parsers populate dependencies only.
package parser

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/khanhnv2901/assess/internal/domain/source"
	"go.uber.org/zap"
)

// lockfileParser extracts pinned dependencies from a lockfile body.
type lockfileParser func(content []byte) ([]source.Dependency, error)

// Parser dispatches files to the language-specific extractors.
type Parser struct {
	logger    *zap.SugaredLogger
	lockfiles map[source.Language]lockfileParser
}

// New creates a parser that reports malformed input to logger.
func New(logger *zap.SugaredLogger) *Parser {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	p := &Parser{logger: logger}
	p.lockfiles = map[source.Language]lockfileParser{
		source.LockNPM:     parsePackageLock,
		source.LockYarn:    parseYarnLock,
		source.LockPNPM:    parsePNPMLock,
		source.LockPoetry:  p.parsePoetryLock,
		source.LockPipfile: parsePipfileLock,
		source.LockCargo:   parseCargoLock,
		source.LockGoMod:   parseGoMod,
	}
	return p
}

// Parse builds the ParseResult for one file. relPath is the project-relative
// slash path used in findings; the language is derived from it.
func (p *Parser) Parse(relPath string, content []byte) *source.ParseResult {
	lang := source.DetectLanguage(relPath)
	text := string(content)
	result := &source.ParseResult{
		FilePath: relPath,
		Language: lang,
		Source:   text,
		Lines:    splitLines(text),
	}

	if lang.IsLockfile() {
		deps, err := p.lockfiles[lang](content)
		if err != nil {
			p.logger.Warnw("malformed lockfile; no dependencies extracted", "file", relPath, "error", err)
			return result
		}
		result.Dependencies = dedupeDependencies(deps)
		return result
	}

	if !utf8.Valid(content) {
		p.logger.Warnw("file is not valid UTF-8; skipping extraction", "file", relPath)
		return result
	}

	switch lang {
	case source.LanguagePython:
		extractPython(result)
	case source.LanguageJavaScript, source.LanguageTypeScript:
		extractJavaScript(result)
	case source.LanguageGo:
		if err := extractGo(result); err != nil {
			p.logger.Warnw("malformed Go source; no constructs extracted", "file", relPath, "error", err)
			result.Literals, result.DangerousCalls, result.Queries = nil, nil, nil
		}
	default:
		p.logger.Debugw("no parser for file", "file", relPath)
	}
	return result
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// dedupeDependencies drops repeated (name, version) pairs and returns the
// remainder in a stable order.
func dedupeDependencies(deps []source.Dependency) []source.Dependency {
	seen := make(map[string]struct{}, len(deps))
	out := make([]source.Dependency, 0, len(deps))
	for _, d := range deps {
		if d.Name == "" || d.Version == "" {
			continue
		}
		if _, ok := seen[d.Key()]; ok {
			continue
		}
		seen[d.Key()] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version < out[j].Version
	})
	return out
}
