package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/khanhnv2901/assess/internal/domain/source"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
	"github.com/khanhnv2901/assess/internal/shared/security"
	"go.uber.org/zap"
)

// Ignored directories (exact match on folder name). Hidden directories are
// pruned separately.
var ignoredDirs = map[string]struct{}{
	"node_modules":     {},
	"bower_components": {},
	"vendor":           {},
	"__pycache__":      {},
	"venv":             {},
	"env":              {},
	"dist":             {},
	"build":            {},
	"target":           {},
	"site-packages":    {},
	"test":             {},
	"tests":            {},
	"__tests__":        {},
	"spec":             {},
	"testdata":         {},
	"fixtures":         {},
}

// Excluded file-name globs: tests, specs, generated and minified code.
var excludedFileGlobs = []string{
	"*_test.go",
	"test_*.py",
	"*_test.py",
	"*.test.*",
	"*.spec.*",
	"*.min.js",
	"*.bundle.js",
	"*.pb.go",
	"*_pb2.py",
	"*.generated.*",
	"*.d.ts",
}

// Walker prunes excluded trees while walking a project.
type Walker struct {
	logger *zap.SugaredLogger
}

// NewWalker creates a walker that logs skipped subtrees to logger.
func NewWalker(logger *zap.SugaredLogger) *Walker {
	return &Walker{logger: orNop(logger)}
}

// SourceFiles returns the sorted project-relative paths of every analyzable
// source file under root that survives the built-in exclusions and the
// supplied ignore patterns.
func (w *Walker) SourceFiles(root string, patterns []Pattern) ([]string, error) {
	var files []string
	err := w.walk(root, patterns, func(rel string) {
		if !source.IsSourceExtension(path.Ext(rel)) || excludedFile(path.Base(rel)) {
			return
		}
		if p, ok := matchAny(patterns, rel, false); ok {
			w.logger.Debugw("file ignored", "path", rel, "pattern", p.String())
			return
		}
		files = append(files, rel)
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Lockfiles returns at most one lockfile per ecosystem. The shallowest file
// wins; equal depths fall back to lockfile preference, then path.
func (w *Walker) Lockfiles(root string) (map[source.Ecosystem]string, error) {
	type candidate struct {
		rel      string
		depth    int
		priority int
	}
	best := make(map[source.Ecosystem]candidate)

	err := w.walk(root, nil, func(rel string) {
		priority, eco, ok := source.LockfilePriority(path.Base(rel))
		if !ok {
			return
		}
		c := candidate{rel: rel, depth: strings.Count(rel, "/"), priority: priority}
		cur, seen := best[eco]
		if !seen || c.depth < cur.depth ||
			(c.depth == cur.depth && (c.priority < cur.priority || (c.priority == cur.priority && c.rel < cur.rel))) {
			best[eco] = c
		}
	})
	if err != nil {
		return nil, err
	}

	out := make(map[source.Ecosystem]string, len(best))
	for eco, c := range best {
		out[eco] = c.rel
	}
	return out, nil
}

func (w *Walker) walk(root string, patterns []Pattern, visit func(rel string)) error {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", sharedErrors.ErrProjectNotFound, root)
		}
		return fmt.Errorf("%w: %v", sharedErrors.ErrInvalidProjectPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", sharedErrors.ErrProjectNotDir, root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("%w: %v", sharedErrors.ErrInvalidProjectPath, err)
	}

	return filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == absRoot {
				return err
			}
			w.logger.Warnw("skipping unreadable path", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == absRoot {
			return nil
		}

		rel, relErr := security.RelativeTo(absRoot, p)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			if prunedDir(d.Name()) {
				return filepath.SkipDir
			}
			if pat, ok := matchAny(patterns, rel, true); ok {
				w.logger.Debugw("directory ignored", "path", rel, "pattern", pat.String())
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		visit(rel)
		return nil
	})
}

func prunedDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ok := ignoredDirs[name]
	return ok
}

func excludedFile(name string) bool {
	lower := strings.ToLower(name)
	for _, glob := range excludedFileGlobs {
		if ok, _ := path.Match(glob, lower); ok {
			return true
		}
	}
	return false
}
