package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/khanhnv2901/assess/internal/domain/source"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func TestSourceFilesPrunesAndFilters(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"app.py",
		"src/server.js",
		"src/server.test.js",
		"src/util.min.js",
		"src/types.d.ts",
		"src/view.tsx",
		"src/main.go",
		"src/main_test.go",
		"src/test_models.py",
		"node_modules/lib/index.js",
		".git/hooks/pre-commit.py",
		"tests/test_app.py",
		"build/out.js",
		"docs/readme.md",
		"generated/api.py",
		"logs/debug.py",
	)

	patterns, err := ParsePatterns(strings.NewReader("# comment\n\ngenerated/\n!logs/keep.py\nlogs/*.py\n"), nil)
	if err != nil {
		t.Fatalf("ParsePatterns: %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("expected negated pattern to be dropped, got %d patterns", len(patterns))
	}

	files, err := NewWalker(nil).SourceFiles(root, patterns)
	if err != nil {
		t.Fatalf("SourceFiles: %v", err)
	}

	want := []string{"app.py", "src/main.go", "src/server.js", "src/view.tsx"}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("SourceFiles = %v, want %v", files, want)
	}
}

func TestLockfilesShallowestWins(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"packages/web/package-lock.json",
		"yarn.lock",
		"services/api/poetry.lock",
		"services/poetry.lock",
		"node_modules/dep/package-lock.json",
		"Cargo.lock",
		"package-lock.json",
	)

	locks, err := NewWalker(nil).Lockfiles(root)
	if err != nil {
		t.Fatalf("Lockfiles: %v", err)
	}

	want := map[source.Ecosystem]string{
		source.EcosystemNPM:   "package-lock.json",
		source.EcosystemPyPI:  "services/poetry.lock",
		source.EcosystemCrate: "Cargo.lock",
	}
	if !reflect.DeepEqual(locks, want) {
		t.Fatalf("Lockfiles = %v, want %v", locks, want)
	}
}

func TestWalkRejectsMissingRoot(t *testing.T) {
	_, err := NewWalker(nil).SourceFiles(filepath.Join(t.TempDir(), "missing"), nil)
	if !errors.Is(err, sharedErrors.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}

	file := filepath.Join(t.TempDir(), "file.py")
	writeFiles(t, filepath.Dir(file), "file.py")
	_, err = NewWalker(nil).Lockfiles(file)
	if !errors.Is(err, sharedErrors.ErrProjectNotDir) {
		t.Fatalf("expected ErrProjectNotDir, got %v", err)
	}
}

func TestWalkSkipsUnreadableSubtree(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	writeFiles(t, root, "ok.py", "locked/secret.py")
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	files, err := NewWalker(nil).SourceFiles(root, nil)
	if err != nil {
		t.Fatalf("walk must not abort: %v", err)
	}
	if !reflect.DeepEqual(files, []string{"ok.py"}) {
		t.Fatalf("unexpected files %v", files)
	}
}

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		isDir   bool
		want    bool
	}{
		{"*.py", "src/a.py", false, true},
		{"*.py", "src/a.js", false, false},
		{"docs/", "docs", true, true},
		{"docs/", "docs", false, false},
		{"src/legacy/*.js", "src/legacy/a.js", false, true},
		{"src/legacy/*.js", "other/src/legacy/a.js", false, false},
		{"/scripts", "scripts", true, true},
		{"**/migrations/*.py", "app/db/migrations/0001.py", false, true},
		{"**/migrations/*.py", "migrations/0001.py", false, true},
		{"vendor_*", "lib/vendor_x", true, true},
	}
	for _, tt := range tests {
		p, ok := compilePattern(tt.pattern)
		if !ok {
			t.Fatalf("pattern %q failed to compile", tt.pattern)
		}
		if got := p.Match(tt.path, tt.isDir); got != tt.want {
			t.Errorf("%q.Match(%q, dir=%v) = %v, want %v", tt.pattern, tt.path, tt.isDir, got, tt.want)
		}
	}
}

func TestLoadIgnoreFileMissing(t *testing.T) {
	patterns, err := LoadIgnoreFile(filepath.Join(t.TempDir(), ".securityignore"), nil)
	if err != nil || patterns != nil {
		t.Fatalf("expected no patterns and no error, got %v %v", patterns, err)
	}
}
