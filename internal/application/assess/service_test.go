package assess

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/khanhnv2901/assess/internal/analyzer"
	"github.com/khanhnv2901/assess/internal/analyzer/dependency"
	"github.com/khanhnv2901/assess/internal/analyzer/injection"
	"github.com/khanhnv2901/assess/internal/analyzer/secrets"
	"github.com/khanhnv2901/assess/internal/domain/finding"
	"github.com/khanhnv2901/assess/internal/domain/source"
	"github.com/khanhnv2901/assess/internal/domain/suppression"
	"github.com/khanhnv2901/assess/internal/infrastructure/osv"
	jsonrepo "github.com/khanhnv2901/assess/internal/infrastructure/persistence/json"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
)

type stubVulnDB struct {
	failures int64
}

func (s *stubVulnDB) Query(_ context.Context, name, version, _ string) []osv.Vulnerability {
	if name == "lodash" && version == "4.17.15" {
		return []osv.Vulnerability{{
			"id": "GHSA-35jh-r3h4-6jhm",
			"affected": []any{map[string]any{
				"ranges": []any{map[string]any{"events": []any{map[string]any{"fixed": "4.17.21"}}}},
			}},
		}}
	}
	return nil
}

func (s *stubVulnDB) Failures() int64 { return s.failures }

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

const projectLock = `{
  "lockfileVersion": 3,
  "packages": {
    "": {"name": "shop"},
    "node_modules/lodash": {"version": "4.17.15"}
  }
}`

const projectApp = `import os

def lookup(uid):
    cursor.execute("SELECT * FROM users WHERE id = " + uid)
    os.system("ping " + uid)
`

func newProject(t *testing.T, extra map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"package-lock.json": projectLock,
		"app/db.py":         projectApp,
		"tests/test_db.py":  `password = "hunter22!"`,
	}
	for k, v := range extra {
		files[k] = v
	}
	writeFiles(t, root, files)
	return root
}

func newService(db *stubVulnDB, extra ...analyzer.Analyzer) *Service {
	analyzers := append([]analyzer.Analyzer{
		dependency.New(db, dependency.Options{Concurrency: 2}, nil),
		injection.New(),
		secrets.New(),
	}, extra...)
	suppressions := func(root string) (suppression.Repository, error) {
		return jsonrepo.NewSuppressionRepository(root, "", nil)
	}
	svc := NewService(analyzers, suppressions, db, nil)
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestRunEndToEnd(t *testing.T) {
	root := newProject(t, nil)
	result, err := newService(&stubVulnDB{}).Run(context.Background(), Request{ProjectPath: root})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Project.FileCount != 2 {
		t.Fatalf("expected 2 parsed files (test dirs pruned), got %d", result.Project.FileCount)
	}
	rules := map[string]finding.Finding{}
	for _, f := range result.Findings {
		rules[f.RuleID] = f
	}
	if len(result.Findings) != 3 {
		t.Fatalf("expected 3 findings, got %+v", result.Findings)
	}
	dep, ok := rules[dependency.RuleID]
	if !ok || dep.Severity != finding.SeverityMedium || !strings.Contains(dep.Remediation, "4.17.21") {
		t.Fatalf("unexpected dependency finding: %+v", dep)
	}
	for i, f := range result.Findings {
		if f.ID != i+1 {
			t.Fatalf("IDs must be 1..n in order, got %d at %d", f.ID, i)
		}
		if i > 0 && finding.Less(f, result.Findings[i-1]) {
			t.Fatalf("findings not sorted at %d", i)
		}
	}
	if len(result.AnalyzerVersions) != 3 || result.AnalyzerVersions["dependency"] != "1.2.0" {
		t.Fatalf("unexpected analyzer versions: %v", result.AnalyzerVersions)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if ExitCode(result) != ExitBlocking {
		t.Fatalf("HIGH findings must produce exit code 1")
	}
}

func TestRunAppliesSuppressions(t *testing.T) {
	root := newProject(t, map[string]string{
		".security-suppress.json": `{
  "version": "1.0",
  "suppressions": [
    {"rule_id": "sql-injection", "file_path": "app/db.py", "line_number": 4, "reason": "internal tool",
     "expires": "2026-06-01", "created_by": "alice"},
    {"rule_id": "command-injection", "file_path": "app/db.py", "reason": "stale",
     "expires": "2026-01-01", "created_by": "alice"},
    {"rule_id": "vulnerable-dependency", "file_path": "package-lock.json", "expires": "2026-06-01", "created_by": "alice"}
  ]
}`,
	})

	result, err := newService(&stubVulnDB{}).Run(context.Background(), Request{ProjectPath: root})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.SuppressedCount != 1 {
		t.Fatalf("expected exactly one suppressed finding, got %d", result.SuppressedCount)
	}
	if result.TotalBeforeSuppression() != 3 || len(result.Findings) != 2 {
		t.Fatalf("suppressed + reported must equal produced: %d + %d", result.SuppressedCount, len(result.Findings))
	}
	for _, f := range result.Findings {
		if f.RuleID == "sql-injection" {
			t.Fatalf("sql-injection should have been suppressed")
		}
	}
	if result.Findings[0].ID != 1 || result.Findings[1].ID != 2 {
		t.Fatalf("reported findings must be numbered consecutively")
	}
}

func TestRunIsolatesAnalyzerPanics(t *testing.T) {
	root := newProject(t, nil)
	panicky := analyzer.Func{AnalyzerName: "broken", AnalyzerVersion: "0.0.1",
		Fn: func(context.Context, []*source.ParseResult) ([]finding.Finding, error) { panic("nil map") }}

	result, err := newService(&stubVulnDB{}, panicky).Run(context.Background(), Request{ProjectPath: root})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Findings) != 3 {
		t.Fatalf("other analyzers must still report, got %d findings", len(result.Findings))
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "broken") {
		t.Fatalf("expected one error line for the panicking analyzer, got %v", result.Errors)
	}
}

func TestRunReportsVulnDBFailures(t *testing.T) {
	root := newProject(t, nil)
	result, err := newService(&stubVulnDB{failures: 2}).Run(context.Background(), Request{ProjectPath: root})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "2 dependency lookup(s)") {
		t.Fatalf("expected a single vulnerability database error line, got %v", result.Errors)
	}
}

func TestRunInterruptedReturnsPartialResult(t *testing.T) {
	root := newProject(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newService(&stubVulnDB{}).Run(ctx, Request{ProjectPath: root})
	if err != nil {
		t.Fatalf("an interrupted run is not fatal: %v", err)
	}
	found := false
	for _, line := range result.Errors {
		if strings.Contains(line, sharedErrors.ErrScanInterrupted.Error()) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected interruption error line, got %v", result.Errors)
	}
	if result.SuppressedCount+len(result.Findings) != result.TotalBeforeSuppression() {
		t.Fatal("invariant must hold for partial results")
	}
}

func TestRunSkipsOversizedFiles(t *testing.T) {
	root := newProject(t, map[string]string{"big.py": strings.Repeat("x = 1\n", 100)})
	result, err := newService(&stubVulnDB{}).Run(context.Background(), Request{ProjectPath: root, MaxFileBytes: 300})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var sizeErr bool
	for _, line := range result.Errors {
		if strings.HasPrefix(line, "big.py:") && strings.Contains(line, sharedErrors.ErrFileTooLarge.Error()) {
			sizeErr = true
		}
	}
	if !sizeErr {
		t.Fatalf("expected size error line, got %v", result.Errors)
	}
}

func TestRunParsesLockfilesAboveSourceCap(t *testing.T) {
	// Pad the lockfile past the 1 MiB source cap with unrelated packages.
	var pkgs strings.Builder
	for i := 0; pkgs.Len() < 1<<20+1024; i++ {
		fmt.Fprintf(&pkgs, "    \"node_modules/pad-%06d\": {\"version\": \"1.0.0\"},\n", i)
	}
	lock := "{\n  \"lockfileVersion\": 3,\n  \"packages\": {\n    \"\": {\"name\": \"shop\"},\n" +
		pkgs.String() +
		"    \"node_modules/lodash\": {\"version\": \"4.17.15\"}\n  }\n}\n"
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"package-lock.json": lock})

	result, err := newService(&stubVulnDB{}).Run(context.Background(), Request{ProjectPath: root})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("large lockfile must not be skipped, got %v", result.Errors)
	}
	if len(result.Findings) != 1 || result.Findings[0].RuleID != dependency.RuleID {
		t.Fatalf("expected one lodash finding, got %+v", result.Findings)
	}
}

func TestRunCapsLockfilesSeparately(t *testing.T) {
	root := newProject(t, nil)
	result, err := newService(&stubVulnDB{}).Run(context.Background(), Request{ProjectPath: root, MaxLockfileBytes: 16})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var sizeErr bool
	for _, line := range result.Errors {
		if strings.HasPrefix(line, "package-lock.json:") && strings.Contains(line, sharedErrors.ErrFileTooLarge.Error()) {
			sizeErr = true
		}
	}
	if !sizeErr {
		t.Fatalf("expected lockfile size error line, got %v", result.Errors)
	}
}

func TestRunHonoursIgnoreFile(t *testing.T) {
	root := newProject(t, map[string]string{".securityignore": "app/\n"})
	result, err := newService(&stubVulnDB{}).Run(context.Background(), Request{ProjectPath: root})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, f := range result.Findings {
		if strings.HasPrefix(f.FilePath, "app/") {
			t.Fatalf("ignored directory was scanned: %+v", f)
		}
	}
	if ExitCode(result) != ExitClean {
		t.Fatalf("only a MEDIUM finding remains; expected exit code 0")
	}
}

func TestRunInvalidPathIsFatal(t *testing.T) {
	svc := newService(&stubVulnDB{})

	_, err := svc.Run(context.Background(), Request{ProjectPath: filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, sharedErrors.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}

	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Run(context.Background(), Request{ProjectPath: file}); !errors.Is(err, sharedErrors.ErrProjectNotDir) {
		t.Fatalf("expected ErrProjectNotDir, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != ExitFatal {
		t.Fatal("nil result is fatal")
	}
}
