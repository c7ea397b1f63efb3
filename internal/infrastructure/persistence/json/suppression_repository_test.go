package json

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/khanhnv2901/assess/internal/shared/constants"
)

func newRepo(t *testing.T, body string) (*SuppressionRepository, *observer.ObservedLogs) {
	t.Helper()
	dir := t.TempDir()
	if body != "" {
		if err := os.WriteFile(filepath.Join(dir, constants.SuppressionFileName), []byte(body), 0o644); err != nil {
			t.Fatalf("write suppression file: %v", err)
		}
	}
	core, logs := observer.New(zapcore.DebugLevel)
	repo, err := NewSuppressionRepository(dir, "", zap.New(core).Sugar())
	if err != nil {
		t.Fatalf("NewSuppressionRepository: %v", err)
	}
	return repo, logs
}

func warnings(logs *observer.ObservedLogs) int {
	return logs.FilterLevelExact(zapcore.WarnLevel).Len()
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	repo, logs := newRepo(t, "")
	cfg, err := repo.Load(context.Background())
	if err != nil || cfg != nil {
		t.Fatalf("expected nil config and nil error, got %v, %v", cfg, err)
	}
	if warnings(logs) != 0 {
		t.Fatalf("missing file must not warn")
	}
}

func TestLoadSkipsInvalidEntry(t *testing.T) {
	repo, logs := newRepo(t, `{
  "version": "1.0",
  "suppressions": [
    {"rule_id": "hardcoded-password", "file_path": "./tests/fixtures/app.py", "line_number": 42,
     "reason": "test fixture", "expires": "2026-06-01", "created_by": "alice", "approved_by": "bob"},
    {"rule_id": "sql-injection", "file_path": "db.py", "expires": "2026-06-01", "created_by": "alice"}
  ]
}`)

	cfg, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg == nil || len(cfg.Suppressions) != 1 {
		t.Fatalf("expected one loaded suppression, got %+v", cfg)
	}

	s := cfg.Suppressions[0]
	if s.RuleID != "hardcoded-password" || s.FilePath != "tests/fixtures/app.py" {
		t.Fatalf("unexpected suppression: %+v", s)
	}
	if s.LineNumber == nil || *s.LineNumber != 42 {
		t.Fatalf("expected line 42, got %v", s.LineNumber)
	}
	if !s.Expires.Equal(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry %v", s.Expires)
	}
	if s.ApprovedBy != "bob" {
		t.Fatalf("expected approver bob, got %q", s.ApprovedBy)
	}

	skipped := logs.FilterMessage("skipping invalid suppression").All()
	if len(skipped) != 1 {
		t.Fatalf("expected one skip warning, got %d", len(skipped))
	}
	if idx := skipped[0].ContextMap()["index"]; idx != int64(1) {
		t.Fatalf("expected warning for index 1, got %v", idx)
	}
}

func TestLoadLenientValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		nilCfg   bool
		entries  int
		warnings int
	}{
		{name: "invalid json", body: `{"version": `, nilCfg: true, warnings: 1},
		{name: "top-level array", body: `[]`, nilCfg: true, warnings: 1},
		{name: "unknown version", body: `{"version": "2.0", "suppressions": []}`, warnings: 1},
		{name: "suppressions not array", body: `{"version": "1.0", "suppressions": {}}`, warnings: 1},
		{name: "bad date", body: `{"version": "1.0", "suppressions": [{"rule_id": "r", "file_path": "f", "reason": "x", "expires": "soon", "created_by": "a"}]}`, warnings: 1},
		{name: "bad line", body: `{"version": "1.0", "suppressions": [{"rule_id": "r", "file_path": "f", "reason": "x", "expires": "2030-01-01", "created_by": "a", "line_number": 0}]}`, warnings: 1},
		{name: "timestamp expiry", body: `{"version": "1.0", "suppressions": [{"rule_id": "r", "file_path": "f", "reason": "x", "expires": "2030-01-01T10:00:00Z", "created_by": "a"}]}`, entries: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, logs := newRepo(t, tt.body)
			cfg, err := repo.Load(context.Background())
			if err != nil {
				t.Fatalf("Load must not fail, got %v", err)
			}
			if tt.nilCfg {
				if cfg != nil {
					t.Fatalf("expected nil config, got %+v", cfg)
				}
			} else if cfg == nil || len(cfg.Suppressions) != tt.entries {
				t.Fatalf("expected %d entries, got %+v", tt.entries, cfg)
			}
			if got := warnings(logs); got != tt.warnings {
				t.Fatalf("expected %d warnings, got %d", tt.warnings, got)
			}
		})
	}
}

func TestNewSuppressionRepositoryRejectsEscapes(t *testing.T) {
	if _, err := NewSuppressionRepository(t.TempDir(), "../outside.json", nil); err == nil {
		t.Fatal("expected error for file outside the project")
	}
}
