package source

import "testing"

func TestDetectLanguage(t *testing.T) {
	tests := map[string]Language{
		"src/app.py":               LanguagePython,
		"web/index.JS":             LanguageJavaScript,
		"web/component.tsx":        LanguageTypeScript,
		"cmd/main.go":              LanguageGo,
		"package-lock.json":        LockNPM,
		"frontend/yarn.lock":       LockYarn,
		"pnpm-lock.yaml":           LockPNPM,
		"backend/poetry.lock":      LockPoetry,
		"Pipfile.lock":             LockPipfile,
		"crates/Cargo.lock":        LockCargo,
		"go.mod":                   LockGoMod,
		"README.md":                LanguageUnknown,
		"windows\\path\\yarn.lock": LockYarn,
		"src/notes.json":           LanguageUnknown,
	}
	for path, want := range tests {
		if got := DetectLanguage(path); got != want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestLanguageKindsAreExclusive(t *testing.T) {
	all := []Language{LanguagePython, LanguageJavaScript, LanguageTypeScript, LanguageGo,
		LockNPM, LockYarn, LockPNPM, LockPoetry, LockPipfile, LockCargo, LockGoMod}
	for _, l := range all {
		if l.IsLockfile() == l.IsSource() {
			t.Errorf("%s must be exactly one of lockfile or source", l)
		}
		if _, ok := l.Ecosystem(); ok != l.IsLockfile() {
			t.Errorf("%s ecosystem presence mismatch", l)
		}
	}
}

func TestLockfilePriority(t *testing.T) {
	npmRank, eco, ok := LockfilePriority("package-lock.json")
	if !ok || eco != EcosystemNPM {
		t.Fatalf("expected npm lockfile, got %v %v", eco, ok)
	}
	yarnRank, _, _ := LockfilePriority("yarn.lock")
	if npmRank >= yarnRank {
		t.Fatal("package-lock.json should outrank yarn.lock")
	}
	if _, _, ok := LockfilePriority("requirements.txt"); ok {
		t.Fatal("requirements.txt is not a lockfile")
	}
}
