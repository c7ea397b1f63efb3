package source

import (
	"path"
	"strings"
)

// Language tags a parse result. Source languages carry code extractions,
// lockfile languages carry dependencies only.
type Language string

const (
	LanguageUnknown    Language = ""
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageGo         Language = "go"

	LockNPM     Language = "package-lock"
	LockYarn    Language = "yarn-lock"
	LockPNPM    Language = "pnpm-lock"
	LockPoetry  Language = "poetry-lock"
	LockPipfile Language = "pipfile-lock"
	LockCargo   Language = "cargo-lock"
	LockGoMod   Language = "go-mod"
)

// Ecosystem names follow the identifiers used by the OSV database.
type Ecosystem string

const (
	EcosystemNPM   Ecosystem = "npm"
	EcosystemPyPI  Ecosystem = "PyPI"
	EcosystemGo    Ecosystem = "Go"
	EcosystemCrate Ecosystem = "crates.io"
)

// lockfileNames is ordered by preference when two lockfiles of the same
// ecosystem sit at the same depth.
var lockfileNames = []struct {
	name      string
	language  Language
	ecosystem Ecosystem
}{
	{"package-lock.json", LockNPM, EcosystemNPM},
	{"yarn.lock", LockYarn, EcosystemNPM},
	{"pnpm-lock.yaml", LockPNPM, EcosystemNPM},
	{"poetry.lock", LockPoetry, EcosystemPyPI},
	{"Pipfile.lock", LockPipfile, EcosystemPyPI},
	{"Cargo.lock", LockCargo, EcosystemCrate},
	{"go.mod", LockGoMod, EcosystemGo},
}

var sourceExtensions = map[string]Language{
	".py":  LanguagePython,
	".js":  LanguageJavaScript,
	".jsx": LanguageJavaScript,
	".mjs": LanguageJavaScript,
	".cjs": LanguageJavaScript,
	".ts":  LanguageTypeScript,
	".tsx": LanguageTypeScript,
	".go":  LanguageGo,
}

// DetectLanguage classifies a file by name. Lockfiles are matched on the
// exact base name, source files on extension.
func DetectLanguage(filePath string) Language {
	base := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	for _, lf := range lockfileNames {
		if base == lf.name {
			return lf.language
		}
	}
	return sourceExtensions[strings.ToLower(path.Ext(base))]
}

// IsLockfile reports whether the language tags a dependency manifest.
func (l Language) IsLockfile() bool {
	switch l {
	case LockNPM, LockYarn, LockPNPM, LockPoetry, LockPipfile, LockCargo, LockGoMod:
		return true
	default:
		return false
	}
}

// IsSource reports whether the language tags analyzable source code.
func (l Language) IsSource() bool {
	switch l {
	case LanguagePython, LanguageJavaScript, LanguageTypeScript, LanguageGo:
		return true
	default:
		return false
	}
}

// Ecosystem returns the package ecosystem of a lockfile language.
func (l Language) Ecosystem() (Ecosystem, bool) {
	for _, lf := range lockfileNames {
		if lf.language == l {
			return lf.ecosystem, true
		}
	}
	return "", false
}

// LockfilePriority returns the tie-break rank of a lockfile name (lower wins)
// and whether the name is a recognised lockfile at all.
func LockfilePriority(name string) (int, Ecosystem, bool) {
	for i, lf := range lockfileNames {
		if lf.name == name {
			return i, lf.ecosystem, true
		}
	}
	return 0, "", false
}

// IsSourceExtension reports whether a file extension is scanned as code.
func IsSourceExtension(ext string) bool {
	_, ok := sourceExtensions[strings.ToLower(ext)]
	return ok
}
