package constants

import (
	"io/fs"
	"time"
)

const (
	// DefaultDirPerm is the default permission used when creating directories.
	DefaultDirPerm fs.FileMode = 0o755
	// DefaultFilePerm is the default permission used when creating files.
	DefaultFilePerm fs.FileMode = 0o644
)

const (
	// SuppressionFileName is the allowlist file read from the project root.
	SuppressionFileName = ".security-suppress.json"
	// IgnoreFileName holds project-local discovery ignore patterns.
	IgnoreFileName = ".securityignore"
	// SuppressionSchemaVersion is the only suppression schema version understood.
	SuppressionSchemaVersion = "1.0"
)

const (
	// MaxSourceFileBytes caps how large a file may be before parsing skips it.
	MaxSourceFileBytes = 1 << 20
	// MaxLockfileBytes is the separate, larger cap for dependency lockfiles.
	MaxLockfileBytes = 64 << 20
	// CodeSampleMaxRunes bounds the excerpt stored on a finding.
	CodeSampleMaxRunes = 240
)

const (
	// OSVQueryURL is the single-package query endpoint of the OSV API.
	OSVQueryURL = "https://api.osv.dev/v1/query"
	// OSVCacheTTL is how long a cached vulnerability lookup stays fresh.
	OSVCacheTTL = 24 * time.Hour
	// OSVRequestTimeout bounds every vulnerability lookup.
	OSVRequestTimeout = 10 * time.Second
)
