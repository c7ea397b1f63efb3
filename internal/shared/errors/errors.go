package errors

import "errors"

// Domain errors
var (
	// Project errors
	ErrProjectNotFound    = errors.New("project path does not exist")
	ErrProjectNotDir      = errors.New("project path is not a directory")
	ErrInvalidProjectPath = errors.New("invalid project path")

	// Discovery and parsing errors
	ErrFileTooLarge      = errors.New("file exceeds size limit")
	ErrUnsupportedFile   = errors.New("unsupported file type")
	ErrMalformedLockfile = errors.New("malformed lockfile")
	ErrMalformedSource   = errors.New("malformed source file")

	// Analyzer errors
	ErrAnalyzerPanic   = errors.New("analyzer panicked")
	ErrScanInterrupted = errors.New("scan interrupted")

	// Vulnerability database errors
	ErrVulnDBStatus = errors.New("vulnerability database returned an error status")
	ErrVulnDBDecode = errors.New("vulnerability database response could not be decoded")
	ErrCacheMiss    = errors.New("cache miss")

	// Suppression errors
	ErrSuppressionInvalid = errors.New("invalid suppression entry")
	ErrMissingRequired    = errors.New("missing required field")
	ErrInvalidDate        = errors.New("invalid ISO-8601 date")

	// Report errors
	ErrUnknownFormat = errors.New("unknown report format")
)
