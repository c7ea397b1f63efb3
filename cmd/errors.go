package cmd

import "fmt"

// InvalidProjectPathError reports a project path the assessment cannot run on.
type InvalidProjectPathError struct {
	Path string
	Err  error
}

func (e *InvalidProjectPathError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid project path %s", e.Path)
	}
	return fmt.Sprintf("invalid project path %s: %v", e.Path, e.Err)
}

func (e *InvalidProjectPathError) Unwrap() error { return e.Err }

// ExitError carries the process exit status out of a command. Err may be nil
// when the status is the only outcome, as for blocking findings.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func fatal(err error) *ExitError {
	return &ExitError{Code: exitFatal, Err: err}
}
