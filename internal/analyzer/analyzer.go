// Package analyzer defines the contract every security analyzer satisfies and
// runs a set of analyzers concurrently over one parsed project.
//
// Analyzers receive the same read-only slice of parse results and must not
// mutate it. Each returns a fresh slice of findings with ID left at zero;
// identifiers are assigned after the merged list is sorted.
package analyzer

import (
	"context"

	"github.com/khanhnv2901/assess/internal/domain/finding"
	"github.com/khanhnv2901/assess/internal/domain/source"
)

// Analyzer inspects parsed files and reports findings.
type Analyzer interface {
	// Name is the stable identifier used in reports, e.g. "dependency".
	Name() string
	// Version is the analyzer's own semantic version.
	Version() string
	// Analyze returns the findings for files. A non-nil error is reported as
	// a non-fatal error line; findings returned alongside it are kept.
	Analyze(ctx context.Context, files []*source.ParseResult) ([]finding.Finding, error)
}

// Func adapts a plain function to the Analyzer interface.
type Func struct {
	AnalyzerName    string
	AnalyzerVersion string
	Fn              func(ctx context.Context, files []*source.ParseResult) ([]finding.Finding, error)
}

func (f Func) Name() string    { return f.AnalyzerName }
func (f Func) Version() string { return f.AnalyzerVersion }

func (f Func) Analyze(ctx context.Context, files []*source.ParseResult) ([]finding.Finding, error) {
	return f.Fn(ctx, files)
}
