package analyzer

import (
	"context"
	"fmt"
	"sync"

	"github.com/khanhnv2901/assess/internal/domain/finding"
	"github.com/khanhnv2901/assess/internal/domain/source"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Outcome is the merged output of one analyzer run.
type Outcome struct {
	Findings []finding.Finding
	Versions map[string]string
	Errors   []string
}

// Runner executes analyzers concurrently. A failing or panicking analyzer
// becomes an error line; the others still complete.
type Runner struct {
	Analyzers []Analyzer
	Logger    *zap.SugaredLogger
}

// Run analyzes files with every registered analyzer. Findings are merged in
// registration order; callers sort them before numbering.
func (r *Runner) Run(ctx context.Context, files []*source.ParseResult) Outcome {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	results := make([][]finding.Finding, len(r.Analyzers))
	errs := make([]error, len(r.Analyzers))

	// errgroup.Group without WithContext: one analyzer failing must not
	// cancel its siblings.
	var g errgroup.Group
	for i, a := range r.Analyzers {
		g.Go(func() error {
			results[i], errs[i] = safeAnalyze(ctx, a, files)
			return nil
		})
	}
	_ = g.Wait()

	out := Outcome{Versions: make(map[string]string, len(r.Analyzers))}
	for i, a := range r.Analyzers {
		out.Versions[a.Name()] = a.Version()
		for _, f := range results[i] {
			if err := f.Validate(); err != nil {
				logger.Warnw("dropping invalid finding", "analyzer", a.Name(), "error", err)
				continue
			}
			f.ID = 0
			out.Findings = append(out.Findings, f)
		}
		if errs[i] != nil {
			logger.Warnw("analyzer failed", "analyzer", a.Name(), "error", errs[i])
			out.Errors = append(out.Errors, fmt.Sprintf("analyzer %s: %v", a.Name(), errs[i]))
		}
		logger.Debugw("analyzer finished", "analyzer", a.Name(), "findings", len(results[i]))
	}
	return out
}

func safeAnalyze(ctx context.Context, a Analyzer, files []*source.ParseResult) (findings []finding.Finding, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			findings = nil
			err = fmt.Errorf("%w: %v", sharedErrors.ErrAnalyzerPanic, rec)
		}
	}()
	return a.Analyze(ctx, files)
}

// Collector accumulates findings from concurrent workers inside one analyzer.
type Collector struct {
	mu       sync.Mutex
	findings []finding.Finding
}

// Add appends findings under the collector's lock.
func (c *Collector) Add(findings ...finding.Finding) {
	c.mu.Lock()
	c.findings = append(c.findings, findings...)
	c.mu.Unlock()
}

// Findings returns a copy of the collected findings.
func (c *Collector) Findings() []finding.Finding {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]finding.Finding, len(c.findings))
	copy(out, c.findings)
	return out
}
