// Package dependency reports pinned third-party packages with known
// vulnerabilities.
package dependency

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/khanhnv2901/assess/internal/analyzer"
	"github.com/khanhnv2901/assess/internal/domain/finding"
	"github.com/khanhnv2901/assess/internal/domain/source"
	"github.com/khanhnv2901/assess/internal/infrastructure/osv"
)

const (
	Name    = "dependency"
	Version = "1.2.0"

	RuleID     = "vulnerable-dependency"
	confidence = 0.9
)

// VulnerabilitySource answers single-package lookups. It never fails; an
// unreachable database looks like a clean package.
type VulnerabilitySource interface {
	Query(ctx context.Context, name, version, ecosystem string) []osv.Vulnerability
}

// Options tunes the analyzer.
type Options struct {
	Concurrency        int
	RateLimit          int
	ExcludedEcosystems []string
	// Disabled skips every lookup; the analyzer still reports its version.
	Disabled bool
}

// Analyzer implements analyzer.Analyzer for lockfile dependencies.
type Analyzer struct {
	source   VulnerabilitySource
	runner   Runner
	excluded map[source.Ecosystem]struct{}
	disabled bool
	logger   *zap.SugaredLogger
}

var _ analyzer.Analyzer = (*Analyzer)(nil)

// New creates the analyzer. src may be nil only when opts.Disabled is set.
func New(src VulnerabilitySource, opts Options, logger *zap.SugaredLogger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	excluded := make(map[source.Ecosystem]struct{}, len(opts.ExcludedEcosystems))
	for _, eco := range opts.ExcludedEcosystems {
		excluded[source.Ecosystem(eco)] = struct{}{}
	}
	return &Analyzer{
		source:   src,
		runner:   Runner{Concurrency: opts.Concurrency, RateLimit: opts.RateLimit},
		excluded: excluded,
		disabled: opts.Disabled || src == nil,
		logger:   logger,
	}
}

func (a *Analyzer) Name() string    { return Name }
func (a *Analyzer) Version() string { return Version }

// located ties a dependency to the lockfile line that first names it.
type located struct {
	dep  source.Dependency
	file *source.ParseResult
	line int
}

// Analyze queries every distinct dependency and converts each returned
// vulnerability into a finding. Cancellation stops scheduling and returns
// what was collected.
func (a *Analyzer) Analyze(ctx context.Context, files []*source.ParseResult) ([]finding.Finding, error) {
	deps := a.collect(files)
	if a.disabled {
		a.logger.Infow("vulnerability lookups disabled", "dependencies", len(deps))
		return nil, nil
	}
	if len(deps) == 0 {
		return nil, nil
	}

	index := make(map[string]located, len(deps))
	list := make([]source.Dependency, 0, len(deps))
	for _, d := range deps {
		index[d.dep.Key()] = d
		list = append(list, d.dep)
	}

	var collector analyzer.Collector
	started := a.runner.Run(ctx, list, func(ctx context.Context, dep source.Dependency) {
		vulns := a.source.Query(ctx, dep.Name, dep.Version, string(dep.Ecosystem))
		loc := index[dep.Key()]
		for _, v := range vulns {
			collector.Add(a.toFinding(loc, v))
		}
	})

	findings := collector.Findings()
	if err := ctx.Err(); err != nil {
		a.logger.Warnw("dependency scan interrupted", "queried", started, "total", len(list))
		return findings, fmt.Errorf("interrupted after %d of %d dependency lookups: %w", started, len(list), err)
	}
	a.logger.Debugw("dependency scan complete", "dependencies", len(list), "findings", len(findings))
	return findings, nil
}

// collect gathers distinct dependencies in file order, dropping excluded
// ecosystems.
func (a *Analyzer) collect(files []*source.ParseResult) []located {
	seen := make(map[string]struct{})
	var out []located
	for _, f := range files {
		if f == nil || !f.Language.IsLockfile() {
			continue
		}
		for _, dep := range f.Dependencies {
			if _, skip := a.excluded[dep.Ecosystem]; skip {
				continue
			}
			if _, dup := seen[dep.Key()]; dup {
				continue
			}
			seen[dep.Key()] = struct{}{}
			out = append(out, located{dep: dep, file: f, line: mentionLine(f, dep.Name)})
		}
	}
	return out
}

// mentionLine finds the first lockfile line naming the package, preferring
// quoted or slash-delimited occurrences over bare substrings.
func mentionLine(f *source.ParseResult, name string) int {
	candidates := []string{`"` + name + `"`, "/" + name + `"`, `"` + name + "@", name + "@", `"` + name, name}
	for _, needle := range candidates {
		for i, line := range f.Lines {
			if strings.Contains(line, needle) {
				return i + 1
			}
		}
	}
	return 1
}

func (a *Analyzer) toFinding(loc located, v osv.Vulnerability) finding.Finding {
	dep := loc.dep
	sev, score, scored := severityOf(v)
	fixed := v.FixedVersion()

	id := v.ID()
	if id == "" {
		id = "unknown advisory"
	}

	metadata := map[string]any{
		"package":          dep.Name,
		"version":          dep.Version,
		"ecosystem":        string(dep.Ecosystem),
		"vulnerability_id": v.ID(),
		"aliases":          v.Aliases(),
		"references":       v.ReferenceURLs(),
	}
	if scored {
		metadata["cvss_score"] = score
	}
	if fixed != "" {
		metadata["fixed_version"] = fixed
	}

	return finding.Finding{
		RuleID:      RuleID,
		Category:    finding.CategoryVulnerableComponents,
		Severity:    sev,
		Title:       fmt.Sprintf("%s in %s %s", id, dep.Name, dep.Version),
		Description: describe(v, dep),
		FilePath:    loc.file.FilePath,
		LineNumber:  loc.line,
		CodeSample:  dep.String(),
		Remediation: remediation(dep, fixed),
		CWE:         cweOf(v),
		Confidence:  confidence,
		Metadata:    metadata,
	}
}

func describe(v osv.Vulnerability, dep source.Dependency) string {
	summary := strings.TrimSpace(v.Summary())
	details := strings.TrimSpace(v.Details())
	switch {
	case summary != "" && details != "" && summary != details:
		return summary + "\n\n" + details
	case summary != "":
		return summary
	case details != "":
		return details
	default:
		return fmt.Sprintf("%s %s is affected by a published vulnerability.", dep.Name, dep.Version)
	}
}

func remediation(dep source.Dependency, fixed string) string {
	if fixed != "" {
		return fmt.Sprintf("Upgrade %s from %s to %s or later.", dep.Name, dep.Version, fixed)
	}
	return fmt.Sprintf("No fixed release is published for %s. Find a patched release or replace the dependency.", dep.Name)
}

// cweOf prefers database_specific.cwe_ids and falls back to CWE aliases.
func cweOf(v osv.Vulnerability) string {
	if ids := osv.Strings(v.DatabaseSpecific()["cwe_ids"]); len(ids) > 0 {
		return ids[0]
	}
	for _, alias := range v.Aliases() {
		if strings.HasPrefix(alias, "CWE-") {
			return alias
		}
	}
	return ""
}
