// Package assess runs the full assessment pipeline: discovery, parsing,
// analysis, suppression and result assembly.
package assess

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/khanhnv2901/assess/internal/analyzer"
	"github.com/khanhnv2901/assess/internal/domain/assessment"
	"github.com/khanhnv2901/assess/internal/domain/finding"
	"github.com/khanhnv2901/assess/internal/domain/source"
	"github.com/khanhnv2901/assess/internal/domain/suppression"
	"github.com/khanhnv2901/assess/internal/infrastructure/discovery"
	"github.com/khanhnv2901/assess/internal/infrastructure/parser"
	"github.com/khanhnv2901/assess/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
)

// Process exit codes.
const (
	ExitClean    = 0
	ExitBlocking = 1
	ExitFatal    = 2
)

// Request describes one run.
type Request struct {
	ProjectPath string
	// IgnoreFile is resolved against the project root; empty selects
	// .securityignore.
	IgnoreFile string
	// MaxFileBytes caps the size of a parsed source file; zero selects 1 MiB.
	MaxFileBytes int64
	// MaxLockfileBytes caps the size of a lockfile; zero selects 64 MiB.
	MaxLockfileBytes int64
}

// SuppressionSource opens the suppression repository of a project.
type SuppressionSource func(projectRoot string) (suppression.Repository, error)

// FailureCounter exposes degraded vulnerability lookups.
type FailureCounter interface {
	Failures() int64
}

// Service is the assessment orchestrator.
type Service struct {
	walker       *discovery.Walker
	parser       *parser.Parser
	runner       *analyzer.Runner
	suppressions SuppressionSource
	vulnDB       FailureCounter
	logger       *zap.SugaredLogger
	now          func() time.Time
}

// NewService wires the pipeline. suppressions and vulnDB may be nil.
func NewService(analyzers []analyzer.Analyzer, suppressions SuppressionSource, vulnDB FailureCounter, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		walker:       discovery.NewWalker(logger),
		parser:       parser.New(logger),
		runner:       &analyzer.Runner{Analyzers: analyzers, Logger: logger},
		suppressions: suppressions,
		vulnDB:       vulnDB,
		logger:       logger,
		now:          time.Now,
	}
}

// Run executes the pipeline. Only an invalid project path is fatal; every
// other problem becomes a line in Result.Errors. A cancelled ctx yields the
// findings collected so far.
func (s *Service) Run(ctx context.Context, req Request) (*assessment.Result, error) {
	start := s.now()

	root, err := validateProject(req.ProjectPath)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("starting assessment", "project", root)

	var errs []string
	addErr := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	patterns := s.ignorePatterns(root, req.IgnoreFile, addErr)

	files, err := s.discover(root, patterns)
	if err != nil {
		return nil, err
	}
	s.logger.Debugw("discovery complete", "files", len(files))

	parsed := s.parseAll(ctx, root, files, req.MaxFileBytes, req.MaxLockfileBytes, addErr)

	outcome := s.runner.Run(ctx, parsed)
	errs = append(errs, outcome.Errors...)
	if s.vulnDB != nil {
		if n := s.vulnDB.Failures(); n > 0 {
			addErr("vulnerability database unavailable for %d dependency lookup(s); those packages were treated as clean", n)
		}
	}

	sorted := finding.SortAndNumber(outcome.Findings)
	active := s.activeSuppressions(ctx, root)
	applied := suppression.Apply(sorted, active)
	suppression.LogSuppressed(s.logger, applied.Suppressed)

	if ctx.Err() != nil {
		addErr("%v: results are partial", sharedErrors.ErrScanInterrupted)
	}

	result := &assessment.Result{
		Project: assessment.Project{
			Name:      filepath.Base(root),
			Path:      root,
			FileCount: len(parsed),
			Duration:  s.now().Sub(start),
			Timestamp: start,
		},
		Findings:         finding.SortAndNumber(applied.Kept),
		SuppressedCount:  applied.SuppressedCount(),
		AnalyzerVersions: outcome.Versions,
		Errors:           errs,
	}
	s.logger.Infow("assessment complete",
		"findings", len(result.Findings), "suppressed", result.SuppressedCount,
		"errors", len(result.Errors), "duration", result.Project.Duration)
	return result, nil
}

// ExitCode maps a result to the process exit status.
func ExitCode(result *assessment.Result) int {
	if result == nil {
		return ExitFatal
	}
	if result.HasBlockingFindings() {
		return ExitBlocking
	}
	return ExitClean
}

func validateProject(projectPath string) (string, error) {
	if projectPath == "" {
		return "", fmt.Errorf("%w: path is empty", sharedErrors.ErrInvalidProjectPath)
	}
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", sharedErrors.ErrInvalidProjectPath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", sharedErrors.ErrProjectNotFound, abs)
		}
		return "", fmt.Errorf("%w: %v", sharedErrors.ErrInvalidProjectPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", sharedErrors.ErrProjectNotDir, abs)
	}
	return abs, nil
}

func (s *Service) ignorePatterns(root, ignoreFile string, addErr func(string, ...any)) []discovery.Pattern {
	if ignoreFile == "" {
		ignoreFile = constants.IgnoreFileName
	}
	file := ignoreFile
	if !filepath.IsAbs(file) {
		file = filepath.Join(root, ignoreFile)
	}
	patterns, err := discovery.LoadIgnoreFile(file, s.logger)
	if err != nil {
		s.logger.Warnw("cannot read ignore file", "path", file, "error", err)
		addErr("ignore file %s could not be read: %v", ignoreFile, err)
		return nil
	}
	return patterns
}

// discover lists source files followed by the selected lockfiles, each group
// in path order.
func (s *Service) discover(root string, patterns []discovery.Pattern) ([]string, error) {
	files, err := s.walker.SourceFiles(root, patterns)
	if err != nil {
		return nil, err
	}
	lockfiles, err := s.walker.Lockfiles(root)
	if err != nil {
		return nil, err
	}
	for _, eco := range []source.Ecosystem{source.EcosystemNPM, source.EcosystemPyPI, source.EcosystemGo, source.EcosystemCrate} {
		if rel, ok := lockfiles[eco]; ok {
			files = append(files, rel)
		}
	}
	return files, nil
}

func (s *Service) parseAll(ctx context.Context, root string, files []string, sourceLimit, lockLimit int64, addErr func(string, ...any)) []*source.ParseResult {
	if sourceLimit <= 0 {
		sourceLimit = constants.MaxSourceFileBytes
	}
	if lockLimit <= 0 {
		lockLimit = constants.MaxLockfileBytes
	}
	parsed := make([]*source.ParseResult, 0, len(files))
	for _, rel := range files {
		if ctx.Err() != nil {
			s.logger.Warnw("parsing interrupted", "parsed", len(parsed), "total", len(files))
			break
		}
		limit := sourceLimit
		if source.DetectLanguage(rel).IsLockfile() {
			limit = lockLimit
		}
		content, err := readCapped(filepath.Join(root, filepath.FromSlash(rel)), limit)
		if err != nil {
			s.logger.Warnw("skipping file", "file", rel, "error", err)
			addErr("%s: %v", rel, err)
			continue
		}
		parsed = append(parsed, s.parser.Parse(rel, content))
	}
	return parsed
}

func readCapped(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > limit {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", sharedErrors.ErrFileTooLarge, info.Size(), limit)
	}
	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", sharedErrors.ErrFileTooLarge, limit)
	}
	return content, nil
}

// activeSuppressions loads the project's rules and keeps the unexpired ones.
// Expired rules are logged so stale entries stay visible.
func (s *Service) activeSuppressions(ctx context.Context, root string) []suppression.Suppression {
	if s.suppressions == nil {
		return nil
	}
	repo, err := s.suppressions(root)
	if err != nil {
		s.logger.Warnw("suppressions unavailable", "error", err)
		return nil
	}
	// rules still apply to the partial findings of an interrupted run
	cfg, err := repo.Load(context.WithoutCancel(ctx))
	if err != nil || cfg == nil {
		if err != nil {
			s.logger.Warnw("suppressions unavailable", "error", err)
		}
		return nil
	}
	active, expired := suppression.Partition(cfg.Suppressions, s.now())
	suppression.LogExpired(s.logger, expired)
	return active
}
