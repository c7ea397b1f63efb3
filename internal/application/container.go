package application

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/khanhnv2901/assess/internal/analyzer"
	"github.com/khanhnv2901/assess/internal/analyzer/dependency"
	"github.com/khanhnv2901/assess/internal/analyzer/injection"
	"github.com/khanhnv2901/assess/internal/analyzer/misconfig"
	"github.com/khanhnv2901/assess/internal/analyzer/secrets"
	assessapp "github.com/khanhnv2901/assess/internal/application/assess"
	"github.com/khanhnv2901/assess/internal/domain/suppression"
	"github.com/khanhnv2901/assess/internal/infrastructure/osv"
	"github.com/khanhnv2901/assess/internal/infrastructure/persistence/json"
)

// Config carries the runtime settings the services are built from.
type Config struct {
	OSV                osv.Config
	SkipOSV            bool
	Concurrency        int
	RateLimit          int
	ExcludedEcosystems []string
	SuppressionFile    string
}

// Container holds all application services and their collaborators.
// This is a simple dependency injection container
type Container struct {
	// Infrastructure
	VulnClient *osv.Client

	// Analyzers in reporting order
	Analyzers []analyzer.Analyzer

	// Services
	AssessService *assessapp.Service
}

// NewContainer creates a new application service container
func NewContainer(cfg Config, logger *zap.SugaredLogger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency must be >= 0, got %d", cfg.Concurrency)
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit must be >= 0, got %d", cfg.RateLimit)
	}

	var client *osv.Client
	var vulnSource dependency.VulnerabilitySource
	var failures assessapp.FailureCounter
	if !cfg.SkipOSV {
		client = osv.NewClient(cfg.OSV, logger.Named("osv"))
		vulnSource = client
		failures = client
	}

	analyzers := []analyzer.Analyzer{
		dependency.New(vulnSource, dependency.Options{
			Concurrency:        cfg.Concurrency,
			RateLimit:          cfg.RateLimit,
			ExcludedEcosystems: cfg.ExcludedEcosystems,
			Disabled:           cfg.SkipOSV,
		}, logger.Named(dependency.Name)),
		secrets.New(),
		injection.New(),
		misconfig.New(),
	}

	suppressionFile := cfg.SuppressionFile
	suppressions := func(projectRoot string) (suppression.Repository, error) {
		return json.NewSuppressionRepository(projectRoot, suppressionFile, logger.Named("suppressions"))
	}

	return &Container{
		VulnClient:    client,
		Analyzers:     analyzers,
		AssessService: assessapp.NewService(analyzers, suppressions, failures, logger),
	}, nil
}
