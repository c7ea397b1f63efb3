package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/khanhnv2901/assess/internal/application"
	assessapp "github.com/khanhnv2901/assess/internal/application/assess"
	"github.com/khanhnv2901/assess/internal/infrastructure/osv"
	"github.com/khanhnv2901/assess/internal/report"
	"github.com/khanhnv2901/assess/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
)

const (
	configFileName = ".assess"
	envPrefix      = "ASSESS"

	defaultConcurrency   = 4
	defaultRateLimit     = 10
	defaultTimeoutSecs   = 10
	defaultCacheTTLHours = 24
)

// CLIConfig captures runtime configuration for one invocation.
type CLIConfig struct {
	Report ReportConfig
	OSV    OSVConfig
	Scan   ScanConfig
}

// ReportConfig selects where and how the report is written.
type ReportConfig struct {
	Output string
	Format string
}

// OSVConfig groups vulnerability database settings.
type OSVConfig struct {
	Skip               bool
	URL                string
	TimeoutSecs        int
	CacheDir           string
	CacheTTLHours      int
	Concurrency        int
	RateLimit          int
	ExcludedEcosystems []string
}

// ScanConfig holds discovery and suppression settings.
type ScanConfig struct {
	IgnoreFile       string
	MaxFileBytes     int
	MaxLockfileBytes int
	SuppressionFile  string
}

type configOverrides struct {
	Format             string
	Output             string
	Skip               *bool
	URL                string
	TimeoutSecs        *int
	CacheDir           string
	CacheTTLHours      *int
	Concurrency        *int
	RateLimit          *int
	ExcludedEcosystems []string
	IgnoreFile         string
	MaxFileBytes       *int
	MaxLockfileBytes   *int
	SuppressionFile    string
}

var cliConfig = newCLIConfig()

// loadedConfigFiles records the settings files merged by initConfig.
var loadedConfigFiles []string

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Report: ReportConfig{
			Format: report.FormatMarkdown,
		},
		OSV: OSVConfig{
			URL:           constants.OSVQueryURL,
			TimeoutSecs:   defaultTimeoutSecs,
			CacheTTLHours: defaultCacheTTLHours,
			Concurrency:   defaultConcurrency,
			RateLimit:     defaultRateLimit,
		},
		Scan: ScanConfig{
			IgnoreFile:       constants.IgnoreFileName,
			MaxFileBytes:     constants.MaxSourceFileBytes,
			MaxLockfileBytes: constants.MaxLockfileBytes,
			SuppressionFile:  constants.SuppressionFileName,
		},
	}
}

// initConfig loads the settings file named by --config, or merges
// ~/.assess.yaml and ./.assess.yaml in that order. ASSESS_* environment
// variables override file values.
func initConfig() error {
	viper.Reset()
	loadedConfigFiles = nil

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.SetConfigType("yaml")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		loadedConfigFiles = append(loadedConfigFiles, cfgFile)
		return nil
	}

	for _, path := range configSearchPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		viper.SetConfigFile(path)
		if err := viper.MergeInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		loadedConfigFiles = append(loadedConfigFiles, path)
	}
	return nil
}

func loadConfigOverrides() configOverrides {
	overrides := configOverrides{}

	intKey := func(key string) *int {
		if !viper.IsSet(key) {
			return nil
		}
		val := viper.GetInt(key)
		return &val
	}

	overrides.Format = viper.GetString("report.format")
	overrides.Output = viper.GetString("report.output")
	if viper.IsSet("osv.skip") {
		val := viper.GetBool("osv.skip")
		overrides.Skip = &val
	}
	overrides.URL = viper.GetString("osv.url")
	overrides.TimeoutSecs = intKey("osv.timeout_secs")
	overrides.CacheDir = viper.GetString("osv.cache_dir")
	overrides.CacheTTLHours = intKey("osv.cache_ttl_hours")
	overrides.Concurrency = intKey("osv.concurrency")
	overrides.RateLimit = intKey("osv.rate_limit")
	if viper.IsSet("dependency.excluded_ecosystems") {
		overrides.ExcludedEcosystems = viper.GetStringSlice("dependency.excluded_ecosystems")
	}
	overrides.IgnoreFile = viper.GetString("discovery.ignore_file")
	overrides.MaxFileBytes = intKey("discovery.max_file_bytes")
	overrides.MaxLockfileBytes = intKey("discovery.max_lockfile_bytes")
	overrides.SuppressionFile = viper.GetString("suppressions.file")

	return overrides
}

// applyConfigDefaults merges config file values into the runtime config when
// the user did not explicitly set the corresponding flag.
func applyConfigDefaults(flags *pflag.FlagSet) {
	overrides := loadConfigOverrides()

	if overrides.Format != "" {
		setStringFlagIfUnset(flags, "format", overrides.Format)
	}
	if overrides.Output != "" {
		setStringFlagIfUnset(flags, "output", overrides.Output)
	}
	if overrides.Skip != nil {
		applyBoolDefault(flags, "skip-osv", *overrides.Skip, func(v bool) {
			cliConfig.OSV.Skip = v
		})
	}
	if overrides.TimeoutSecs != nil {
		applyIntDefault(flags, "timeout", *overrides.TimeoutSecs, func(v int) {
			cliConfig.OSV.TimeoutSecs = v
		})
	}
	if overrides.Concurrency != nil {
		applyIntDefault(flags, "concurrency", *overrides.Concurrency, func(v int) {
			cliConfig.OSV.Concurrency = v
		})
	}
	if overrides.RateLimit != nil {
		applyIntDefault(flags, "rate-limit", *overrides.RateLimit, func(v int) {
			cliConfig.OSV.RateLimit = v
		})
	}

	if overrides.URL != "" {
		cliConfig.OSV.URL = overrides.URL
	}
	if overrides.CacheDir != "" {
		cliConfig.OSV.CacheDir = overrides.CacheDir
	}
	if overrides.CacheTTLHours != nil {
		cliConfig.OSV.CacheTTLHours = *overrides.CacheTTLHours
	}
	if overrides.ExcludedEcosystems != nil {
		cliConfig.OSV.ExcludedEcosystems = overrides.ExcludedEcosystems
	}
	if overrides.IgnoreFile != "" {
		cliConfig.Scan.IgnoreFile = overrides.IgnoreFile
	}
	if overrides.MaxFileBytes != nil {
		cliConfig.Scan.MaxFileBytes = *overrides.MaxFileBytes
	}
	if overrides.MaxLockfileBytes != nil {
		cliConfig.Scan.MaxLockfileBytes = *overrides.MaxLockfileBytes
	}
	if overrides.SuppressionFile != "" {
		setStringFlagIfUnset(flags, "suppressions", overrides.SuppressionFile)
	}
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func setStringFlagIfUnset(flags *pflag.FlagSet, name, value string) {
	if flags == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag == nil || flag.Changed {
		return
	}
	_ = flag.Value.Set(value)
}

// validate rejects settings no run could succeed with.
func (c *CLIConfig) validate() error {
	switch strings.ToLower(c.Report.Format) {
	case report.FormatMarkdown, "md", report.FormatJSON:
	default:
		return fmt.Errorf("%w: %q", sharedErrors.ErrUnknownFormat, c.Report.Format)
	}
	if c.OSV.TimeoutSecs < 0 {
		return fmt.Errorf("timeout must be >= 0, got %d", c.OSV.TimeoutSecs)
	}
	if c.OSV.CacheTTLHours < 0 {
		return fmt.Errorf("osv.cache_ttl_hours must be >= 0, got %d", c.OSV.CacheTTLHours)
	}
	if c.Scan.MaxFileBytes < 0 {
		return fmt.Errorf("discovery.max_file_bytes must be >= 0, got %d", c.Scan.MaxFileBytes)
	}
	if c.Scan.MaxLockfileBytes < 0 {
		return fmt.Errorf("discovery.max_lockfile_bytes must be >= 0, got %d", c.Scan.MaxLockfileBytes)
	}
	if strings.TrimSpace(c.Scan.SuppressionFile) == "" {
		return fmt.Errorf("suppression file name must not be empty")
	}
	return nil
}

func (c *CLIConfig) applicationConfig() application.Config {
	return application.Config{
		OSV: osv.Config{
			URL:      c.OSV.URL,
			Timeout:  time.Duration(c.OSV.TimeoutSecs) * time.Second,
			CacheDir: c.OSV.CacheDir,
			CacheTTL: time.Duration(c.OSV.CacheTTLHours) * time.Hour,
		},
		SkipOSV:            c.OSV.Skip,
		Concurrency:        c.OSV.Concurrency,
		RateLimit:          c.OSV.RateLimit,
		ExcludedEcosystems: c.OSV.ExcludedEcosystems,
		SuppressionFile:    c.Scan.SuppressionFile,
	}
}

func (c *CLIConfig) request(projectPath string) assessapp.Request {
	return assessapp.Request{
		ProjectPath:      projectPath,
		IgnoreFile:       c.Scan.IgnoreFile,
		MaxFileBytes:     int64(c.Scan.MaxFileBytes),
		MaxLockfileBytes: int64(c.Scan.MaxLockfileBytes),
	}
}
