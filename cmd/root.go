package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/khanhnv2901/assess/internal/application"
	assessapp "github.com/khanhnv2901/assess/internal/application/assess"
	"github.com/khanhnv2901/assess/internal/report"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
)

const (
	exitClean    = assessapp.ExitClean
	exitBlocking = assessapp.ExitBlocking
	exitFatal    = assessapp.ExitFatal
)

var cfgFile string
var logger *zap.SugaredLogger
var verbose bool

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cliConfig = newCLIConfig()
	cfgFile = ""
	verbose = false

	cmd := &cobra.Command{
		Use:   "assess <project_path>",
		Short: "Static security assessment of a project source tree",
		Long: `Scan a project for known-vulnerable dependencies, hardcoded secrets,
injection sinks and insecure configuration, then write a severity-scored report.

Exit status is 0 when no CRITICAL or HIGH finding remains after suppressions,
1 when one does, and 2 when the assessment could not run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return fatal(err)
			}

			logger = newLogger(cmd.ErrOrStderr(), verbose)

			applyConfigDefaults(cmd.Root().Flags())
			if cliConfig.OSV.CacheDir == "" {
				dir, err := getCacheDir()
				if err != nil {
					logger.Warnw("vulnerability cache disabled", "error", err)
				}
				cliConfig.OSV.CacheDir = dir
			}

			logger.Debugw("configuration loaded",
				"config_files", loadedConfigFiles,
				"format", cliConfig.Report.Format,
				"skip_osv", cliConfig.OSV.Skip,
				"cache_dir", cliConfig.OSV.CacheDir)
			return nil
		},
		RunE: runAssess,
	}

	flags := cmd.Flags()
	flags.StringVarP(&cliConfig.Report.Output, "output", "o", "", "write the report to FILE instead of stdout")
	flags.StringVarP(&cliConfig.Report.Format, "format", "f", cliConfig.Report.Format, "report format: markdown or json")
	flags.BoolVar(&cliConfig.OSV.Skip, "skip-osv", false, "skip vulnerability database lookups")
	flags.StringVar(&cliConfig.Scan.SuppressionFile, "suppressions", cliConfig.Scan.SuppressionFile, "suppression file, relative to the project root")
	flags.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flags.IntVar(&cliConfig.OSV.Concurrency, "concurrency", cliConfig.OSV.Concurrency, "max concurrent vulnerability lookups")
	flags.IntVar(&cliConfig.OSV.RateLimit, "rate-limit", cliConfig.OSV.RateLimit, "vulnerability lookups per second (0 = unlimited)")
	flags.IntVar(&cliConfig.OSV.TimeoutSecs, "timeout", cliConfig.OSV.TimeoutSecs, "vulnerability lookup timeout in seconds")

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.assess.yaml, then ./.assess.yaml)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInfoCmd())
	return cmd
}

func runAssess(cmd *cobra.Command, args []string) error {
	if err := cliConfig.validate(); err != nil {
		return fatal(err)
	}

	container, err := application.NewContainer(cliConfig.applicationConfig(), logger)
	if err != nil {
		return fatal(fmt.Errorf("initialize services: %w", err))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	projectPath := args[0]
	result, err := container.AssessService.Run(ctx, cliConfig.request(projectPath))
	if err != nil {
		if errors.Is(err, sharedErrors.ErrProjectNotFound) ||
			errors.Is(err, sharedErrors.ErrProjectNotDir) ||
			errors.Is(err, sharedErrors.ErrInvalidProjectPath) {
			return fatal(&InvalidProjectPathError{Path: projectPath, Err: err})
		}
		return fatal(fmt.Errorf("assessment failed: %w", err))
	}

	rendered, err := report.Render(result, strings.ToLower(cliConfig.Report.Format))
	if err != nil {
		return fatal(err)
	}
	if err := writeReport(cmd.OutOrStdout(), cliConfig.Report.Output, rendered); err != nil {
		return fatal(err)
	}
	printSummary(cmd.ErrOrStderr(), result, cliConfig.Report.Output)

	if code := assessapp.ExitCode(result); code != exitClean {
		return &ExitError{Code: code}
	}
	return nil
}

// newLogger builds a production JSON logger writing to w, at warn level
// unless debug is requested.
func newLogger(w io.Writer, debug bool) *zap.SugaredLogger {
	level := zap.NewAtomicLevelAt(zap.WarnLevel)
	if debug {
		level.SetLevel(zap.DebugLevel)
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core).Sugar()
}

// Execute runs the root command and returns the process exit status.
func Execute() int {
	return execute(rootCmd)
}

func execute(cmd *cobra.Command) int {
	err := cmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	return exitStatus(cmd.ErrOrStderr(), err)
}

func exitStatus(w io.Writer, err error) int {
	if err == nil {
		return exitClean
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(w, "%s %v\n", colorError("Error:"), exitErr.Err)
		}
		return exitErr.Code
	}

	// Argument and flag parsing errors from cobra.
	fmt.Fprintf(w, "%s %v\n", colorError("Error:"), err)
	fmt.Fprintln(w, "Run 'assess --help' for usage.")
	return exitFatal
}
