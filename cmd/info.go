package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show configuration sources and cache location",
		Long: `Display assess configuration information including:
  - Configuration files consulted
  - Vulnerability database endpoint and cache directory
  - Project file names read from the scanned tree`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cacheState := "✗ (not created yet)"
			if _, err := os.Stat(cliConfig.OSV.CacheDir); err == nil {
				cacheState = "✓ (exists)"
			}
			if cliConfig.OSV.CacheDir == "" {
				cacheState = "✗ (disabled)"
			}

			fmt.Fprintln(out, "assess System Information")
			fmt.Fprintln(out, "=========================")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Version:           %s\n", Version)
			fmt.Fprintf(out, "Platform:          %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Configuration:")
			if cfgFile != "" {
				fmt.Fprintf(out, "  Config File:        %s\n", cfgFile)
			} else {
				for _, path := range configSearchPaths() {
					state := "✗ (not found)"
					if _, err := os.Stat(path); err == nil {
						state = "✓ (loaded)"
					}
					fmt.Fprintf(out, "  Config File:        %s %s\n", path, state)
				}
			}
			fmt.Fprintf(out, "  Environment Prefix: %s_\n", envPrefix)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Vulnerability Database:")
			fmt.Fprintf(out, "  Endpoint:           %s\n", cliConfig.OSV.URL)
			fmt.Fprintf(out, "  Cache Directory:    %s %s\n", cliConfig.OSV.CacheDir, cacheState)
			fmt.Fprintf(out, "  Cache TTL:          %dh\n", cliConfig.OSV.CacheTTLHours)
			if len(cliConfig.OSV.ExcludedEcosystems) > 0 {
				fmt.Fprintf(out, "  Excluded:           %s\n", strings.Join(cliConfig.OSV.ExcludedEcosystems, ", "))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Project Files:")
			fmt.Fprintf(out, "  Ignore File:        %s\n", cliConfig.Scan.IgnoreFile)
			fmt.Fprintf(out, "  Suppression File:   %s\n", cliConfig.Scan.SuppressionFile)
			return nil
		},
	}
}
