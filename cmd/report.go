package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/khanhnv2901/assess/internal/domain/assessment"
	"github.com/khanhnv2901/assess/internal/domain/finding"
	"github.com/khanhnv2901/assess/internal/shared/constants"
)

// writeReport sends the rendered report to path, or to out when path is empty.
func writeReport(out io.Writer, path, content string) error {
	if path == "" {
		_, err := io.WriteString(out, content)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DefaultDirPerm); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), constants.DefaultFilePerm); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// printSummary writes the colored run summary for the terminal.
func printSummary(w io.Writer, result *assessment.Result, outputPath string) {
	counts := result.SeverityCounts()

	fmt.Fprintf(w, "%s %s: %d finding(s), %d suppressed, %d file(s) in %s\n",
		colorInfo("Assessment complete"),
		result.Project.Name,
		len(result.Findings),
		result.SuppressedCount,
		result.Project.FileCount,
		result.Project.Duration.Round(time.Millisecond))
	for _, sev := range finding.Severities {
		fmt.Fprintf(w, "  %-18s %d\n", formatSeverityWithColor(sev), counts[sev])
	}
	fmt.Fprintf(w, "Risk score: %d (%s)\n", result.RiskScore(), formatPostureWithColor(result.Posture()))

	for _, line := range result.Errors {
		fmt.Fprintf(w, "%s %s\n", colorWarn("warning:"), line)
	}

	if outputPath != "" {
		fmt.Fprintf(w, "Report written to %s\n", outputPath)
	}
	if result.HasBlockingFindings() {
		fmt.Fprintln(w, colorError("Blocking findings present (CRITICAL/HIGH)"))
	} else {
		fmt.Fprintln(w, colorSuccess("No blocking findings"))
	}
}
