package cmd

import (
	"strings"

	"github.com/fatih/color"

	"github.com/khanhnv2901/assess/internal/domain/assessment"
	"github.com/khanhnv2901/assess/internal/domain/finding"
)

var (
	colorSuccess  = color.New(color.FgGreen).SprintFunc()
	colorInfo     = color.New(color.FgCyan).SprintFunc()
	colorWarn     = color.New(color.FgYellow).SprintFunc()
	colorError    = color.New(color.FgRed).SprintFunc()
	colorCritical = color.New(color.FgHiRed, color.Bold).SprintFunc()
)

func formatSeverityWithColor(sev finding.Severity) string {
	label := string(sev)
	switch sev {
	case finding.SeverityCritical:
		return colorCritical(label)
	case finding.SeverityHigh:
		return colorError(label)
	case finding.SeverityMedium:
		return colorWarn(label)
	case finding.SeverityLow:
		return colorInfo(label)
	default:
		return label
	}
}

func formatPostureWithColor(p assessment.Posture) string {
	label := strings.ToUpper(string(p))
	switch p {
	case assessment.PostureCritical:
		return colorCritical(label)
	case assessment.PostureHigh:
		return colorError(label)
	case assessment.PostureModerate:
		return colorWarn(label)
	case assessment.PostureClean, assessment.PostureLow:
		return colorSuccess(label)
	default:
		return label
	}
}
