package dependency

import (
	"strconv"
	"strings"

	gocvss30 "github.com/pandatix/go-cvss/30"
	gocvss31 "github.com/pandatix/go-cvss/31"

	"github.com/khanhnv2901/assess/internal/domain/finding"
	"github.com/khanhnv2901/assess/internal/infrastructure/osv"
)

// scoreExtractor looks for a CVSS-like score in one place of an OSV record.
type scoreExtractor func(v osv.Vulnerability) (float64, bool)

// scoreExtractors run in this order; the highest score found anywhere wins.
var scoreExtractors = []scoreExtractor{
	severityEntryScore,
	databaseSpecificScore,
	severityLabelScore,
}

// labelScores places each textual label in the middle of its CVSS band.
var labelScores = map[finding.Severity]float64{
	finding.SeverityCritical: 9.5,
	finding.SeverityHigh:     7.5,
	finding.SeverityMedium:   5.5,
	finding.SeverityLow:      2.5,
}

// cvssScore returns the best score across all extractors.
func cvssScore(v osv.Vulnerability) (float64, bool) {
	best, found := 0.0, false
	for _, extract := range scoreExtractors {
		if score, ok := extract(v); ok && (!found || score > best) {
			best, found = score, true
		}
	}
	return best, found
}

// severityOf maps a record to a severity; records with no usable score are
// MEDIUM.
func severityOf(v osv.Vulnerability) (finding.Severity, float64, bool) {
	score, ok := cvssScore(v)
	if !ok {
		return finding.SeverityMedium, 0, false
	}
	return finding.SeverityFromCVSS(score), score, true
}

// severityEntryScore reads severity[].score, which is a number, a numeric
// string or a CVSS v3 vector depending on the database.
func severityEntryScore(v osv.Vulnerability) (float64, bool) {
	best, found := 0.0, false
	for _, entry := range v.SeverityEntries() {
		score, ok := scoreValue(entry["score"])
		if !ok {
			if vec, isString := entry["score"].(string); isString {
				score, ok = vectorScore(vec)
			}
		}
		if ok && (!found || score > best) {
			best, found = score, true
		}
	}
	return best, found
}

// databaseSpecificScore reads the ad hoc score fields some databases attach
// under database_specific.
func databaseSpecificScore(v osv.Vulnerability) (float64, bool) {
	db := v.DatabaseSpecific()
	if db == nil {
		return 0, false
	}
	for _, key := range []string{"cvss_score", "cvss3_score", "severity_score"} {
		if score, ok := scoreValue(db[key]); ok {
			return score, true
		}
	}
	if score, ok := scoreValue(osv.Object(db["cvss"])["score"]); ok {
		return score, true
	}
	if score, ok := scoreValue(osv.Object(db["cvss_v3"])["base_score"]); ok {
		return score, true
	}
	return 0, false
}

// severityLabelScore converts CRITICAL/HIGH/MODERATE/LOW labels found on the
// affected entries or the record itself.
func severityLabelScore(v osv.Vulnerability) (float64, bool) {
	var labels []any
	for _, affected := range v.Affected() {
		labels = append(labels,
			osv.Object(affected["ecosystem_specific"])["severity"],
			osv.Object(affected["database_specific"])["severity"],
		)
	}
	if db := v.DatabaseSpecific(); db != nil {
		labels = append(labels, db["severity"])
	}

	best, found := 0.0, false
	for _, raw := range labels {
		label, ok := raw.(string)
		if !ok {
			continue
		}
		sev, err := finding.ParseSeverity(label)
		if err != nil {
			continue
		}
		if score := labelScores[sev]; !found || score > best {
			best, found = score, true
		}
	}
	return best, found
}

// scoreValue accepts JSON numbers and numeric strings within [0, 10].
func scoreValue(raw any) (float64, bool) {
	var score float64
	switch val := raw.(type) {
	case float64:
		score = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		score = parsed
	default:
		return 0, false
	}
	if score < 0 || score > 10 {
		return 0, false
	}
	return score, true
}

func vectorScore(vector string) (float64, bool) {
	switch {
	case strings.HasPrefix(vector, "CVSS:3.1/"):
		cvss, err := gocvss31.ParseVector(vector)
		if err != nil {
			return 0, false
		}
		return cvss.BaseScore(), true
	case strings.HasPrefix(vector, "CVSS:3.0/"):
		cvss, err := gocvss30.ParseVector(vector)
		if err != nil {
			return 0, false
		}
		return cvss.BaseScore(), true
	default:
		return 0, false
	}
}
