package osv

import "strings"

// Vulnerability is one OSV record kept as the raw decoded document. Fields
// beyond the handful read here vary between databases, so callers navigate
// the map with the helpers below.
type Vulnerability map[string]any

// ID returns the advisory identifier, e.g. GHSA-xxxx or PYSEC-2021-1.
func (v Vulnerability) ID() string { return v.String("id") }

func (v Vulnerability) Summary() string { return v.String("summary") }

func (v Vulnerability) Details() string { return v.String("details") }

// String returns a top-level string field or "".
func (v Vulnerability) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Aliases lists alternative identifiers such as CVE or CWE ids.
func (v Vulnerability) Aliases() []string {
	return Strings(v["aliases"])
}

// DatabaseSpecific returns the top-level database_specific object.
func (v Vulnerability) DatabaseSpecific() map[string]any {
	return Object(v["database_specific"])
}

// SeverityEntries returns the severity[] array objects.
func (v Vulnerability) SeverityEntries() []map[string]any {
	return Objects(v["severity"])
}

// Affected returns the affected[] array objects.
func (v Vulnerability) Affected() []map[string]any {
	return Objects(v["affected"])
}

// FixedVersion returns the first "fixed" event across every affected range,
// or "" when no fix is published.
func (v Vulnerability) FixedVersion() string {
	for _, affected := range v.Affected() {
		for _, rng := range Objects(affected["ranges"]) {
			for _, event := range Objects(rng["events"]) {
				if fixed, ok := event["fixed"].(string); ok && fixed != "" {
					return fixed
				}
			}
		}
	}
	return ""
}

// ReferenceURLs lists reference links in document order.
func (v Vulnerability) ReferenceURLs() []string {
	var urls []string
	for _, ref := range Objects(v["references"]) {
		if u, ok := ref["url"].(string); ok && strings.TrimSpace(u) != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// Object asserts a JSON object, returning nil for anything else.
func Object(value any) map[string]any {
	m, _ := value.(map[string]any)
	return m
}

// Objects keeps the object elements of a JSON array.
func Objects(value any) []map[string]any {
	items, _ := value.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Strings keeps the string elements of a JSON array.
func Strings(value any) []string {
	items, _ := value.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
