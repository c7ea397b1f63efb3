package source

import "fmt"

// Dependency is one exactly-pinned third-party package from a lockfile.
type Dependency struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Ecosystem Ecosystem `json:"ecosystem"`
}

// Key identifies a dependency across lockfiles.
func (d Dependency) Key() string {
	return fmt.Sprintf("%s:%s:%s", d.Ecosystem, d.Name, d.Version)
}

func (d Dependency) String() string {
	return d.Name + "@" + d.Version
}

// Extraction is one located piece of source text.
type Extraction struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Call is a call expression to a function considered dangerous.
type Call struct {
	Line int    `json:"line"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// ParseResult is the normalized, language-tagged view of one file.
// Lockfile results only populate Dependencies; source results only populate
// the code extractions.
type ParseResult struct {
	FilePath       string       `json:"file_path"`
	Language       Language     `json:"language"`
	Lines          []string     `json:"-"`
	Source         string       `json:"-"`
	Literals       []Extraction `json:"literals,omitempty"`
	DangerousCalls []Call       `json:"dangerous_calls,omitempty"`
	Queries        []Extraction `json:"queries,omitempty"`
	Decorators     []Extraction `json:"decorators,omitempty"`
	Dependencies   []Dependency `json:"dependencies,omitempty"`
}

// Line returns the 1-based source line, or "" when out of range.
func (r *ParseResult) Line(n int) string {
	if r == nil || n < 1 || n > len(r.Lines) {
		return ""
	}
	return r.Lines[n-1]
}

// Empty reports whether nothing was extracted.
func (r *ParseResult) Empty() bool {
	return len(r.Literals) == 0 && len(r.DangerousCalls) == 0 && len(r.Queries) == 0 &&
		len(r.Decorators) == 0 && len(r.Dependencies) == 0
}
