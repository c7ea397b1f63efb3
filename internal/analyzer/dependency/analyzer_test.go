package dependency

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanhnv2901/assess/internal/domain/finding"
	"github.com/khanhnv2901/assess/internal/domain/source"
	"github.com/khanhnv2901/assess/internal/infrastructure/osv"
)

type fakeSource struct {
	mu      sync.Mutex
	answers map[string][]osv.Vulnerability
	queried []string
}

func (f *fakeSource) Query(_ context.Context, name, version, ecosystem string) []osv.Vulnerability {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ecosystem + ":" + name + ":" + version
	f.queried = append(f.queried, key)
	return f.answers[key]
}

func vuln(t *testing.T, doc string) osv.Vulnerability {
	t.Helper()
	var v osv.Vulnerability
	require.NoError(t, json.Unmarshal([]byte(doc), &v))
	return v
}

func lockfile(path string, lines []string, deps ...source.Dependency) *source.ParseResult {
	return &source.ParseResult{
		FilePath:     path,
		Language:     source.DetectLanguage(path),
		Lines:        lines,
		Dependencies: deps,
	}
}

func TestLodashWithoutCVSSIsMedium(t *testing.T) {
	src := &fakeSource{answers: map[string][]osv.Vulnerability{
		"npm:lodash:4.17.15": {vuln(t, `{
			"id": "GHSA-35jh-r3h4-6jhm",
			"summary": "Command injection in lodash",
			"affected": [{"ranges": [{"type": "SEMVER", "events": [{"introduced": "0"}, {"fixed": "4.17.21"}]}]}]
		}`)},
	}}
	files := []*source.ParseResult{lockfile("package-lock.json",
		[]string{"{", `  "packages": {`, `    "node_modules/lodash": {`, `      "version": "4.17.15"`},
		source.Dependency{Name: "lodash", Version: "4.17.15", Ecosystem: source.EcosystemNPM},
	)}

	findings, err := New(src, Options{Concurrency: 2}, nil).Analyze(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, finding.SeverityMedium, f.Severity)
	assert.Equal(t, finding.CategoryVulnerableComponents, f.Category)
	assert.Equal(t, RuleID, f.RuleID)
	assert.Contains(t, f.Remediation, "4.17.21")
	assert.Equal(t, "package-lock.json", f.FilePath)
	assert.Equal(t, 3, f.LineNumber)
	assert.Equal(t, "lodash@4.17.15", f.CodeSample)
	assert.Equal(t, 0.9, f.Confidence)
	assert.Equal(t, "4.17.21", f.Metadata["fixed_version"])
	assert.NotContains(t, f.Metadata, "cvss_score")
	assert.NoError(t, f.Validate())
}

func TestNoFixedVersionRemediation(t *testing.T) {
	src := &fakeSource{answers: map[string][]osv.Vulnerability{
		"PyPI:django:2.2.0": {vuln(t, `{"id": "PYSEC-1", "database_specific": {"severity": "HIGH"}}`)},
	}}
	files := []*source.ParseResult{lockfile("poetry.lock", nil,
		source.Dependency{Name: "django", Version: "2.2.0", Ecosystem: source.EcosystemPyPI},
	)}

	findings, err := New(src, Options{}, nil).Analyze(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, finding.SeverityHigh, findings[0].Severity)
	assert.Contains(t, findings[0].Remediation, "No fixed release is published for django")
	assert.Equal(t, 1, findings[0].LineNumber)
}

func TestDistinctDependenciesQueriedOnce(t *testing.T) {
	src := &fakeSource{}
	dep := source.Dependency{Name: "lodash", Version: "4.17.15", Ecosystem: source.EcosystemNPM}
	files := []*source.ParseResult{
		lockfile("package-lock.json", nil, dep),
		lockfile("web/yarn.lock", nil, dep),
		lockfile("go.mod", nil, source.Dependency{Name: "golang.org/x/text", Version: "0.3.7", Ecosystem: source.EcosystemGo}),
		{FilePath: "main.py", Language: source.LanguagePython},
	}

	_, err := New(src, Options{Concurrency: 4, ExcludedEcosystems: []string{"Go"}}, nil).Analyze(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, []string{"npm:lodash:4.17.15"}, src.queried)
}

func TestDisabledSkipsLookups(t *testing.T) {
	src := &fakeSource{}
	files := []*source.ParseResult{lockfile("package-lock.json", nil,
		source.Dependency{Name: "lodash", Version: "4.17.15", Ecosystem: source.EcosystemNPM})}

	a := New(src, Options{Disabled: true}, nil)
	findings, err := a.Analyze(context.Background(), files)
	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Empty(t, src.queried)
	assert.Equal(t, "1.2.0", a.Version())
	assert.Equal(t, "dependency", a.Name())
}

func TestCancelledContextReturnsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{}
	files := []*source.ParseResult{lockfile("package-lock.json", nil,
		source.Dependency{Name: "a", Version: "1.0.0", Ecosystem: source.EcosystemNPM},
		source.Dependency{Name: "b", Version: "1.0.0", Ecosystem: source.EcosystemNPM},
	)}

	findings, err := New(src, Options{Concurrency: 1}, nil).Analyze(ctx, files)
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, findings)
	assert.Empty(t, src.queried)
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	var (
		active, peak atomic.Int32
		deps         []source.Dependency
	)
	for i := 0; i < 20; i++ {
		deps = append(deps, source.Dependency{Name: "pkg", Version: string(rune('a' + i)), Ecosystem: source.EcosystemNPM})
	}

	r := Runner{Concurrency: 3}
	started := r.Run(context.Background(), deps, func(ctx context.Context, dep source.Dependency) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		active.Add(-1)
	})

	assert.Equal(t, 20, started)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestCVSSExtraction(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		want  finding.Severity
		score float64
		found bool
	}{
		{
			name:  "numeric severity score",
			doc:   `{"severity": [{"type": "CVSS_V3", "score": 9.8}]}`,
			want:  finding.SeverityCritical,
			score: 9.8,
			found: true,
		},
		{
			name:  "numeric string score",
			doc:   `{"severity": [{"type": "CVSS_V3", "score": "7.1"}]}`,
			want:  finding.SeverityHigh,
			score: 7.1,
			found: true,
		},
		{
			name:  "cvss 3.1 vector",
			doc:   `{"severity": [{"type": "CVSS_V3", "score": "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"}]}`,
			want:  finding.SeverityCritical,
			score: 9.8,
			found: true,
		},
		{
			name:  "database specific cvss_score",
			doc:   `{"database_specific": {"cvss_score": 4.3}}`,
			want:  finding.SeverityMedium,
			score: 4.3,
			found: true,
		},
		{
			name:  "nested cvss object",
			doc:   `{"database_specific": {"cvss": {"score": "8.1"}}}`,
			want:  finding.SeverityHigh,
			score: 8.1,
			found: true,
		},
		{
			name:  "nested cvss_v3 base score",
			doc:   `{"database_specific": {"cvss_v3": {"base_score": 3.1}}}`,
			want:  finding.SeverityLow,
			score: 3.1,
			found: true,
		},
		{
			name:  "ecosystem specific label",
			doc:   `{"affected": [{"ecosystem_specific": {"severity": "CRITICAL"}}]}`,
			want:  finding.SeverityCritical,
			score: 9.5,
			found: true,
		},
		{
			name:  "moderate label",
			doc:   `{"database_specific": {"severity": "MODERATE"}}`,
			want:  finding.SeverityMedium,
			score: 5.5,
			found: true,
		},
		{
			name:  "maximum across strategies wins",
			doc:   `{"severity": [{"score": "5.0"}], "database_specific": {"severity": "HIGH"}}`,
			want:  finding.SeverityHigh,
			score: 7.5,
			found: true,
		},
		{
			name:  "out of range values ignored",
			doc:   `{"severity": [{"score": "42"}], "database_specific": {"cvss_score": "n/a"}}`,
			want:  finding.SeverityMedium,
			found: false,
		},
		{
			name:  "nothing usable",
			doc:   `{"id": "X"}`,
			want:  finding.SeverityMedium,
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sev, score, found := severityOf(vuln(t, tt.doc))
			assert.Equal(t, tt.want, sev)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.InDelta(t, tt.score, score, 0.001)
			}
		})
	}
}

func TestCWEExtraction(t *testing.T) {
	assert.Equal(t, "CWE-79", cweOf(vuln(t, `{"database_specific": {"cwe_ids": ["CWE-79", "CWE-80"]}}`)))
	assert.Equal(t, "CWE-400", cweOf(vuln(t, `{"aliases": ["CVE-2020-1", "CWE-400"]}`)))
	assert.Empty(t, cweOf(vuln(t, `{"aliases": ["CVE-2020-1"]}`)))
}
