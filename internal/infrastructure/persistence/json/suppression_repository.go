package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/khanhnv2901/assess/internal/domain/suppression"
	"github.com/khanhnv2901/assess/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
	"github.com/khanhnv2901/assess/internal/shared/security"
)

// SuppressionRepository implements suppression.Repository on top of the
// project's suppression file. Loading never blocks a scan: every problem is
// logged and answered with a nil config or a skipped entry.
type SuppressionRepository struct {
	filePath string
	logger   *zap.SugaredLogger
}

var _ suppression.Repository = (*SuppressionRepository)(nil)

// NewSuppressionRepository resolves fileName inside projectRoot. An empty
// fileName selects the default .security-suppress.json.
func NewSuppressionRepository(projectRoot, fileName string, logger *zap.SugaredLogger) (*SuppressionRepository, error) {
	if projectRoot == "" {
		return nil, fmt.Errorf("project root cannot be empty")
	}
	if fileName == "" {
		fileName = constants.SuppressionFileName
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	filePath, err := security.ResolveWithin(projectRoot, fileName)
	if err != nil {
		return nil, fmt.Errorf("invalid suppression file path: %w", err)
	}
	return &SuppressionRepository{filePath: filePath, logger: logger}, nil
}

// Path returns the suppression file location.
func (r *SuppressionRepository) Path() string {
	return r.filePath
}

// Load reads and leniently validates the suppression file.
func (r *SuppressionRepository) Load(ctx context.Context) (*suppression.Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debugw("no suppression file", "path", r.filePath)
			return nil, nil
		}
		r.logger.Warnw("cannot read suppression file; continuing without suppressions", "path", r.filePath, "error", err)
		return nil, nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.Warnw("suppression file is not valid JSON; continuing without suppressions", "path", r.filePath, "error", err)
		return nil, nil
	}

	root, ok := doc.(map[string]any)
	if !ok {
		r.logger.Warnw("suppression file must contain a JSON object; continuing without suppressions", "path", r.filePath)
		return nil, nil
	}

	cfg := &suppression.Config{}
	cfg.Version, _ = root["version"].(string)
	if cfg.Version != constants.SuppressionSchemaVersion {
		r.logger.Warnw("unexpected suppression schema version", "path", r.filePath,
			"version", root["version"], "expected", constants.SuppressionSchemaVersion)
	}

	rawEntries, present := root["suppressions"]
	entries, isArray := rawEntries.([]any)
	if present && !isArray {
		r.logger.Warnw("suppressions must be an array; no entries loaded", "path", r.filePath)
		return cfg, nil
	}

	for i, raw := range entries {
		s, err := decodeSuppression(raw)
		if err != nil {
			r.logger.Warnw("skipping invalid suppression", "path", r.filePath, "index", i, "error", err)
			continue
		}
		cfg.Suppressions = append(cfg.Suppressions, s)
	}

	r.logger.Debugw("loaded suppressions", "path", r.filePath, "count", len(cfg.Suppressions), "skipped", len(entries)-len(cfg.Suppressions))
	return cfg, nil
}

func decodeSuppression(raw any) (suppression.Suppression, error) {
	var s suppression.Suppression

	entry, ok := raw.(map[string]any)
	if !ok {
		return s, fmt.Errorf("%w: entry is not an object", sharedErrors.ErrSuppressionInvalid)
	}

	var missing []string
	required := func(key string) string {
		v, _ := entry[key].(string)
		v = strings.TrimSpace(v)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	s.RuleID = required("rule_id")
	s.FilePath = security.NormalizeRel(required("file_path"))
	s.Reason = required("reason")
	expires := required("expires")
	s.CreatedBy = required("created_by")
	if len(missing) > 0 {
		return s, fmt.Errorf("%w: %s", sharedErrors.ErrMissingRequired, strings.Join(missing, ", "))
	}

	var err error
	if s.Expires, err = suppression.ParseExpires(expires); err != nil {
		return s, err
	}

	if rawLine, ok := entry["line_number"]; ok && rawLine != nil {
		n, ok := rawLine.(float64)
		if !ok || n < 1 || n != math.Trunc(n) {
			return s, fmt.Errorf("%w: line_number must be a positive integer", sharedErrors.ErrSuppressionInvalid)
		}
		line := int(n)
		s.LineNumber = &line
	}

	if rawApprover, ok := entry["approved_by"]; ok && rawApprover != nil {
		approver, ok := rawApprover.(string)
		if !ok {
			return s, fmt.Errorf("%w: approved_by must be a string", sharedErrors.ErrSuppressionInvalid)
		}
		s.ApprovedBy = approver
	}
	return s, nil
}
