package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/khanhnv2901/assess/internal/domain/source"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
)

type pipfileLock struct {
	Default map[string]pipfileEntry `json:"default"`
	Develop map[string]pipfileEntry `json:"develop"`
}

type pipfileEntry struct {
	Version string `json:"version"`
}

func parsePipfileLock(content []byte) ([]source.Dependency, error) {
	var lock pipfileLock
	if err := json.Unmarshal(content, &lock); err != nil {
		return nil, fmt.Errorf("%w: Pipfile.lock: %v", sharedErrors.ErrMalformedLockfile, err)
	}

	var deps []source.Dependency
	for _, section := range []map[string]pipfileEntry{lock.Default, lock.Develop} {
		for name, entry := range section {
			version := strings.TrimSpace(strings.TrimPrefix(entry.Version, "=="))
			if version == "" {
				// VCS and path requirements carry no pinned version
				continue
			}
			deps = append(deps, source.Dependency{Name: name, Version: version, Ecosystem: source.EcosystemPyPI})
		}
	}
	return deps, nil
}
