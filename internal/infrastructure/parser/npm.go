package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/khanhnv2901/assess/internal/domain/source"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
)

const nodeModulesPrefix = "node_modules/"

// packageLock covers lockfileVersion 1 (dependencies), 2 (both) and 3
// (packages only).
type packageLock struct {
	LockfileVersion int                      `json:"lockfileVersion"`
	Packages        map[string]lockPackage   `json:"packages"`
	Dependencies    map[string]legacyLockDep `json:"dependencies"`
}

type lockPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Link    bool   `json:"link"`
}

type legacyLockDep struct {
	Version      string                   `json:"version"`
	Bundled      bool                     `json:"bundled"`
	Dependencies map[string]legacyLockDep `json:"dependencies"`
}

func parsePackageLock(content []byte) ([]source.Dependency, error) {
	var lock packageLock
	if err := json.Unmarshal(content, &lock); err != nil {
		return nil, fmt.Errorf("%w: package-lock.json: %v", sharedErrors.ErrMalformedLockfile, err)
	}

	if len(lock.Packages) > 0 {
		return packagesFromMap(lock.Packages), nil
	}

	var deps []source.Dependency
	collectLegacy(lock.Dependencies, &deps)
	return deps, nil
}

func packagesFromMap(packages map[string]lockPackage) []source.Dependency {
	deps := make([]source.Dependency, 0, len(packages))
	for key, pkg := range packages {
		if key == "" || pkg.Link {
			continue
		}
		name := packageNameFromKey(key)
		if name == "" {
			// workspace member, resolved from local sources
			continue
		}
		if pkg.Name != "" {
			name = pkg.Name
		}
		if !registryVersion(pkg.Version) {
			continue
		}
		deps = append(deps, source.Dependency{Name: name, Version: pkg.Version, Ecosystem: source.EcosystemNPM})
	}
	return deps
}

// packageNameFromKey resolves "node_modules/a/node_modules/@scope/b" to
// "@scope/b".
func packageNameFromKey(key string) string {
	idx := strings.LastIndex(key, nodeModulesPrefix)
	if idx < 0 {
		return ""
	}
	return key[idx+len(nodeModulesPrefix):]
}

func collectLegacy(deps map[string]legacyLockDep, out *[]source.Dependency) {
	for name, dep := range deps {
		if registryVersion(dep.Version) {
			*out = append(*out, source.Dependency{Name: name, Version: dep.Version, Ecosystem: source.EcosystemNPM})
		}
		if len(dep.Dependencies) > 0 {
			collectLegacy(dep.Dependencies, out)
		}
	}
}

// registryVersion rejects git, file and tarball references, which OSV cannot
// resolve.
func registryVersion(v string) bool {
	return v != "" && !strings.ContainsAny(v, ":/")
}
