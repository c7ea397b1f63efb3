package parser

import (
	"fmt"

	"github.com/khanhnv2901/assess/internal/domain/source"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
	"github.com/pelletier/go-toml/v2"
)

type cargoLock struct {
	Packages []cargoPackage `toml:"package"`
}

type cargoPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Source  string `toml:"source"`
}

// parseCargoLock keeps only packages with a source; entries without one are
// workspace members.
func parseCargoLock(content []byte) ([]source.Dependency, error) {
	var lock cargoLock
	if err := toml.Unmarshal(content, &lock); err != nil {
		return nil, fmt.Errorf("%w: Cargo.lock: %v", sharedErrors.ErrMalformedLockfile, err)
	}

	deps := make([]source.Dependency, 0, len(lock.Packages))
	for _, pkg := range lock.Packages {
		if pkg.Source == "" {
			continue
		}
		deps = append(deps, source.Dependency{Name: pkg.Name, Version: pkg.Version, Ecosystem: source.EcosystemCrate})
	}
	return deps, nil
}
