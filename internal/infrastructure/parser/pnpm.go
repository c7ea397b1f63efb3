package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/khanhnv2901/assess/internal/domain/source"
	sharedErrors "github.com/khanhnv2901/assess/internal/shared/errors"
	"gopkg.in/yaml.v3"
)

type pnpmLock struct {
	LockfileVersion any                    `yaml:"lockfileVersion"`
	Packages        map[string]pnpmPackage `yaml:"packages"`
}

type pnpmPackage struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

func parsePNPMLock(content []byte) ([]source.Dependency, error) {
	var lock pnpmLock
	if err := yaml.Unmarshal(content, &lock); err != nil {
		return nil, fmt.Errorf("%w: pnpm-lock.yaml: %v", sharedErrors.ErrMalformedLockfile, err)
	}

	deps := make([]source.Dependency, 0, len(lock.Packages))
	for key, pkg := range lock.Packages {
		name, version := pnpmKey(key)
		if pkg.Name != "" && pkg.Version != "" {
			name, version = pkg.Name, pkg.Version
		}
		if name == "" || !registryVersion(version) {
			continue
		}
		deps = append(deps, source.Dependency{Name: name, Version: version, Ecosystem: source.EcosystemNPM})
	}
	return deps, nil
}

// pnpmKey splits the key shapes used across lockfile versions:
// "/name/1.0.0" and "/name/1.0.0_peer@2" (v5), "/name@1.0.0" (v6) and
// "name@1.0.0(peer@2)" (v9).
func pnpmKey(key string) (string, string) {
	key = strings.TrimPrefix(key, "/")
	if i := strings.Index(key, "("); i >= 0 {
		key = key[:i]
	}

	if slash := strings.LastIndex(key, "/"); slash > 0 {
		tail := key[slash+1:]
		if tail != "" && unicode.IsDigit(rune(tail[0])) {
			version, _, _ := strings.Cut(tail, "_")
			return key[:slash], version
		}
	}

	at := strings.LastIndex(key, "@")
	if at <= 0 {
		return "", ""
	}
	return key[:at], key[at+1:]
}
