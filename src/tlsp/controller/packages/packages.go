// Package packages lists the package dependencies of a Toit project.
package packages

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/toitware/tlsp/src/tlsp/entity"
	"github.com/toitware/tlsp/src/tlsp/internal/fs"
	"github.com/toitware/tlsp/src/tlsp/internal/version"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LockFile is the name of the file that pins the dependencies of a project.
const LockFile = "package.lock"

// Module provides the packages controller to fx.
var Module = fx.Provide(New)

// Controller lists packages.
type Controller interface {
	// List returns the locked packages of the project in dir, one entry per URL.
	// A project without a lock file has no packages.
	List(ctx context.Context, dir string) ([]entity.Package, error)
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Logger *zap.SugaredLogger
	FS     fs.FS
}

type controller struct {
	logger *zap.SugaredLogger
	fs     fs.FS
}

type lockFile struct {
	Packages map[string]lockedPackage `yaml:"packages"`
}

type lockedPackage struct {
	URL     string `yaml:"url"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Path    string `yaml:"path"`
}

// New creates a new packages controller.
func New(p Params) Controller {
	return &controller{
		logger: p.Logger,
		fs:     p.FS,
	}
}

func (c *controller) List(ctx context.Context, dir string) ([]entity.Package, error) {
	path := filepath.Join(dir, LockFile)
	exists, err := c.fs.FileExists(path)
	if err != nil {
		return nil, fmt.Errorf("checking %q: %w", path, err)
	}
	if !exists {
		return []entity.Package{}, nil
	}

	data, err := c.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	var lock lockFile
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}

	// Prefixes are visited in order so that on equal versions the first prefix names the package.
	prefixes := make([]string, 0, len(lock.Packages))
	for prefix := range lock.Packages {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	byURL := make(map[string]entity.Package, len(lock.Packages))
	for _, prefix := range prefixes {
		p := lock.Packages[prefix]
		url := p.URL
		if url == "" {
			// Local path dependencies have no URL.
			url = p.Path
		}
		if url == "" {
			c.logger.Debugw("skipping package without url or path", "prefix", prefix)
			continue
		}
		name := p.Name
		if name == "" {
			name = prefix
		}

		candidate := entity.Package{Name: name, URL: url, Version: p.Version}
		existing, ok := byURL[url]
		if !ok || newer(candidate.Version, existing.Version) {
			byURL[url] = candidate
		}
	}

	result := make([]entity.Package, 0, len(byURL))
	for _, p := range byURL {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].URL < result[j].URL
	})
	return result, nil
}

// newer reports whether a is a higher version than b. Unparseable versions never win.
func newer(a, b string) bool {
	c, err := version.Compare(a, b)
	if err != nil {
		_, aOK := version.Clean(a)
		_, bOK := version.Clean(b)
		return aOK && !bOK
	}
	return c > 0
}
