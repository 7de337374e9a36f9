package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jalevin/pcmgen/internal/models"
)

// Source modes.
const (
	ModeReleaseScan = "release_scan"
	ModeMirror      = "mirror_packages_json"
)

const (
	// DefaultConfigFilename is the default path of the source list.
	DefaultConfigFilename = "repos.yaml"

	// DefaultRepositoryName is used when the config gives no name.
	DefaultRepositoryName = "Custom KiCad PCM Repository"

	// DefaultAssetGlob is applied to release-scan sources without one.
	DefaultAssetGlob = "*.zip"
)

// Source is one configured origin of package data: either a repository whose
// releases are scanned for asset archives, or a URL to a pre-built package
// index that is mirrored verbatim.
type Source struct {
	ID         string `yaml:"id"`
	Mode       string `yaml:"mode"`
	Repo       string `yaml:"repo,omitempty"`
	AssetGlob  string `yaml:"asset_glob,omitempty"`
	OnlyLatest bool   `yaml:"only_latest,omitempty"`

	PackagesURL string `yaml:"packages_url,omitempty"`
}

// Config is the repos.yaml document.
type Config struct {
	Name       string            `yaml:"name"`
	Maintainer models.Maintainer `yaml:"maintainer"`
	Sources    []Source          `yaml:"sources"`
}

// Load reads the configuration from path and fills repository-level defaults.
// Sources with an unknown mode are kept as-is; the build skips them with a
// warning rather than failing here.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration back to path.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultConfigFilename
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func validate(cfg *Config) error {
	if cfg.Name == "" {
		cfg.Name = DefaultRepositoryName
	}
	if cfg.Maintainer.Name == "" {
		cfg.Maintainer.Name = "Unknown"
	}
	if cfg.Maintainer.Contact == nil {
		cfg.Maintainer.Contact = map[string]string{}
	}

	for i, src := range cfg.Sources {
		switch src.Mode {
		case ModeReleaseScan:
			if src.Repo == "" {
				return fmt.Errorf("source %q: release_scan requires a repo", src.ID)
			}
			if src.AssetGlob == "" {
				cfg.Sources[i].AssetGlob = DefaultAssetGlob
			}
		case ModeMirror:
			if src.PackagesURL == "" {
				return fmt.Errorf("source %q: mirror_packages_json requires a packages_url", src.ID)
			}
		}
	}

	return nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9-_]+`)

// slugify derives a source identifier from free-form text.
func slugify(s string) string {
	return slugRe.ReplaceAllString(strings.ToLower(s), "-")
}

// AddReleaseSource appends a release-scan source for owner/repo. The
// identifier is derived from the repository name.
func (c *Config) AddReleaseSource(ownerRepo, assetGlob string, onlyLatest bool) Source {
	name := ownerRepo
	if i := strings.LastIndex(ownerRepo, "/"); i >= 0 {
		name = ownerRepo[i+1:]
	}
	src := Source{
		ID:         slugify(name),
		Mode:       ModeReleaseScan,
		Repo:       ownerRepo,
		AssetGlob:  assetGlob,
		OnlyLatest: onlyLatest,
	}
	c.Sources = append(c.Sources, src)
	return src
}

// AddMirrorSource appends a mirror source for a pre-built packages.json URL.
// The identifier is derived from the URL's filename stem.
func (c *Config) AddMirrorSource(packagesURL string) Source {
	stem := path.Base(packagesURL)
	stem = strings.TrimSuffix(stem, path.Ext(stem))
	src := Source{
		ID:          slugify(stem),
		Mode:        ModeMirror,
		PackagesURL: packagesURL,
	}
	c.Sources = append(c.Sources, src)
	return src
}

// RemoveSource deletes the source with the given identifier. It reports
// whether anything was removed.
func (c *Config) RemoveSource(id string) bool {
	kept := c.Sources[:0]
	removed := false
	for _, src := range c.Sources {
		if src.ID == id {
			removed = true
			continue
		}
		kept = append(kept, src)
	}
	c.Sources = kept
	return removed
}
