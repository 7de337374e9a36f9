package scanner

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jalevin/pcmgen/internal/config"
	"github.com/jalevin/pcmgen/internal/github"
	"github.com/jalevin/pcmgen/internal/manifest"
	"github.com/jalevin/pcmgen/internal/models"
	"github.com/jalevin/pcmgen/internal/utils"
)

// Defaults for version records whose manifest leaves the field out.
const (
	DefaultStatus       = "testing"
	DefaultKicadVersion = "8.0"
)

// Scanner turns one release-scan source into merged package records. Listing
// or download failures abort the run; everything that can go wrong with an
// individual asset (no manifest, bad archive, parse error, duplicate
// version) is logged and skipped.
type Scanner struct {
	Client *github.Client

	// AssetsDir is the root of local per-package asset folders used to
	// auto-wire icon/screenshot resources. Empty disables the lookup.
	AssetsDir string
}

// NewScanner creates a scanner over the given release client.
func NewScanner(client *github.Client, assetsDir string) *Scanner {
	return &Scanner{Client: client, AssetsDir: assetsDir}
}

// Scan processes every release of the source (or just the newest when
// only_latest is set) and returns packages in first-seen order, each with its
// versions sorted descending by version string.
func (s *Scanner) Scan(ctx context.Context, src config.Source) ([]*models.Package, error) {
	glob := src.AssetGlob
	if glob == "" {
		glob = config.DefaultAssetGlob
	}
	rx, err := GlobToRegexp(glob)
	if err != nil {
		return nil, &models.BuildError{Type: models.ErrConfig, Source: src.ID, Err: err}
	}

	releases, err := s.Client.ListReleases(ctx, src.Repo)
	if err != nil {
		return nil, &models.BuildError{Type: models.ErrReleaseList, Source: src.ID, Err: err}
	}

	logrus.Infof("Scanning repo %s (only_latest=%t, glob=%q)", src.Repo, src.OnlyLatest, glob)
	if len(releases) == 0 {
		logrus.Info("No releases found")
	}

	packages := make(map[string]*models.Package)
	var order []string

	for _, rel := range releases {
		logrus.Infof("Release %s: %d asset(s)", rel.TagName, len(rel.Assets))
		matched := 0

		for _, asset := range rel.Assets {
			if asset.Name == "" || asset.BrowserDownloadURL == "" {
				logrus.Warn("Skipping asset with missing name or URL")
				continue
			}
			if !rx.MatchString(asset.Name) {
				logrus.Debugf("Skipping %s: does not match glob", asset.Name)
				continue
			}
			matched++

			logrus.Infof("Fetching %s", asset.Name)
			data, err := s.Client.Download(ctx, asset.BrowserDownloadURL)
			if err != nil {
				return nil, &models.BuildError{Type: models.ErrDownload, Source: src.ID, Err: err}
			}
			fileSHA := utils.SHA256Bytes(data)
			fileSize := int64(len(data))

			m, mfName, err := manifest.FromArchive(data)
			if err != nil {
				logrus.Warnf("Skipping %s: %v", asset.Name, err)
				continue
			}

			id := m.Identifier
			if id == "" {
				id = src.ID
			}

			pkg, seen := packages[id]
			pkg = MergePackage(pkg, id, m)
			if !seen {
				AttachLocalAssets(pkg, s.AssetsDir)
				packages[id] = pkg
				order = append(order, id)
			}

			version := VersionString(m, rel.TagName)
			entry := models.Version{
				Version:        version,
				DownloadURL:    github.DownloadURL(src.Repo, rel.TagName, asset.Name),
				DownloadSHA256: fileSHA,
				DownloadSize:   fileSize,
				Status:         m.StatusOrDefault(DefaultStatus),
				KicadVersion:   m.KicadVersionOrDefault(DefaultKicadVersion),
			}
			if size, ok := m.InstallSizeBytes(); ok {
				entry.InstallSize = size
			}

			if !AppendVersion(pkg, entry) {
				logrus.Infof("Version %s already present for %s; skipping duplicate asset", version, id)
				continue
			}
			logrus.Infof("Found %s; version=%s", mfName, version)
		}

		if matched == 0 {
			logrus.Info("No assets matched the glob for this release")
		}
		if src.OnlyLatest {
			break
		}
	}

	result := make([]*models.Package, 0, len(packages))
	for _, id := range order {
		SortVersions(packages[id])
		result = append(result, packages[id])
	}

	if len(result) == 0 {
		logrus.Infof("Source %s yielded no packages", src.ID)
	} else {
		logrus.Infof("Source %s yielded %d package(s)", src.ID, len(result))
	}
	return result, nil
}
