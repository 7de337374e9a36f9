package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jalevin/pcmgen/internal/manifest"
	"github.com/jalevin/pcmgen/internal/models"
)

// Merge precedence: display fields are first-seen-wins, versions accumulate.
// MergePackage applies the first half of that rule — when a package already
// exists for the identifier, the incoming manifest contributes nothing to its
// display fields; otherwise a fresh package is built from the manifest with
// per-field fallbacks.
func MergePackage(existing *models.Package, id string, m *manifest.Manifest) *models.Package {
	if existing != nil {
		return existing
	}

	pkg := &models.Package{
		Schema:          models.PackageSchema,
		Identifier:      id,
		Name:            m.Name,
		Type:            m.Type,
		Description:     m.Description,
		DescriptionFull: m.DescriptionFull,
		License:         m.License,
		Author:          m.AuthorBlock(),
		Maintainer:      m.MaintainerBlock(),
		Resources:       m.ResourcesMap(),
		Versions:        []models.Version{},
	}
	if pkg.Name == "" {
		pkg.Name = id
	}
	if pkg.Type == "" {
		pkg.Type = "library"
	}
	if pkg.Description == "" {
		pkg.Description = fmt.Sprintf("%s package", id)
	}
	return pkg
}

// AppendVersion adds a version record unless the package already carries one
// with the same version string. It reports whether the record was added.
func AppendVersion(pkg *models.Package, v models.Version) bool {
	if pkg.HasVersion(v.Version) {
		return false
	}
	pkg.Versions = append(pkg.Versions, v)
	return true
}

// SortVersions orders a package's versions descending by raw version string.
// This is deliberately lexicographic, not semver-aware: "1.9.0" sorts above
// "1.10.0". Downstream consumers have seen this ordering since the first
// published index, so it stays.
func SortVersions(pkg *models.Package) {
	sort.SliceStable(pkg.Versions, func(i, j int) bool {
		return pkg.Versions[i].Version > pkg.Versions[j].Version
	})
}

// VersionString computes the version for an asset: the manifest's declared
// version when present, else the release tag with leading "v" runs stripped,
// else "0.0.0".
func VersionString(m *manifest.Manifest, tag string) string {
	v := string(m.Version)
	if v == "" {
		if tag != "" {
			v = strings.TrimLeft(tag, "v")
		} else {
			v = "0.0.0"
		}
	}
	return strings.TrimSpace(v)
}

// AttachLocalAssets fills icon/screenshot resource entries from a local
// per-package asset folder (assetsDir/<identifier>/) when the manifest did
// not already provide them. Paths are recorded relative to the assets root,
// matching the layout inside resources.zip.
func AttachLocalAssets(pkg *models.Package, assetsDir string) {
	if assetsDir == "" {
		return
	}
	dir := filepath.Join(assetsDir, pkg.Identifier)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return
	}
	if pkg.Resources == nil {
		pkg.Resources = map[string]any{}
	}
	for file, key := range map[string]string{
		"icon.png":       "icon",
		"screenshot.png": "screenshot",
	} {
		if _, present := pkg.Resources[key]; present {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, file)); err == nil {
			pkg.Resources[key] = pkg.Identifier + "/" + file
		}
	}
}
