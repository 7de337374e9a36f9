package models

// PackageSchema is the schema reference stamped on every scanned package.
const PackageSchema = "https://go.kicad.org/pcm/schemas/v1"

// Package is the merged, identifier-keyed unit of index output. Display
// fields are filled from the first manifest seen for the identifier and never
// overwritten; versions accumulate across releases and sources.
type Package struct {
	Schema          string         `json:"$schema"`
	Identifier      string         `json:"identifier"`
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	Description     string         `json:"description"`
	DescriptionFull string         `json:"description_full,omitempty"`
	License         string         `json:"license"`
	Author          map[string]any `json:"author,omitempty"`
	Maintainer      map[string]any `json:"maintainer,omitempty"`
	Resources       map[string]any `json:"resources"`
	Versions        []Version      `json:"versions"`
}

// Version is one downloadable, hash-verified release of a Package. Version
// strings are unique within a package.
type Version struct {
	Version        string `json:"version"`
	DownloadURL    string `json:"download_url"`
	DownloadSHA256 string `json:"download_sha256"`
	DownloadSize   int64  `json:"download_size"`
	Status         string `json:"status"`
	KicadVersion   string `json:"kicad_version"`
	InstallSize    int64  `json:"install_size,omitempty"`
}

// HasVersion reports whether the package already carries the given version
// string.
func (p *Package) HasVersion(version string) bool {
	for _, v := range p.Versions {
		if v.Version == version {
			return true
		}
	}
	return false
}
