// Package index serializes the merged package list and the repository
// descriptor that points at it.
package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jalevin/pcmgen/internal/models"
	"github.com/jalevin/pcmgen/internal/utils"
)

// Output filenames within the output directory.
const (
	PackagesFilename   = "packages.json"
	RepositoryFilename = "repository.json"
	ResourcesFilename  = "resources.zip"
	SignatureFilename  = "packages.json.asc"
)

// DefaultRepoSlug is the owner/repo used for self-referential raw URLs when
// GITHUB_REPOSITORY is unset.
const DefaultRepoSlug = "justinlevinedotme/jal-kicad-pcm"

const timeLayout = "2006-01-02 15:04:05"

// Writer emits packages.json and repository.json into OutputDir. Entries may
// be typed *models.Package records from the scanner or raw JSON from a
// mirror; both serialize into the same envelope.
type Writer struct {
	OutputDir string
	RepoSlug  string

	// Now is the clock used for descriptor timestamps. Overridable in
	// tests; nil means time.Now.
	Now func() time.Time
}

// RepoSlugFromEnv resolves the owner/repo slug for download URLs from
// GITHUB_REPOSITORY, defaulting to DefaultRepoSlug.
func RepoSlugFromEnv() string {
	if slug := os.Getenv("GITHUB_REPOSITORY"); slug != "" {
		return slug
	}
	return DefaultRepoSlug
}

// WritePackages serializes the index envelope and writes it to
// packages.json. The returned hash is the sha256 of the bytes re-read from
// the written file, so it is reproducible from the file alone.
func (w *Writer) WritePackages(entries []any) (string, error) {
	if entries == nil {
		entries = []any{}
	}
	envelope := map[string]any{"packages": entries}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(envelope); err != nil {
		return "", &models.BuildError{Type: models.ErrIndexWrite, Err: err}
	}

	path := filepath.Join(w.OutputDir, PackagesFilename)
	if err := utils.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", &models.BuildError{Type: models.ErrIndexWrite, Err: err}
	}

	sha, _, err := utils.SHA256File(path)
	if err != nil {
		return "", &models.BuildError{Type: models.ErrIndexWrite, Err: err}
	}
	return sha, nil
}

// WriteRepository emits the repository descriptor referencing the package
// index by URL and content hash. When a resources.zip sits in the output
// directory, an analogous resources block is included.
func (w *Writer) WriteRepository(name string, maintainer models.Maintainer, packagesSHA string) error {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	ts := now().UTC()

	repo := models.Repository{
		Schema:     models.RepositorySchema,
		Name:       name,
		Maintainer: maintainer,
		Packages: models.FileRef{
			URL:             w.rawURL(PackagesFilename),
			SHA256:          packagesSHA,
			UpdateTimeUTC:   ts.Format(timeLayout),
			UpdateTimestamp: ts.Unix(),
		},
	}

	resPath := filepath.Join(w.OutputDir, ResourcesFilename)
	if _, err := os.Stat(resPath); err == nil {
		sha, _, err := utils.SHA256File(resPath)
		if err != nil {
			return &models.BuildError{Type: models.ErrIndexWrite, Err: err}
		}
		repo.Resources = &models.FileRef{
			URL:             w.rawURL(ResourcesFilename),
			SHA256:          sha,
			UpdateTimeUTC:   ts.Format(timeLayout),
			UpdateTimestamp: ts.Unix(),
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(repo); err != nil {
		return &models.BuildError{Type: models.ErrIndexWrite, Err: err}
	}

	path := filepath.Join(w.OutputDir, RepositoryFilename)
	if err := utils.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &models.BuildError{Type: models.ErrIndexWrite, Err: err}
	}
	return nil
}

func (w *Writer) rawURL(filename string) string {
	slug := w.RepoSlug
	if slug == "" {
		slug = DefaultRepoSlug
	}
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/main/%s", slug, filename)
}
