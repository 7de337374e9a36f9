// Package readme regenerates the package table between two marker comments
// in the repository README.
package readme

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Marker comments delimiting the generated block.
const (
	StartMarker = "<!-- AUTO-INDEX:START -->"
	EndMarker   = "<!-- AUTO-INDEX:END -->"
)

const licenseNote = "> ⚖️ **Licensing Note:** This index aggregates third-party KiCad packages. " +
	"Please review and respect each project’s license before use or redistribution. " +
	"If a license isn’t specified here, check the upstream repository." +
	"While this repository itself is MIT-licensed, the packages included retain their original licenses."

const defaultReadme = "# JAL KiCad PCM Repository\n\nThis repository hosts a custom KiCad PCM index.\n\n## Packages\n\n" +
	StartMarker + "\n" + EndMarker + "\n"

var blockRe = regexp.MustCompile("(?s)" + regexp.QuoteMeta(StartMarker) + ".*?" + regexp.QuoteMeta(EndMarker))

// Updater rewrites the generated block of a README from the package index.
type Updater struct {
	IndexPath  string
	ReadmePath string

	// Now is the clock for the "Last updated" line; nil means time.Now.
	Now func() time.Time
}

// Update regenerates the block and rewrites the README only when the result
// differs from what is on disk. It reports whether the file changed.
func (u *Updater) Update() (bool, error) {
	pkgs, err := u.loadPackages()
	if err != nil {
		return false, err
	}

	block := u.renderBlock(pkgs)

	var content string
	if data, err := os.ReadFile(u.ReadmePath); err == nil {
		content = ensureMarkers(string(data))
	} else if os.IsNotExist(err) {
		content = defaultReadme
	} else {
		return false, fmt.Errorf("read README: %w", err)
	}

	updated := blockRe.ReplaceAllLiteralString(content, block)
	if updated == content {
		return false, nil
	}

	if err := os.WriteFile(u.ReadmePath, []byte(updated), 0o644); err != nil {
		return false, fmt.Errorf("write README: %w", err)
	}
	return true, nil
}

// loadPackages reads the index, accepting the {"packages": [...]} envelope or
// a bare list. Entries are kept loosely typed: mirrored packages can have
// shapes our own records never do.
func (u *Updater) loadPackages() ([]map[string]any, error) {
	data, err := os.ReadFile(u.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("read package index: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse package index: %w", err)
	}

	list, ok := doc.([]any)
	if !ok {
		if obj, isObj := doc.(map[string]any); isObj {
			list, _ = obj["packages"].([]any)
		}
	}

	pkgs := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		if m, isMap := entry.(map[string]any); isMap {
			pkgs = append(pkgs, m)
		}
	}
	return pkgs, nil
}

func (u *Updater) renderBlock(pkgs []map[string]any) string {
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	ts := now().UTC().Format("2006-01-02 15:04 UTC")

	return fmt.Sprintf("%s\n\n%s\n\n%s\n\n_Last updated: **%s** • Packages: **%d**_\n%s",
		StartMarker, licenseNote, buildTable(pkgs), ts, len(pkgs), EndMarker)
}

func buildTable(pkgs []map[string]any) string {
	if len(pkgs) == 0 {
		return "_No packages indexed yet._"
	}

	sorted := make([]map[string]any, len(pkgs))
	copy(sorted, pkgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(displayName(sorted[i])) < strings.ToLower(displayName(sorted[j]))
	})

	var b strings.Builder
	b.WriteString("| 📦 Package | 👤 Maintainer | 🧾 License |\n|---|---|---|")
	for _, pkg := range sorted {
		fmt.Fprintf(&b, "\n| %s | %s | %s |", homeLink(pkg), maintainerCell(pkg), licenseCell(pkg))
	}
	return b.String()
}

func displayName(pkg map[string]any) string {
	if name, ok := pkg["name"].(string); ok && name != "" {
		return name
	}
	if id, ok := pkg["identifier"].(string); ok && id != "" {
		return id
	}
	return "(unknown)"
}

// homeLink renders the package name, linked to its homepage resource when one
// is declared.
func homeLink(pkg map[string]any) string {
	name := displayName(pkg)
	if res, ok := pkg["resources"].(map[string]any); ok {
		if home, ok := res["homepage"].(string); ok && home != "" {
			return fmt.Sprintf("[%s](%s)", name, home)
		}
	}
	return name
}

// urlKeys is the preference order for pulling a link out of a contact block.
var urlKeys = []string{"homepage", "website", "web", "url", "github", "gitlab", "source", "repo", "repository", "twitter"}

func firstURLLike(v any) string {
	block, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range urlKeys {
		if s, ok := block[key].(string); ok {
			if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
				return s
			}
		}
	}
	return ""
}

// maintainerCell prefers the maintainer block, falls back to the author
// block, and renders "-" when neither names anyone.
func maintainerCell(pkg map[string]any) string {
	for _, field := range []string{"maintainer", "author"} {
		block, ok := pkg[field].(map[string]any)
		if !ok {
			continue
		}
		name, _ := block["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if url := firstURLLike(block["contact"]); url != "" {
			return fmt.Sprintf("[%s](%s)", name, url)
		}
		return name
	}
	return "-"
}

// normalizeLicense flattens a license declaration that may be a string, a
// mapping with one of several id/name keys, or a list of either.
func normalizeLicense(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case map[string]any:
		for _, key := range []string{"spdx_id", "id", "name", "license", "title"} {
			if s, ok := val[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	case []any:
		var parts []string
		for _, item := range val {
			if s := normalizeLicense(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// licenseCell walks the fallback chain: package license/licenses fields, then
// the resources block, then the newest version entry.
func licenseCell(pkg map[string]any) string {
	for _, field := range []string{"license", "licenses"} {
		if s := normalizeLicense(pkg[field]); s != "" {
			return s
		}
	}
	if res, ok := pkg["resources"].(map[string]any); ok {
		if s := normalizeLicense(res["license"]); s != "" {
			return s
		}
		if s := normalizeLicense(res["licenses"]); s != "" {
			return s
		}
	}
	if versions, ok := pkg["versions"].([]any); ok && len(versions) > 0 {
		if newest, ok := versions[0].(map[string]any); ok {
			for _, field := range []string{"license", "licenses"} {
				if s := normalizeLicense(newest[field]); s != "" {
					return s
				}
			}
			if res, ok := newest["resources"].(map[string]any); ok {
				if s := normalizeLicense(res["license"]); s != "" {
					return s
				}
			}
		}
	}
	return "not specified"
}

// ensureMarkers appends an empty marker block when the README has none, so
// the replacement below always has a target.
func ensureMarkers(text string) string {
	if strings.Contains(text, StartMarker) && strings.Contains(text, EndMarker) {
		return text
	}
	return strings.TrimRight(text, " \t\r\n") + "\n\n## Packages\n\n" + StartMarker + "\n" + EndMarker + "\n"
}
