package manifest

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexString accepts JSON values that arrive as either a string or a number.
// Manifests in the wild declare versions both ways.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler. Values that are neither strings
// nor numbers decode to the empty string rather than failing the whole
// document.
func (v *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = FlexString(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = FlexString(strconv.FormatFloat(f, 'g', -1, 64))
		return nil
	}
	*v = ""
	return nil
}

// Manifest is the package-identity document bundled inside a release asset
// archive (manifest.json or metadata.json). Fields whose shape varies across
// publishers are kept loose and normalized through accessors.
type Manifest struct {
	Identifier      string     `json:"identifier"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Description     string     `json:"description"`
	DescriptionFull string     `json:"description_full"`
	License         string     `json:"license"`
	Author          any        `json:"author"`
	Maintainer      any        `json:"maintainer"`
	Resources       any        `json:"resources"`
	Version         FlexString `json:"version"`
	Status          FlexString `json:"status"`
	KicadVersion    FlexString `json:"kicad_version"`
	InstallSize     any        `json:"install_size"`
}

// AuthorBlock returns the author mapping, or nil when the manifest carries no
// author or declares it as something other than a mapping.
func (m *Manifest) AuthorBlock() map[string]any {
	b, _ := m.Author.(map[string]any)
	return b
}

// MaintainerBlock returns the maintainer mapping, or nil.
func (m *Manifest) MaintainerBlock() map[string]any {
	b, _ := m.Maintainer.(map[string]any)
	return b
}

// ResourcesMap returns the resources mapping, never nil.
func (m *Manifest) ResourcesMap() map[string]any {
	if r, ok := m.Resources.(map[string]any); ok && r != nil {
		return r
	}
	return map[string]any{}
}

// StatusOrDefault returns the declared status, or def when absent.
func (m *Manifest) StatusOrDefault(def string) string {
	if m.Status != "" {
		return string(m.Status)
	}
	return def
}

// KicadVersionOrDefault returns the declared compatibility version, or def
// when absent.
func (m *Manifest) KicadVersionOrDefault(def string) string {
	if m.KicadVersion != "" {
		return string(m.KicadVersion)
	}
	return def
}

// InstallSizeBytes converts the declared install size to an integer. Numbers
// are truncated, integer strings are parsed; anything else is reported as
// absent.
func (m *Manifest) InstallSizeBytes() (int64, bool) {
	switch v := m.InstallSize.(type) {
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
