package models

// RepositorySchema is the schema reference stamped on the repository
// descriptor.
const RepositorySchema = "https://gitlab.com/kicad/code/kicad/-/raw/master/kicad/pcm/schemas/pcm.v1.schema.json#/definitions/Repository"

// Maintainer identifies who runs the repository. Contact values are free-form
// (email, web, etc.) and passed through to the descriptor untouched.
type Maintainer struct {
	Name    string            `json:"name" yaml:"name"`
	Contact map[string]string `json:"contact" yaml:"contact"`
}

// FileRef points the package manager at a generated file: where to fetch it,
// the sha256 of its exact bytes, and when it was produced.
type FileRef struct {
	URL             string `json:"url"`
	SHA256          string `json:"sha256"`
	UpdateTimeUTC   string `json:"update_time_utc"`
	UpdateTimestamp int64  `json:"update_timestamp"`
}

// Repository is the top-level descriptor document (repository.json). The
// Resources block is present only when a resources.zip exists next to the
// index.
type Repository struct {
	Schema     string     `json:"$schema"`
	Name       string     `json:"name"`
	Maintainer Maintainer `json:"maintainer"`
	Packages   FileRef    `json:"packages"`
	Resources  *FileRef   `json:"resources,omitempty"`
}
