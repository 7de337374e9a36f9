package scanner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalevin/pcmgen/internal/manifest"
	"github.com/jalevin/pcmgen/internal/models"
)

func mustManifest(t *testing.T, body string) *manifest.Manifest {
	t.Helper()
	var m manifest.Manifest
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	return &m
}

func TestMergePackageFirstSeenWins(t *testing.T) {
	first := mustManifest(t, `{"identifier":"com.example.foo","name":"Foo","license":"MIT"}`)
	second := mustManifest(t, `{"identifier":"com.example.foo","name":"Renamed Foo","license":"GPL-3.0"}`)

	pkg := MergePackage(nil, "com.example.foo", first)
	require.NotNil(t, pkg)
	assert.Equal(t, "Foo", pkg.Name)
	assert.Equal(t, "MIT", pkg.License)

	merged := MergePackage(pkg, "com.example.foo", second)
	assert.Same(t, pkg, merged)
	assert.Equal(t, "Foo", merged.Name)
	assert.Equal(t, "MIT", merged.License)
}

func TestMergePackageDefaults(t *testing.T) {
	m := mustManifest(t, `{}`)
	pkg := MergePackage(nil, "com.example.bare", m)

	assert.Equal(t, models.PackageSchema, pkg.Schema)
	assert.Equal(t, "com.example.bare", pkg.Identifier)
	assert.Equal(t, "com.example.bare", pkg.Name)
	assert.Equal(t, "library", pkg.Type)
	assert.Equal(t, "com.example.bare package", pkg.Description)
	assert.NotNil(t, pkg.Resources)
	assert.Empty(t, pkg.Versions)
}

func TestMergePackageIgnoresNonMappingBlocks(t *testing.T) {
	m := mustManifest(t, `{"author":"just a string","maintainer":{"name":"Jane"}}`)
	pkg := MergePackage(nil, "com.example.blocks", m)

	assert.Nil(t, pkg.Author)
	require.NotNil(t, pkg.Maintainer)
	assert.Equal(t, "Jane", pkg.Maintainer["name"])
}

func TestAppendVersionSuppressesDuplicates(t *testing.T) {
	pkg := MergePackage(nil, "com.example.foo", mustManifest(t, `{}`))

	added := AppendVersion(pkg, models.Version{Version: "1.0.0", DownloadSHA256: "aaa"})
	assert.True(t, added)

	// same version string from a later asset is dropped, first wins
	added = AppendVersion(pkg, models.Version{Version: "1.0.0", DownloadSHA256: "bbb"})
	assert.False(t, added)

	require.Len(t, pkg.Versions, 1)
	assert.Equal(t, "aaa", pkg.Versions[0].DownloadSHA256)
}

func TestSortVersionsLexicographicDescending(t *testing.T) {
	pkg := MergePackage(nil, "com.example.foo", mustManifest(t, `{}`))
	for _, v := range []string{"1.2.0", "1.9.0", "1.10.0"} {
		AppendVersion(pkg, models.Version{Version: v})
	}

	SortVersions(pkg)

	// raw string sort: "9" > "2" > "1" at the first differing character,
	// so 1.10.0 lands last
	got := make([]string, len(pkg.Versions))
	for i, v := range pkg.Versions {
		got[i] = v.Version
	}
	assert.Equal(t, []string{"1.9.0", "1.2.0", "1.10.0"}, got)
}

func TestVersionString(t *testing.T) {
	tests := []struct {
		manifest string
		tag      string
		want     string
	}{
		{`{"version":"1.2.3"}`, "v9.9.9", "1.2.3"},
		{`{"version":1.5}`, "", "1.5"},
		{`{}`, "v1.0.0", "1.0.0"},
		{`{}`, "vv2", "2"},
		{`{}`, "", "0.0.0"},
		{`{"version":" 1.0 "}`, "", "1.0"},
	}

	for _, tt := range tests {
		m := mustManifest(t, tt.manifest)
		assert.Equal(t, tt.want, VersionString(m, tt.tag), "manifest %s tag %q", tt.manifest, tt.tag)
	}
}
