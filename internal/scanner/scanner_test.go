package scanner

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jalevin/pcmgen/internal/config"
	"github.com/jalevin/pcmgen/internal/github"
	"github.com/jalevin/pcmgen/internal/models"
	"github.com/jalevin/pcmgen/internal/utils"
)

func makeZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// fakeHost serves a releases listing and asset blobs the way the release API
// does.
type fakeHost struct {
	releases []github.Release
	assets   map[string][]byte // path -> blob
}

func (h *fakeHost) start(t *testing.T) (*httptest.Server, *github.Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(h.releases)
	})
	mux.HandleFunc("/assets/", func(w http.ResponseWriter, r *http.Request) {
		blob, ok := h.assets[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(blob)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := github.NewClient("")
	client.BaseURL = srv.URL
	return srv, client
}

func TestScanSingleReleaseSingleAsset(t *testing.T) {
	blob := makeZip(t, map[string]string{
		"manifest.json": `{"identifier":"com.example.foo","version":"1.0.0"}`,
	})

	host := &fakeHost{assets: map[string][]byte{"/assets/foo.zip": blob}}
	srv, client := host.start(t)
	host.releases = []github.Release{
		{
			TagName:   "v1.0.0",
			CreatedAt: "2024-01-01T00:00:00Z",
			Assets: []github.Asset{
				{Name: "foo.zip", BrowserDownloadURL: srv.URL + "/assets/foo.zip"},
				{Name: "foo.tar.gz.sig", BrowserDownloadURL: srv.URL + "/assets/missing"},
			},
		},
	}

	sc := NewScanner(client, "")
	pkgs, err := sc.Scan(context.Background(), config.Source{
		ID:        "foo-src",
		Mode:      config.ModeReleaseScan,
		Repo:      "example/foo",
		AssetGlob: "*.zip",
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(pkgs) != 1 {
		t.Fatalf("expected 1 package, got %d", len(pkgs))
	}
	pkg := pkgs[0]
	if pkg.Identifier != "com.example.foo" {
		t.Errorf("identifier = %q, want com.example.foo", pkg.Identifier)
	}
	if len(pkg.Versions) != 1 {
		t.Fatalf("expected 1 version, got %d", len(pkg.Versions))
	}
	v := pkg.Versions[0]
	if v.Version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", v.Version)
	}
	if v.DownloadSHA256 != utils.SHA256Bytes(blob) {
		t.Errorf("sha mismatch: got %s", v.DownloadSHA256)
	}
	if v.DownloadSize != int64(len(blob)) {
		t.Errorf("size = %d, want %d", v.DownloadSize, len(blob))
	}
	if want := "https://github.com/example/foo/releases/download/v1.0.0/foo.zip"; v.DownloadURL != want {
		t.Errorf("download_url = %q, want %q", v.DownloadURL, want)
	}
	if v.Status != DefaultStatus || v.KicadVersion != DefaultKicadVersion {
		t.Errorf("defaults not applied: status=%q kicad_version=%q", v.Status, v.KicadVersion)
	}
}

func TestScanMergesAcrossReleases(t *testing.T) {
	v1 := makeZip(t, map[string]string{
		"manifest.json": `{"identifier":"com.example.foo","name":"Foo","version":"1.0.0"}`,
	})
	v2 := makeZip(t, map[string]string{
		"manifest.json": `{"identifier":"com.example.foo","name":"Foo Renamed","version":"1.1.0"}`,
	})
	// a broken asset next to a good one must not abort the scan
	garbage := []byte("not an archive")

	host := &fakeHost{assets: map[string][]byte{
		"/assets/foo-1.0.0.zip": v1,
		"/assets/foo-1.1.0.zip": v2,
		"/assets/garbage.zip":   garbage,
	}}
	srv, client := host.start(t)
	host.releases = []github.Release{
		{
			TagName:   "v1.0.0",
			CreatedAt: "2024-01-01T00:00:00Z",
			Assets:    []github.Asset{{Name: "foo-1.0.0.zip", BrowserDownloadURL: srv.URL + "/assets/foo-1.0.0.zip"}},
		},
		{
			TagName:   "v1.1.0",
			CreatedAt: "2024-02-01T00:00:00Z",
			Assets: []github.Asset{
				{Name: "garbage.zip", BrowserDownloadURL: srv.URL + "/assets/garbage.zip"},
				{Name: "foo-1.1.0.zip", BrowserDownloadURL: srv.URL + "/assets/foo-1.1.0.zip"},
			},
		},
	}

	sc := NewScanner(client, "")
	pkgs, err := sc.Scan(context.Background(), config.Source{
		ID:   "foo-src",
		Mode: config.ModeReleaseScan,
		Repo: "example/foo",
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(pkgs) != 1 {
		t.Fatalf("expected 1 merged package, got %d", len(pkgs))
	}
	pkg := pkgs[0]

	// releases are processed newest-first, so 1.1.0's manifest is seen
	// first and its display fields win
	if pkg.Name != "Foo Renamed" {
		t.Errorf("name = %q, want first-seen value Foo Renamed", pkg.Name)
	}
	if len(pkg.Versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(pkg.Versions))
	}
	if pkg.Versions[0].Version != "1.1.0" || pkg.Versions[1].Version != "1.0.0" {
		t.Errorf("versions out of order: %v, %v", pkg.Versions[0].Version, pkg.Versions[1].Version)
	}
}

func TestScanOnlyLatest(t *testing.T) {
	newest := makeZip(t, map[string]string{
		"manifest.json": `{"identifier":"com.example.foo","version":"2.0.0"}`,
	})
	older := makeZip(t, map[string]string{
		"manifest.json": `{"identifier":"com.example.foo","version":"1.0.0"}`,
	})

	host := &fakeHost{assets: map[string][]byte{
		"/assets/new.zip": newest,
		"/assets/old.zip": older,
	}}
	srv, client := host.start(t)
	host.releases = []github.Release{
		{
			TagName:   "v1.0.0",
			CreatedAt: "2024-01-01T00:00:00Z",
			Assets:    []github.Asset{{Name: "old.zip", BrowserDownloadURL: srv.URL + "/assets/old.zip"}},
		},
		{
			TagName:   "v2.0.0",
			CreatedAt: "2024-06-01T00:00:00Z",
			Assets:    []github.Asset{{Name: "new.zip", BrowserDownloadURL: srv.URL + "/assets/new.zip"}},
		},
	}

	sc := NewScanner(client, "")
	pkgs, err := sc.Scan(context.Background(), config.Source{
		ID:         "foo-src",
		Mode:       config.ModeReleaseScan,
		Repo:       "example/foo",
		OnlyLatest: true,
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(pkgs) != 1 || len(pkgs[0].Versions) != 1 {
		t.Fatalf("expected exactly the newest release to be scanned, got %+v", pkgs)
	}
	if pkgs[0].Versions[0].Version != "2.0.0" {
		t.Errorf("version = %q, want 2.0.0", pkgs[0].Versions[0].Version)
	}
}

func TestScanFallsBackToSourceID(t *testing.T) {
	blob := makeZip(t, map[string]string{
		"manifest.json": `{"version":"1.0.0"}`,
	})

	host := &fakeHost{assets: map[string][]byte{"/assets/foo.zip": blob}}
	srv, client := host.start(t)
	host.releases = []github.Release{
		{
			TagName:   "v1.0.0",
			CreatedAt: "2024-01-01T00:00:00Z",
			Assets:    []github.Asset{{Name: "foo.zip", BrowserDownloadURL: srv.URL + "/assets/foo.zip"}},
		},
	}

	sc := NewScanner(client, "")
	pkgs, err := sc.Scan(context.Background(), config.Source{
		ID:   "configured-id",
		Mode: config.ModeReleaseScan,
		Repo: "example/foo",
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Identifier != "configured-id" {
		t.Fatalf("expected fallback identifier configured-id, got %+v", pkgs)
	}
}

func TestScanListingFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := github.NewClient("")
	client.BaseURL = srv.URL

	sc := NewScanner(client, "")
	_, err := sc.Scan(context.Background(), config.Source{
		ID:   "foo-src",
		Mode: config.ModeReleaseScan,
		Repo: "example/foo",
	})
	if err == nil {
		t.Fatal("expected listing failure to abort the scan")
	}
	var buildErr *models.BuildError
	if !errors.As(err, &buildErr) || buildErr.Type != models.ErrReleaseList {
		t.Fatalf("expected BuildError[ReleaseList], got %v", err)
	}
}

func TestAttachLocalAssets(t *testing.T) {
	assetsDir := t.TempDir()
	pkgDir := filepath.Join(assetsDir, "com.example.foo")
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pkgDir, "icon.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	pkg := &models.Package{
		Identifier: "com.example.foo",
		Resources:  map[string]any{"screenshot": "already/set.png"},
	}
	AttachLocalAssets(pkg, assetsDir)

	if got := pkg.Resources["icon"]; got != "com.example.foo/icon.png" {
		t.Errorf("icon = %v, want com.example.foo/icon.png", got)
	}
	// screenshot from the manifest is not overwritten, and no screenshot
	// file exists anyway
	if got := pkg.Resources["screenshot"]; got != "already/set.png" {
		t.Errorf("screenshot = %v, want already/set.png", got)
	}
}
