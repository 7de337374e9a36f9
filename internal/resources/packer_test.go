package resources

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeAsset(t *testing.T, root string, parts ...string) {
	t.Helper()
	path := filepath.Join(append([]string{root}, parts...)...)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("content of "+filepath.Base(path)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestPack(t *testing.T) {
	dir := t.TempDir()
	assets := filepath.Join(dir, "assets")
	writeAsset(t, assets, "com.example.zeta", "icon.png")
	writeAsset(t, assets, "com.example.alpha", "icon.png")
	writeAsset(t, assets, "com.example.alpha", "screenshots", "one.png")
	// stray file directly under assets/ is not a package folder
	writeAsset(t, assets, "notes.txt")

	out := filepath.Join(dir, "resources.zip")
	p := &Packer{AssetsDir: assets, OutputPath: out}
	if err := p.Pack(); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	want := []string{
		"com.example.alpha/icon.png",
		"com.example.alpha/screenshots/one.png",
		"com.example.zeta/icon.png",
	}
	got := zipNames(t, out)
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}

	// entry contents survive the round trip
	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content of icon.png" {
		t.Errorf("content = %q", data)
	}
}

func TestPackRemovesStaleBundle(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "resources.zip")
	if err := os.WriteFile(out, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &Packer{AssetsDir: filepath.Join(dir, "missing-assets"), OutputPath: out}
	if err := p.Pack(); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("stale resources.zip should be removed when no assets exist")
	}
}

func TestPackEmptyAssetsDir(t *testing.T) {
	dir := t.TempDir()
	assets := filepath.Join(dir, "assets")
	if err := os.MkdirAll(assets, 0o755); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "resources.zip")
	if err := os.WriteFile(out, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &Packer{AssetsDir: assets, OutputPath: out}
	if err := p.Pack(); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("stale resources.zip should be removed when assets/ is empty")
	}
}

func TestPackNothingToDo(t *testing.T) {
	dir := t.TempDir()
	p := &Packer{
		AssetsDir:  filepath.Join(dir, "missing-assets"),
		OutputPath: filepath.Join(dir, "resources.zip"),
	}
	if err := p.Pack(); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
}
