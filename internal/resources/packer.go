// Package resources builds the repository-level resources.zip from local
// per-package asset folders.
//
// Layout on disk:
//
//	assets/
//	  com.example.foo/
//	    icon.png
//	    screenshots/one.png
//
// becomes, inside resources.zip:
//
//	com.example.foo/icon.png
//	com.example.foo/screenshots/one.png
package resources

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Packer builds OutputPath from the package folders under AssetsDir.
type Packer struct {
	AssetsDir  string
	OutputPath string
}

// Pack builds the resource bundle. When there is nothing to pack, a stale
// bundle from a previous run is removed so the repository descriptor stops
// referencing it.
func (p *Packer) Pack() error {
	if _, err := os.Stat(p.AssetsDir); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		return p.removeStale("no assets directory found")
	}

	entries, err := os.ReadDir(p.AssetsDir)
	if err != nil {
		return err
	}
	var pkgDirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			pkgDirs = append(pkgDirs, entry.Name())
		}
	}
	if len(pkgDirs) == 0 {
		return p.removeStale("assets directory has no package folders")
	}

	sort.Slice(pkgDirs, func(i, j int) bool {
		return strings.ToLower(pkgDirs[i]) < strings.ToLower(pkgDirs[j])
	})

	out, err := os.Create(p.OutputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", p.OutputPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, name := range pkgDirs {
		if err := p.addDir(zw, filepath.Join(p.AssetsDir, name), name); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}

	info, err := os.Stat(p.OutputPath)
	if err != nil {
		return err
	}
	logrus.Infof("Built %s (%d bytes) from %d package folder(s)", filepath.Base(p.OutputPath), info.Size(), len(pkgDirs))
	return nil
}

// addDir recursively adds every file under dir, namespacing entries under the
// package identifier folder.
func (p *Packer) addDir(zw *zip.Writer, dir, arcPrefix string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		arcname := arcPrefix + "/" + filepath.ToSlash(rel)

		w, err := zw.Create(arcname)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, f)
		f.Close()
		return err
	})
}

func (p *Packer) removeStale(reason string) error {
	if _, err := os.Stat(p.OutputPath); err == nil {
		if err := os.Remove(p.OutputPath); err != nil {
			return err
		}
		logrus.Infof("Removed stale %s (%s)", filepath.Base(p.OutputPath), reason)
	} else {
		logrus.Infof("Nothing to build: %s", reason)
	}
	return nil
}
