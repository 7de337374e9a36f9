package manifest

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"errors"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Candidate manifest filenames, in preference order.
var manifestNames = []string{"manifest.json", "metadata.json"}

// Magic bytes for compression detection
var (
	gzipMagic  = []byte{0x1F, 0x8B}
	zstdMagic  = []byte{0x28, 0xB5, 0x2F, 0xFD}
	xzMagic    = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
	bzip2Magic = []byte{'B', 'Z', 'h'}
)

var (
	// ErrUnknownArchive means the blob is neither a zip nor a tar-family
	// archive.
	ErrUnknownArchive = errors.New("unrecognized archive format")

	// ErrManifestNotFound means the archive was readable but carried no
	// manifest.json or metadata.json at the root or under its single
	// top-level folder.
	ErrManifestNotFound = errors.New("no manifest.json or metadata.json in archive")
)

// FromArchive locates and parses the manifest inside an asset archive held in
// memory. Zip is tried first, then tar with transparent gzip, bzip2, xz and
// zstd decompression. The returned string is the path of the manifest inside
// the archive; it is set even when parsing the located file fails.
func FromArchive(blob []byte) (*Manifest, string, error) {
	if zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob))); err == nil {
		return fromZip(zr)
	}
	if tr, ok := tarReader(blob); ok {
		return fromTar(tr)
	}
	return nil, "", ErrUnknownArchive
}

func fromZip(zr *zip.Reader) (*Manifest, string, error) {
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	target := selectManifestName(names)
	if target == "" {
		return nil, "", ErrManifestNotFound
	}

	for _, f := range zr.File {
		if f.Name != target {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, target, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, target, err
		}
		m, err := Parse(data)
		if err != nil {
			return nil, target, err
		}
		return m, target, nil
	}
	return nil, "", ErrManifestNotFound
}

// fromTar walks the archive once, keeping the contents of every entry whose
// base name is a manifest candidate, then picks the best-placed one.
func fromTar(r io.Reader) (*Manifest, string, error) {
	tr := tar.NewReader(r)

	var names []string
	contents := make(map[string][]byte)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A blob that stops looking like a tar midway is
			// treated the same as one that never did.
			return nil, "", ErrUnknownArchive
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := strings.TrimPrefix(hdr.Name, "./")
		names = append(names, name)

		base := name
		if i := strings.LastIndex(name, "/"); i >= 0 {
			base = name[i+1:]
		}
		for _, cand := range manifestNames {
			if base == cand {
				data, err := io.ReadAll(tr)
				if err != nil {
					return nil, "", ErrUnknownArchive
				}
				contents[name] = data
				break
			}
		}
	}

	target := selectManifestName(names)
	if target == "" {
		return nil, "", ErrManifestNotFound
	}

	m, err := Parse(contents[target])
	if err != nil {
		return nil, target, err
	}
	return m, target, nil
}

// tarReader wraps the blob with the right decompressor based on magic bytes.
// A blob with no recognized compression magic is tried as a bare tar.
func tarReader(blob []byte) (io.Reader, bool) {
	switch {
	case bytes.HasPrefix(blob, gzipMagic):
		gr, err := gzip.NewReader(bytes.NewReader(blob))
		if err != nil {
			return nil, false
		}
		return gr, true
	case bytes.HasPrefix(blob, zstdMagic):
		zr, err := zstd.NewReader(bytes.NewReader(blob))
		if err != nil {
			return nil, false
		}
		return zr.IOReadCloser(), true
	case bytes.HasPrefix(blob, xzMagic):
		xr, err := xz.NewReader(bytes.NewReader(blob))
		if err != nil {
			return nil, false
		}
		return xr, true
	case bytes.HasPrefix(blob, bzip2Magic):
		return bzip2.NewReader(bytes.NewReader(blob)), true
	case looksLikeTar(blob):
		return bytes.NewReader(blob), true
	}
	return nil, false
}

// looksLikeTar checks for the ustar magic at offset 257.
func looksLikeTar(blob []byte) bool {
	return len(blob) > 262 && bytes.Equal(blob[257:262], []byte("ustar"))
}

// selectManifestName picks the manifest path out of the archive's entry
// names: an exact root-level candidate wins; otherwise, when every nested
// entry shares a single top-level folder (release archives often wrap their
// contents in one), candidates directly under that folder are accepted.
// Archives with multiple roots or deeper nesting yield no match.
func selectManifestName(names []string) string {
	for _, cand := range manifestNames {
		for _, n := range names {
			if n == cand {
				return n
			}
		}
	}

	toplevels := make(map[string]bool)
	for _, n := range names {
		if i := strings.Index(n, "/"); i >= 0 {
			toplevels[n[:i]] = true
		}
	}
	if len(toplevels) != 1 {
		return ""
	}
	var root string
	for r := range toplevels {
		root = r
	}
	for _, cand := range manifestNames {
		want := root + "/" + cand
		for _, n := range names {
			if n == want {
				return n
			}
		}
	}
	return ""
}
