package source

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var zipMagic = []byte("PK\x03\x04")

// IsZip reports whether the file at path starts with a zip local file header.
func IsZip(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(head, zipMagic), nil
}

// Unzip extracts archive into dest and returns the extracted file paths.
// Entries that would land outside dest are rejected.
func Unzip(archive, dest string) ([]string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", archive, err)
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dest, err)
	}
	root, err := filepath.Abs(dest)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, zf := range r.File {
		target := filepath.Join(root, filepath.FromSlash(zf.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return out, fmt.Errorf("archive entry %q escapes %s", zf.Name, dest)
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return out, err
			}
			continue
		}
		if err := extractFile(zf, target); err != nil {
			return out, fmt.Errorf("extract %s: %w", zf.Name, err)
		}
		out = append(out, target)
	}
	return out, nil
}

func extractFile(zf *zip.File, target string) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = writeStream(target, rc)
	return err
}
