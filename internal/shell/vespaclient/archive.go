package vespaclient

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// zipRoot packs an application root into the zip layout the config
// server and the cloud API expect: paths relative to root.
func zipRoot(root string) ([]byte, error) {
	if _, err := os.Stat(filepath.Join(root, "services.xml")); err != nil {
		return nil, fmt.Errorf("application root %s: %w", root, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("zip application root: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip application root: %w", err)
	}
	return buf.Bytes(), nil
}
