// Package zip packs generated map directories into downloadable archives.
package zip

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ArchiveDirectory writes every regular file under srcDir into a zip archive
// at destPath, preserving relative paths. The destination directory is
// created if needed. On failure the partial archive is removed.
func ArchiveDirectory(srcDir, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("zip: ensure destination directory: %w", err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("zip: create archive: %w", err)
	}

	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		return addFile(zw, path, filepath.ToSlash(rel))
	})

	if closeErr := zw.Close(); walkErr == nil {
		walkErr = closeErr
	}
	if closeErr := out.Close(); walkErr == nil {
		walkErr = closeErr
	}
	if walkErr != nil {
		_ = os.Remove(destPath)
		return fmt.Errorf("zip: archive %s: %w", srcDir, walkErr)
	}
	return nil
}

func addFile(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}
