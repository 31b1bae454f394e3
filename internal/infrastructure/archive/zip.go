// Package archive unpacks downloaded version archives.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractFlatten unpacks a zip archive into destDir, dropping the single
// top-level folder every distribution archive wraps its contents in, so
// <dest>/bin/node rather than <dest>/node-v20.0.0-linux-x64/bin/node.
func ExtractFlatten(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", zipPath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		parts := strings.Split(filepath.ToSlash(f.Name), "/")
		if len(parts) <= 1 {
			continue // top-level folder entry itself
		}
		rel := filepath.Join(parts[1:]...)
		if rel == "" || strings.Contains(rel, "..") {
			continue
		}
		outPath := filepath.Join(destDir, rel)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(outPath, 0o755); err != nil {
				return fmt.Errorf("archive: mkdir %s: %w", outPath, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return fmt.Errorf("archive: mkdir %s: %w", filepath.Dir(outPath), err)
		}
		if err := writeEntry(f, outPath); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(f *zip.File, outPath string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("archive: read %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", outPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("archive: extract %s: %w", f.Name, err)
	}
	return nil
}
