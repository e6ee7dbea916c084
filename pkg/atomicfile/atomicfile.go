// Package atomicfile writes files durably: write to a ".tmp" sibling, fsync
// it, then rename over the final path. A reader never observes a partially
// written file, and a crash between steps leaves either the old file intact
// or a stray ".tmp" that the next Writer construction sweeps away.
//
// Grounded on the write-temp/rename pattern in
// pkg/storage/cache/encrypted_cache.go's saveToDisk, extended with an
// explicit fsync of both the temp file and its parent directory since the
// teacher's version does not survive a crash between write and rename.
package atomicfile

import (
	"os"
	"path/filepath"
	"strings"

	cabinetErrors "github.com/cabinetdb/cabinet/pkg/errors"
)

const tmpSuffix = ".tmp"

// Writer durably persists files at the paths it is given. The root passed to
// NewWriter is used only for the stale temp-file sweep.
type Writer struct {
	dirMode  os.FileMode
	fileMode os.FileMode
}

// NewWriter constructs a Writer and sweeps any stale ".tmp" files left under
// root by a previous process that crashed mid-write. Stale temp files are
// never valid - a complete write always ends in a rename - so removing them
// is always safe.
func NewWriter(root string) (*Writer, error) {
	w := &Writer{dirMode: 0o700, fileMode: 0o600}
	if err := sweepStaleTemp(root); err != nil {
		return nil, cabinetErrors.NewStoreError(err, cabinetErrors.ErrorCodeIO, "failed to sweep stale temp files").WithPath(root)
	}
	return w, nil
}

func sweepStaleTemp(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, tmpSuffix) {
			return os.Remove(path)
		}
		return nil
	})
}

// Write durably persists data at path: the parent directory is created if
// missing, data is written to "path.tmp", fsynced, renamed onto path, and
// the parent directory is fsynced so the rename itself survives a crash.
func (w *Writer) Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, w.dirMode); err != nil {
		return cabinetErrors.NewStoreError(err, cabinetErrors.ErrorCodeIO, "failed to create parent directory").WithPath(dir)
	}

	tmpPath := path + tmpSuffix
	if err := writeAndSync(tmpPath, data, w.fileMode); err != nil {
		os.Remove(tmpPath)
		return cabinetErrors.NewStoreError(err, cabinetErrors.ErrorCodeIO, "failed to write temp file").WithPath(tmpPath)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return cabinetErrors.NewStoreError(err, cabinetErrors.ErrorCodeIO, "failed to rename temp file into place").WithPath(path)
	}

	if err := syncDir(dir); err != nil {
		return cabinetErrors.NewStoreError(err, cabinetErrors.ErrorCodeIO, "failed to sync parent directory").WithPath(dir)
	}

	return nil
}

func writeAndSync(path string, data []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Remove deletes path if it exists. A missing file is not an error.
func (w *Writer) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return cabinetErrors.NewStoreError(err, cabinetErrors.ErrorCodeIO, "failed to remove file").WithPath(path)
	}
	return nil
}

// Read loads the full contents of path.
func (w *Writer) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cabinetErrors.NewStoreError(err, cabinetErrors.ErrorCodeIO, "failed to read file").WithPath(path)
	}
	return data, nil
}

// Exists reports whether path names a regular file.
func (w *Writer) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
