package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temp file beside path and renames it into
// place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return cause
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		return cleanup(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// RemoveIfExists deletes path and reports whether a file was removed. A
// missing file is not an error.
func RemoveIfExists(path string) (bool, error) {
	err := os.Remove(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
}

// ReplaceDir moves the directory src to dst. An existing dst is swapped out
// and removed only after src is in place; if the move fails it is restored.
// Both paths must share a parent so the renames stay on one filesystem.
func ReplaceDir(src, dst string) error {
	backup := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".old")
	if err := os.RemoveAll(backup); err != nil {
		return fmt.Errorf("clear %s: %w", backup, err)
	}
	hadDst := DirExists(dst)
	if hadDst {
		if err := os.Rename(dst, backup); err != nil {
			return fmt.Errorf("set aside %s: %w", dst, err)
		}
	}
	if err := os.Rename(src, dst); err != nil {
		if hadDst {
			if restoreErr := os.Rename(backup, dst); restoreErr != nil {
				return errors.Join(fmt.Errorf("move %s: %w", src, err), fmt.Errorf("restore %s: %w", dst, restoreErr))
			}
		}
		return fmt.Errorf("move %s: %w", src, err)
	}
	if hadDst {
		if err := os.RemoveAll(backup); err != nil {
			return fmt.Errorf("remove %s: %w", backup, err)
		}
	}
	return nil
}
