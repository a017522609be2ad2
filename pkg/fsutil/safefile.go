// Package fsutil holds the small file primitives the stores share.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TempPattern is the name pattern for in-flight writes. Readers that list a
// directory skip entries matching it. The comma keeps it disjoint from staged
// file names, which may not contain one.
const TempPattern = ".tmp,*"

// SafeWrite writes data to path atomically: tempfile -> fsync -> rename.
// The tempfile lives next to path so the rename stays on one filesystem.
func SafeWrite(path string, data []byte, perm os.FileMode) error {
	return SafeWriteFrom(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}, perm)
}

// SafeWriteFrom is SafeWrite with the content produced by fill. Nothing is
// visible at path unless fill and the flush both succeed.
func SafeWriteFrom(path string, fill func(w io.Writer) error, perm os.FileMode) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), TempPattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err = fill(f); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err = f.Chmod(perm); err != nil {
		f.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp to target: %w", err)
	}
	return nil
}

// IsTemp reports whether name looks like an unfinished SafeWrite.
func IsTemp(name string) bool {
	ok, _ := filepath.Match(TempPattern, name)
	return ok
}
