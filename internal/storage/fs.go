package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// writeFileAtomic writes r to dir/name through a temporary file in the same
// directory and a rename.
func writeFileAtomic(dir, name string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, err
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		return n, err
	}
	return n, nil
}
