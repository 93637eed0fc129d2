// Package storage keeps uploaded source files on local disk, keyed by
// generated names so user-supplied filenames never touch the filesystem.
package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

func (s *FSStore) Put(key string, r io.Reader) (int64, error) {
	if key == "" {
		return 0, errors.New("empty key")
	}
	dst := filepath.Join(s.base, filepath.Clean(key))
	f, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(f, r)
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.base, filepath.Clean(key)))
}

// Path exposes the on-disk location for handing to extractors and
// http.ServeFile.
func (s *FSStore) Path(key string) string {
	return filepath.Join(s.base, filepath.Clean(key))
}

func (s *FSStore) Delete(key string) error {
	err := os.Remove(filepath.Join(s.base, filepath.Clean(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
