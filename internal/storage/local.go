package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/spf13/afero"
)

// LocalStore keeps objects as files under a root directory.
type LocalStore struct {
	fs afero.Fs
}

// NewLocalStore returns a store rooted at root on the OS filesystem. The
// root is created if missing.
func NewLocalStore(root string) (*LocalStore, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &LocalStore{fs: afero.NewBasePathFs(osFs, root)}, nil
}

// NewLocalStoreFs wraps an existing filesystem, e.g. afero.NewMemMapFs in tests.
func NewLocalStoreFs(fsys afero.Fs) *LocalStore {
	return &LocalStore{fs: fsys}
}

func (s *LocalStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	key, err := CleanKey(key)
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	name := "/" + key
	if err := s.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}

	f, err := s.fs.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(name)
		return fmt.Errorf("write %s: %w", key, err)
	}
	return f.Close()
}

func (s *LocalStore) Open(_ context.Context, key string) (*Object, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	name := "/" + key

	info, err := s.fs.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, afero.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	f, err := s.fs.Open(name)
	if err != nil {
		return nil, err
	}
	return &Object{Body: f, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove("/" + key); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
