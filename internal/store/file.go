// Package store implements the PipelineStorage/TableStorage capability
// contracts (interfaces.Storage, interfaces.TableStorage) against a local
// filesystem, an in-memory map, and a MinIO-backed object store.
package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rinarakaki/graphrag/internal/pipelineerr"
	"github.com/rinarakaki/graphrag/internal/types/interfaces"
)

// FileStorage roots a Storage at a directory on the local filesystem. Keys
// map to relative paths beneath RootDir; Child nests a sub-directory.
type FileStorage struct {
	RootDir string
}

// NewFileStorage creates (if absent) and returns a FileStorage rooted at dir.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.StorageError, "creating storage root", err)
	}
	return &FileStorage{RootDir: dir}, nil
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.RootDir, filepath.FromSlash(key))
}

func (s *FileStorage) Find(ctx context.Context, pattern string) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(s.RootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.RootDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		ok, err := filepath.Match(pattern, rel)
		if err != nil {
			return err
		}
		if ok {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.StorageError, "walking storage root", err)
	}
	sort.Strings(matches)
	return matches, nil
}

func (s *FileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, pipelineerr.New(pipelineerr.StorageError, "key not found", map[string]any{"key": key})
	}
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.StorageError, "reading key", err)
	}
	return data, nil
}

func (s *FileStorage) Set(ctx context.Context, key string, value []byte) error {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "creating parent directory", err)
	}
	if err := os.WriteFile(p, value, 0o644); err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "writing key", err)
	}
	return nil
}

func (s *FileStorage) Has(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, pipelineerr.Wrap(pipelineerr.StorageError, "stat key", err)
	}
	return true, nil
}

func (s *FileStorage) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return pipelineerr.Wrap(pipelineerr.StorageError, "deleting key", err)
	}
	return nil
}

func (s *FileStorage) Clear(ctx context.Context) error {
	if err := os.RemoveAll(s.RootDir); err != nil {
		return pipelineerr.Wrap(pipelineerr.StorageError, "clearing storage root", err)
	}
	return os.MkdirAll(s.RootDir, 0o755)
}

func (s *FileStorage) Child(name string) interfaces.Storage {
	child := &FileStorage{RootDir: filepath.Join(s.RootDir, name)}
	_ = os.MkdirAll(child.RootDir, 0o755)
	return child
}

func (s *FileStorage) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.RootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.RootDir, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.StorageError, "walking storage root", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStorage) CreationDate(ctx context.Context, key string) (time.Time, error) {
	info, err := os.Stat(s.path(key))
	if err != nil {
		return time.Time{}, pipelineerr.Wrap(pipelineerr.StorageError, "stat key", err)
	}
	return info.ModTime(), nil
}

var _ interfaces.Storage = (*FileStorage)(nil)
