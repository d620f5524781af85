package cache

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// FileBackend stores each entry as a file on disk, surviving process
// restarts. Keys are encoded so arbitrary key strings map to safe, reversible
// filenames. Writes go through a temp file and rename, so concurrent
// processes sharing the directory never observe a torn entry.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend rooted at dir, creating it if needed.
// An empty dir defaults to ~/.propsight/cache.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".propsight", "cache")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) Read(key string) ([]byte, error) {
	return os.ReadFile(f.path(key))
}

func (f *FileBackend) Write(key string, data []byte) error {
	path := f.path(key)
	tmp := path + fmt.Sprintf(".tmp.%d", rand.Int())
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		if isQuotaErr(err) {
			return ErrQuotaExceeded
		}
		return err
	}
	return os.Rename(tmp, path)
}

func (f *FileBackend) Remove(key string) error {
	err := os.Remove(f.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *FileBackend) Keys() ([]string, error) {
	dirents, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, de := range dirents {
		name, ok := strings.CutSuffix(de.Name(), ".json")
		if !ok {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(name)
		if err != nil {
			continue
		}
		keys = append(keys, string(raw))
	}
	return keys, nil
}

func (f *FileBackend) path(key string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(key))
	return filepath.Join(f.dir, name+".json")
}

// isQuotaErr reports whether a write failed because the filesystem is full.
func isQuotaErr(err error) bool {
	return errors.Is(err, syscall.ENOSPC)
}

var _ Backend = (*FileBackend)(nil)
