package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// LocalStorage keeps file content on disk under one directory per user.
// Keys handed out by Save are opaque to callers and collision-free.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStorage{basePath: basePath}, nil
}

// UniqueFilename generates an unguessable storage filename, keeping the
// original extension so mime sniffing on disk still works.
func UniqueFilename(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	return uuid.New().String() + ext
}

func (ls *LocalStorage) userPath(userID int64) string {
	return filepath.Join(ls.basePath, strconv.FormatInt(userID, 10))
}

func (ls *LocalStorage) Save(userID int64, filename string, data io.Reader) (string, error) {
	dir := ls.userPath(userID)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}

	key := filepath.Join(strconv.FormatInt(userID, 10), filename)

	file, err := os.Create(filepath.Join(ls.basePath, key))
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return "", err
	}

	return key, nil
}

func (ls *LocalStorage) Open(key string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(ls.basePath, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file with key %s not found: %w", key, err)
		}
		return nil, err
	}

	return file, nil
}

func (ls *LocalStorage) Delete(key string) error {
	err := os.Remove(filepath.Join(ls.basePath, key))
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

// NamespaceSize walks the user's directory and returns the true number of
// bytes on disk, independent of the storage_used ledger. Used to repair
// ledger drift after a crash.
func (ls *LocalStorage) NamespaceSize(userID int64) (int64, error) {
	var total int64

	err := filepath.WalkDir(ls.userPath(userID), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return 0, err
	}

	return total, nil
}
