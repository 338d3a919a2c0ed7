// Package file is implementation of storage interface which keeps every collection in its own json file.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/monadsocial/agora/internal/storage"
)

var log = logrus.WithField("layer", "storage").WithField("package", "file")

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

type fs struct {
	dir string
}

// New creates new instance of file storage. Directory is created if it doesn't exist.
func New(dir string) (storage.Storage, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return fs{dir: dir}, nil
}

// Path returns path of the file which holds collection c.
func Path(dir string, c storage.Collection) string {
	return filepath.Join(dir, fmt.Sprintf("%s.json", c))
}

func (s fs) Save(_ context.Context, c storage.Collection, data []byte) error {
	// write-then-rename keeps the previous snapshot intact if the process dies mid-write
	tmp, err := ioutil.TempFile(s.dir, fmt.Sprintf(".%s-*.tmp", c))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := func() error {
		if _, err := tmp.Write(data); err != nil {
			return fmt.Errorf("failed to write: %w", err)
		}
		if err := tmp.Sync(); err != nil {
			return fmt.Errorf("failed to sync: %w", err)
		}
		if err := tmp.Chmod(filePerm); err != nil {
			return fmt.Errorf("failed to chmod: %w", err)
		}
		return tmp.Close()
	}(); err != nil {
		tmp.Close() // nolint:errcheck
		if err := os.Remove(tmp.Name()); err != nil {
			log.WithError(err).WithField("file", tmp.Name()).Error("failed to remove temp file")
		}
		return err
	}

	if err := os.Rename(tmp.Name(), Path(s.dir, c)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func (s fs) Load(_ context.Context, c storage.Collection) ([]byte, error) {
	b, err := ioutil.ReadFile(Path(s.dir, c))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return b, nil
}

func (s fs) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("failed to stat data directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}

	return nil
}
