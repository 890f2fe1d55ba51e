package media

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// LocalStore keeps uploads on disk under Dir and serves them from BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) Upload(_ context.Context, filename string, r io.Reader) (Asset, error) {
	// Create destination directory if it doesn't exist
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return Asset{}, errors.Wrap(err, "creating media dir")
	}

	name := time.Now().Format("20060102150405") + "-" + uuid.NewString()[:8] + strings.ToLower(filepath.Ext(filename))
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return Asset{}, errors.Wrap(err, "creating media file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return Asset{}, errors.Wrap(err, "writing media file")
	}

	return Asset{ID: name, URL: s.BaseURL + "/" + name}, nil
}

func (s *LocalStore) Delete(_ context.Context, id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return errors.Errorf("invalid asset id %q", id)
	}
	err := os.Remove(filepath.Join(s.Dir, id))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing media file")
	}
	return nil
}
