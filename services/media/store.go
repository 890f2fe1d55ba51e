package media

import (
	"context"
	"io"
)

// Asset is a stored media object. ID is what the store needs to delete it.
type Asset struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Store hosts course thumbnails, preview videos and lecture videos.
type Store interface {
	Upload(ctx context.Context, filename string, r io.Reader) (Asset, error)
	Delete(ctx context.Context, id string) error
}
