// Package media wraps the external image-hosting service behind an opaque
// upload/delete interface.
package media

import (
	"context"
	"io"
)

// Object identifies a stored image; the ID is the host's handle for deletion.
type Object struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Store interface {
	Upload(ctx context.Context, filename string, content io.Reader) (*Object, error)
	Delete(ctx context.Context, id string) error
}
