package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrForeignURL       = errors.New("url does not belong to this store")
	ErrTooManyFiles     = errors.New("too many files")
	ErrFileTooLarge     = errors.New("file is too large")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrNoFiles          = errors.New("no files uploaded")
	ErrUnsupportedStore = errors.New("unsupported storage driver")
)

// Store persists uploaded objects and addresses them by public URL.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, url string) error
}
