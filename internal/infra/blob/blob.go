// Package blob stores encoded artwork images and hands back a reference that
// is persisted on the artwork record.
package blob

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidRef = errors.New("blob reference not recognised")
)

type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, ref string) ([]byte, string, error)
	Delete(ctx context.Context, ref string) error
}
