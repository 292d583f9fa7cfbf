package storage

import (
	"context"
	"errors"

	"github.com/codebuildervaibhav/cloud-transcriber/internal/types"
)

// ErrBlobNotFound is returned by Get when no object has the given name
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is a durable object store for uploaded audio
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) (types.BlobRef, error)
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]types.BlobRef, error)
}
