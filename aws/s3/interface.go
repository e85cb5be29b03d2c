//go:generate mockgen -package mocks -destination mocks/interface.go github.com/relloyd/salespipe/aws/s3 BasicClient
package s3

import (
	"context"
	"errors"
	"io"
)

var ErrKeyNotFound = errors.New("key not found")

type BasicClient interface {
	Lister
	Getter
	Putter
	BufferPutter
	Uploader
	Deleter
	Exister
	Locator
}

type Lister interface {
	List(ctx context.Context, key string) (keys []string, err error)
}

type Getter interface {
	// Get returns ErrKeyNotFound if the given key doesn't exist.
	Get(ctx context.Context, key string) (data []byte, err error)
}

type Putter interface {
	Put(ctx context.Context, key string, data []byte) (err error)
}

// BufferPutter can be used to put a file to S3 since File implements Read and Seek.
type BufferPutter interface {
	BufferPut(ctx context.Context, key string, buf io.ReadSeeker) (err error)
}

// Uploader streams r to S3 using multipart uploads for large bodies.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader) (err error)
}

type Deleter interface {
	Delete(ctx context.Context, key string) error
}

type Exister interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// Locator returns the bucket-relative object key used for key.
type Locator interface {
	KeyWithPrefix(key string) string
}
