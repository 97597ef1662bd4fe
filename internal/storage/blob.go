package storage

import "io"

// BlobStore archives raw uploads (lesson import files) outside the database.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
