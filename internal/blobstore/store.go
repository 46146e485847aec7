// Package blobstore implements the key-value store an Archiver
// container writes compressed snapshots into: an in-process map for
// tests, a local disk tree, or an S3 bucket, selected by
// config.C.ArchiverStorage (§4.9). Adapted from the teacher's
// internal/storage package (disk/null/s3 backends over a Key/Value
// Store interface), repointed at archived container blobs rather than
// musclefs' permanent block store.
package blobstore

import (
	"errors"
	"fmt"

	"github.com/dqm4hep/dqm4hep-go/internal/config"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrNotImplemented = errors.New("not implemented")
)

// Key addresses a blob, typically an archive container's name plus a
// uniqueness suffix (§4.9).
type Key string

// Value is the raw bytes of a blob.
type Value []byte

// Store is the minimal interface an Archiver sink must satisfy.
type Store interface {
	Get(Key) (Value, error)
	Put(Key, Value) error
	Delete(Key) error
}

// Enumerable additionally allows listing every key held, used by
// maintenance tooling and tests.
type Enumerable interface {
	Store
	Contains(Key) (bool, error)
	ForEach(func(Key) error) error
}

// New builds the Store selected by c.ArchiverStorage ("disk", "s3", or
// "null"/empty).
func New(c *config.C) (Store, error) {
	switch c.ArchiverStorage {
	case "disk":
		return NewDiskStore(c.ArchiveDirectoryPath()), nil
	case "null", "":
		return NullStore{}, nil
	case "s3":
		return newS3Store(c)
	default:
		return nil, fmt.Errorf("%q: %w", c.ArchiverStorage, ErrNotImplemented)
	}
}
