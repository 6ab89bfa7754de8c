// Package blobstore implements the content-addressed file store of
// spec.md §4.8: SHA-256-keyed blobs sharded one level deep on disk (a
// directory named by the digest's first two hex characters),
// written via the temp-file-then-rename pattern so no partial write is
// ever observable (grounded on the teacher's slack state persistence,
// internal/slackbot/state.go).
package blobstore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NickOut/EttleX-R-sub001/internal/digest"
	"github.com/NickOut/EttleX-R-sub001/internal/errtax"
)

// knownExtensions is the probe list Read tries, in order, when a digest's
// extension isn't already known to the caller.
var knownExtensions = []string{"json", "bin", "txt"}

// Store is a content-addressed blob store rooted at Root.
type Store struct {
	Root string
}

// New returns a Store rooted at root. The directory is created lazily on
// first write.
func New(root string) *Store {
	return &Store{Root: root}
}

func (s *Store) shardDir(digestHex string) string {
	return filepath.Join(s.Root, digestHex[:2])
}

func (s *Store) path(digestHex, extension string) string {
	return filepath.Join(s.shardDir(digestHex), fmt.Sprintf("%s.%s", digestHex, extension))
}

// Write computes data's SHA-256 digest and persists it at
// <root>/<digest[0:2]>/<digest>.<extension>, idempotently. If the target
// already exists with different bytes, Write fails with a CAS collision
// rather than silently overwriting.
func (s *Store) Write(data []byte, extension string) (string, error) {
	digestHex := digest.SHA256Hex(data)
	target := s.path(digestHex, extension)

	if existing, err := os.ReadFile(target); err == nil {
		if bytes.Equal(existing, data) {
			return digestHex, nil
		}
		return "", errtax.New(errtax.ConstraintViolation,
			"cas collision at digest %s: existing content differs", digestHex).WithEntity(digestHex)
	} else if !os.IsNotExist(err) {
		return "", errtax.Wrap(errtax.IO, err, "blobstore: stat existing blob %s", target)
	}

	dir := s.shardDir(digestHex)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errtax.Wrap(errtax.IO, err, "blobstore: create shard dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, digestHex+".*.tmp")
	if err != nil {
		return "", errtax.Wrap(errtax.IO, err, "blobstore: create temp file in %s", dir)
	}
	tmpPath := tmp.Name()
	_, werr := tmp.Write(data)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(tmpPath, 0o644)
	}
	if werr != nil {
		_ = os.Remove(tmpPath)
		return "", errtax.Wrap(errtax.IO, werr, "blobstore: write temp file %s", tmpPath)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return "", errtax.Wrap(errtax.IO, err, "blobstore: rename %s to %s", tmpPath, target)
	}
	return digestHex, nil
}

// Read returns the bytes stored under digestHex, probing knownExtensions
// in order when the caller doesn't already know the extension.
func (s *Store) Read(digestHex string) ([]byte, error) {
	for _, ext := range knownExtensions {
		data, err := os.ReadFile(s.path(digestHex, ext))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, errtax.Wrap(errtax.IO, err, "blobstore: read digest %s", digestHex)
		}
	}
	return nil, errtax.New(errtax.NotFound, "blob %s not found under any known extension", digestHex).WithEntity(digestHex)
}

// ReadExt returns the bytes stored under digestHex with a known extension,
// failing fast rather than probing.
func (s *Store) ReadExt(digestHex, extension string) ([]byte, error) {
	data, err := os.ReadFile(s.path(digestHex, extension))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errtax.New(errtax.NotFound, "blob %s.%s not found", digestHex, extension).WithEntity(digestHex)
		}
		return nil, errtax.Wrap(errtax.IO, err, "blobstore: read digest %s", digestHex)
	}
	return data, nil
}
