package vegalite

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/couchcryptid/storm-data-dashboard/internal/chart"
)

// Document is an emitted, validated specification ready to be served or
// published.
type Document struct {
	Name        string
	JSON        []byte
	Hash        uint64
	GeneratedAt time.Time
}

// ETag returns a strong HTTP entity tag derived from the content hash.
func (d Document) ETag() string {
	return `"` + d.HashHex() + `"`
}

// HashHex returns the content hash as 16 lowercase hex digits.
func (d Document) HashHex() string {
	return fmt.Sprintf("%016x", d.Hash)
}

// NewDocument emits, encodes and validates root under name.
func NewDocument(name string, root chart.Chart, now time.Time, opts ...Option) (Document, error) {
	opts = append(opts, WithGeneratedAt(now))
	b, err := Marshal(root, opts...)
	if err != nil {
		return Document{}, err
	}
	if err := Validate(b); err != nil {
		return Document{}, err
	}
	return Document{
		Name:        name,
		JSON:        b,
		Hash:        xxhash.Sum64(b),
		GeneratedAt: now.UTC(),
	}, nil
}
