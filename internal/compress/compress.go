// Package compress holds the codecs applied to search index entries kept in
// redis. Entries are whole JSON documents including extracted text, so they
// are encoded before they are written; the codec is chosen by configuration.
package compress

import (
	"fmt"
	"strings"
)

// Compress encodes and decodes payloads kept in external stores.
type Compress interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// New returns the codec registered under name. An empty name selects Nop.
func New(name string) (Compress, error) {
	switch strings.ToLower(name) {
	case "", "none", "nop":
		return NewNop(), nil
	case "gzip":
		return NewGZip(), nil
	case "brotli":
		return NewBrotli(), nil
	case "lz4":
		return NewLZ4(), nil
	}

	return nil, fmt.Errorf("unknown compression %q", name)
}

// Nop stores entries as they are. It is the codec of tests and of deployments
// that keep the index in a store with its own compression.
type Nop struct{}

func NewNop() Nop {
	return Nop{}
}

func (Nop) Encode(data []byte) ([]byte, error) { return data, nil }

func (Nop) Decode(data []byte) ([]byte, error) { return data, nil }
