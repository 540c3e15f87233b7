// Package blob stores uploaded document payloads under flat names of the form "<id>.<ext>".
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	ErrNotFound    = errors.New("blob not found")
	ErrInvalidName = errors.New("invalid blob name")
)

type Store interface {
	// Save writes the blob, replacing any existing blob with the same name.
	Save(ctx context.Context, name string, r io.Reader) error
	// Open returns a reader over the blob. The caller closes it.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Remove deletes the blob. A missing blob yields ErrNotFound.
	Remove(ctx context.Context, name string) error
	// List returns the names of blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Name returns the blob name of a document payload, "<id>.<ext>".
func Name(id uint, ext string) string {
	return Prefix(id) + ext
}

// Prefix returns the prefix shared by every blob name of a document.
func Prefix(id uint) string {
	return strconv.FormatUint(uint64(id), 10) + "."
}

// ParseID returns the document id a blob name belongs to.
func ParseID(name string) (uint, bool) {
	head, _, found := strings.Cut(name, ".")
	if !found {
		return 0, false
	}

	id, err := strconv.ParseUint(head, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}

	return uint(id), true
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return nil
}

// ReadAll reads a whole blob into memory.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	rc, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
