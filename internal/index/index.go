// Package index mirrors documents into an external search store.
// Entries are keyed by the relational document id.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// ErrNotIndexed is returned by partial updates and reads of an id that has no entry.
var ErrNotIndexed = errors.New("document is not indexed")

type Index interface {
	// Exists reports whether an entry exists for id.
	Exists(ctx context.Context, id uint) (bool, error)
	// Index creates or replaces the entry for id.
	Index(ctx context.Context, id uint, body *Body) error
	// Update merges partial into the entry for id. Nested objects are merged, other values replaced.
	Update(ctx context.Context, id uint, partial map[string]any) error
	// Get returns the current entry for id.
	Get(ctx context.Context, id uint) (map[string]any, error)
	// Delete removes the entry for id. Deleting a missing entry is not an error.
	Delete(ctx context.Context, id uint) error
}

// Body is the authoritative record of a document in the index.
type Body struct {
	Type      string            `json:"type"`
	Author    string            `json:"author"`
	Title     string            `json:"title"`
	DOI       string            `json:"doi"`
	Timestamp time.Time         `json:"timestamp"`
	Meta      map[string]string `json:"meta"`
	Tags      []string          `json:"tags"`
}

// Fields returns the body as a generic object, the shape used by partial updates.
func (b *Body) Fields() (map[string]any, error) {
	return toObject(b)
}

func documentID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func toObject(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	obj := make(map[string]any)
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}

	return obj, nil
}

// Merge applies patch onto dst the way a partial document update does.
func Merge(dst, patch map[string]any) {
	for key, value := range patch {
		next, ok := value.(map[string]any)
		if !ok {
			dst[key] = value
			continue
		}

		current, ok := dst[key].(map[string]any)
		if !ok {
			current = make(map[string]any, len(next))
			dst[key] = current
		}
		Merge(current, next)
	}
}
