package store

import (
	"context"

	"github.com/emrgen/knuth/internal/model"
)

type Store interface {
	DocumentStore
	MetadataStore
	// Transaction runs f against a store bound to a single transaction. The transaction commits when f returns nil.
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type DocumentStore interface {
	// CreateDocument inserts a document and fills in its generated ID.
	CreateDocument(ctx context.Context, doc *model.Document) error
	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id uint) (*model.Document, error)
	// ExistsDocument reports whether a document row exists.
	ExistsDocument(ctx context.Context, id uint) (bool, error)
	// ListDocuments retrieves all documents ordered by ID.
	ListDocuments(ctx context.Context) ([]*model.Document, error)
	// ListChildren retrieves the documents whose parent is the given ID.
	ListChildren(ctx context.Context, parent uint) ([]*model.Document, error)
	// UpdateDocument assigns the given columns of a document.
	UpdateDocument(ctx context.Context, id uint, columns map[string]any) error
	// DeleteDocument deletes a document row by ID.
	DeleteDocument(ctx context.Context, id uint) error
}

type MetadataStore interface {
	// CreateMetadata inserts metadata rows.
	CreateMetadata(ctx context.Context, rows ...*model.Metadata) error
	// ListMetadata retrieves the metadata rows of a document in insertion order.
	ListMetadata(ctx context.Context, docID uint) ([]*model.Metadata, error)
	// GetMetadata retrieves the first metadata row of a document with the given key.
	GetMetadata(ctx context.Context, docID uint, key string) (*model.Metadata, error)
	// DeleteMetadata deletes a metadata row by ID.
	DeleteMetadata(ctx context.Context, id uint) error
	// DeleteMetadataByKey deletes every row of a document with one of the given keys.
	DeleteMetadataByKey(ctx context.Context, docID uint, keys ...string) error
}
