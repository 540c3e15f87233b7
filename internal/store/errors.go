package store

import "errors"

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrMetadataNotFound = errors.New("metadata not found")
)
