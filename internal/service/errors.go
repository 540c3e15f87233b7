package service

import "errors"

var (
	// ErrReservedDocumentID is returned when an operation targets id 0.
	ErrReservedDocumentID = errors.New("document id 0 is reserved")
	// ErrParentNotFound is returned when a parent id does not name an existing document.
	ErrParentNotFound = errors.New("parent document not found")
	// ErrInvalidParent is returned when a parent assignment would create a cycle.
	ErrInvalidParent = errors.New("invalid parent document")
)
