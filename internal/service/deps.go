package service

import (
	"github.com/emrgen/knuth/internal/blob"
	"github.com/emrgen/knuth/internal/index"
	"github.com/emrgen/knuth/internal/queue"
	"github.com/emrgen/knuth/internal/store"
)

// Deps are the stores shared by the services. Queue is optional.
type Deps struct {
	Store store.Store
	Blobs blob.Store
	Index index.Index
	Queue queue.IndexQueue
}
