package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emrgen/knuth/internal/blob"
	"github.com/emrgen/knuth/internal/index"
	"github.com/emrgen/knuth/internal/metrics"
	"github.com/emrgen/knuth/internal/model"
	"github.com/emrgen/knuth/internal/queue"
	"github.com/emrgen/knuth/internal/store"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
)

// CreateDocumentInput holds the attributes of a new document.
type CreateDocumentInput struct {
	Title  string
	Author string
	DOI    string
	Tags   []string
	Type   string
	Parent *uint
}

func (in CreateDocumentInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Type, validation.Required, validation.Length(1, 32)),
		validation.Field(&in.Parent, validation.NilOrNotEmpty),
		validation.Field(&in.DOI, validation.Length(0, 255)),
	)
}

// DocumentRecord is the assembled view of a document.
type DocumentRecord struct {
	ID          uint              `json:"id"`
	Type        string            `json:"type"`
	Title       string            `json:"title"`
	Author      string            `json:"author"`
	DOI         string            `json:"doi"`
	Timestamp   time.Time         `json:"timestamp"`
	Date        string            `json:"date"`
	Parent      *uint             `json:"parent,omitempty"`
	ParentTitle string            `json:"parent_title,omitempty"`
	Tags        []string          `json:"tags"`
	Meta        map[string]string `json:"meta"`
	Filename    string            `json:"filename,omitempty"`
	Attachments []*DocumentRecord `json:"attachments"`
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(deps Deps) *DocumentService {
	return &DocumentService{
		store:    deps.Store,
		blobs:    deps.Blobs,
		index:    deps.Index,
		queue:    deps.Queue,
		resolver: NewFilenameResolver(deps.Store, deps.Blobs),
	}
}

// DocumentService maintains the document tree and its metadata.
type DocumentService struct {
	store    store.Store
	blobs    blob.Store
	index    index.Index
	queue    queue.IndexQueue
	resolver *FilenameResolver
}

// CreateDocument inserts a document and its tags.
// The row and the tags are committed separately; when the tags fail the id of the
// created row is returned along with the error.
func (d *DocumentService) CreateDocument(ctx context.Context, in CreateDocumentInput) (uint, error) {
	if in.Type == "" {
		in.Type = model.TypeDocument
	}
	if err := in.Validate(); err != nil {
		return 0, err
	}

	if in.Parent != nil {
		exists, err := d.store.ExistsDocument(ctx, *in.Parent)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, fmt.Errorf("%w: %d", ErrParentNotFound, *in.Parent)
		}
	}

	doc := &model.Document{
		Type:      in.Type,
		Title:     in.Title,
		Author:    in.Author,
		DOI:       in.DOI,
		Timestamp: time.Now().UTC(),
		Parent:    in.Parent,
	}
	if err := d.store.CreateDocument(ctx, doc); err != nil {
		return 0, err
	}
	metrics.DocumentsCreated.WithLabelValues(doc.Type).Inc()

	tags := make([]*model.Metadata, 0, len(in.Tags))
	for _, tag := range in.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags = append(tags, model.NewMetadata(doc.ID, model.MetaTag, tag))
	}
	if err := d.store.CreateMetadata(ctx, tags...); err != nil {
		return doc.ID, fmt.Errorf("create tags of document %d: %w", doc.ID, err)
	}

	logrus.Infof("created %s %d", doc.Type, doc.ID)
	d.enqueue(ctx, doc.ID)

	return doc.ID, nil
}

// CreateAttachment creates a document of type attach below parent.
func (d *DocumentService) CreateAttachment(ctx context.Context, parent uint, in CreateDocumentInput) (uint, error) {
	in.Type = model.TypeAttachment
	in.Parent = &parent

	return d.CreateDocument(ctx, in)
}

// RetrieveDocument assembles the record of a document.
// With attachments, the direct children are included without their own children.
func (d *DocumentService) RetrieveDocument(ctx context.Context, id uint, withAttachments bool) (*DocumentRecord, error) {
	doc, err := d.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	record := &DocumentRecord{
		ID:          doc.ID,
		Type:        doc.Type,
		Title:       doc.Title,
		Author:      doc.Author,
		DOI:         doc.DOI,
		Timestamp:   doc.Timestamp,
		Date:        doc.FormatDate(),
		Parent:      doc.Parent,
		Tags:        make([]string, 0),
		Meta:        make(map[string]string),
		Attachments: make([]*DocumentRecord, 0),
	}

	if doc.Parent != nil {
		parent, err := d.store.GetDocument(ctx, *doc.Parent)
		switch {
		case err == nil:
			record.ParentTitle = parent.Title
		case errors.Is(err, store.ErrDocumentNotFound):
			logrus.Warnf("document %d references missing parent %d", doc.ID, *doc.Parent)
		default:
			return nil, err
		}
	}

	rows, err := d.store.ListMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.Key == model.MetaTag {
			record.Tags = append(record.Tags, row.Value)
			continue
		}
		if _, ok := record.Meta[row.Key]; !ok {
			record.Meta[row.Key] = row.Value
		}
	}

	filename, ok, err := d.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		record.Filename = filename
	}

	if withAttachments {
		children, err := d.store.ListChildren(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			attachment, err := d.RetrieveDocument(ctx, child.ID, false)
			if err != nil {
				return nil, err
			}
			record.Attachments = append(record.Attachments, attachment)
		}
	}

	return record, nil
}

// ListDocuments returns every document ordered by id.
func (d *DocumentService) ListDocuments(ctx context.Context) ([]*model.Document, error) {
	return d.store.ListDocuments(ctx)
}

// UpdateDocument applies attrs to the document and returns its id.
func (d *DocumentService) UpdateDocument(ctx context.Context, id uint, attrs model.Attributes) (uint, error) {
	if _, err := d.store.GetDocument(ctx, id); err != nil {
		return 0, err
	}

	columns, err := attrs.Columns()
	if err != nil {
		return 0, err
	}

	parent, set, err := attrs.ParentID()
	if err != nil {
		return 0, err
	}
	if set && parent != nil {
		if err := d.checkParent(ctx, id, *parent); err != nil {
			return 0, err
		}
	}

	if err := d.store.UpdateDocument(ctx, id, columns); err != nil {
		return 0, err
	}

	logrus.Infof("updated document %d: %d fields", id, len(columns))
	d.enqueue(ctx, id)

	return id, nil
}

// checkParent rejects parent assignments that would make id its own ancestor.
func (d *DocumentService) checkParent(ctx context.Context, id, parent uint) error {
	seen := make(map[uint]bool)
	current := parent
	for {
		if current == id {
			return fmt.Errorf("%w: %d is %d or one of its descendants", ErrInvalidParent, parent, id)
		}
		if seen[current] {
			return fmt.Errorf("%w: ancestors of %d form a cycle", ErrInvalidParent, parent)
		}
		seen[current] = true

		doc, err := d.store.GetDocument(ctx, current)
		if err != nil {
			if current == parent && errors.Is(err, store.ErrDocumentNotFound) {
				return fmt.Errorf("%w: %d", ErrParentNotFound, parent)
			}
			return err
		}
		if doc.Parent == nil {
			return nil
		}
		current = *doc.Parent
	}
}

// PlanDeletion lists the documents removed by deleting id, without touching any store.
func (d *DocumentService) PlanDeletion(ctx context.Context, id uint, order TraversalOrder) (*DeletionPlan, error) {
	if id == 0 {
		return nil, ErrReservedDocumentID
	}
	if _, err := d.store.GetDocument(ctx, id); err != nil {
		return nil, err
	}

	return planDeletion(ctx, d.store, id, order)
}

// DeleteDocument removes a document with all of its descendants, their metadata,
// their blobs and their index entries.
// Deleting an id with no row changes nothing and returns store.ErrDocumentNotFound,
// so callers that treat it as a no-op can test for it with errors.Is.
func (d *DocumentService) DeleteDocument(ctx context.Context, id uint) error {
	if id == 0 {
		logrus.Warn("refusing to delete document 0")
		return ErrReservedDocumentID
	}

	plan, err := d.PlanDeletion(ctx, id, BreadthFirst)
	if err != nil {
		return err
	}

	return d.executeDeletion(ctx, plan)
}

func (d *DocumentService) executeDeletion(ctx context.Context, plan *DeletionPlan) error {
	var filenames []string
	err := d.store.Transaction(ctx, func(tx store.Store) error {
		for i := len(plan.Documents) - 1; i >= 0; i-- {
			if err := tx.DeleteDocument(ctx, plan.Documents[i]); err != nil {
				return err
			}
		}

		for _, docID := range plan.Documents {
			rows, err := tx.ListMetadata(ctx, docID)
			if err != nil {
				return err
			}
			for _, row := range rows {
				if row.Key == model.MetaFilename {
					filenames = append(filenames, row.Value)
				}
				if err := tx.DeleteMetadata(ctx, row.ID); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("delete document %d: %w", plan.Root, err)
	}
	metrics.DocumentsDeleted.Add(float64(len(plan.Documents)))

	var errs []error
	for _, name := range d.blobsOf(ctx, plan, filenames, &errs) {
		err := d.blobs.Remove(ctx, name)
		if err == nil {
			continue
		}
		if errors.Is(err, blob.ErrNotFound) {
			logrus.Warnf("blob %s of deleted document already missing", name)
			continue
		}
		metrics.BlobErrors.WithLabelValues("remove").Inc()
		errs = append(errs, fmt.Errorf("remove blob %s: %w", name, err))
	}

	for _, docID := range plan.Documents {
		err := d.index.Delete(ctx, docID)
		metrics.IndexOperations.WithLabelValues("delete", metrics.Status(err)).Inc()
		if err != nil {
			errs = append(errs, fmt.Errorf("remove index entry %d: %w", docID, err))
		}
	}

	logrus.Infof("deleted document %d and %d descendants", plan.Root, len(plan.Descendants()))

	return errors.Join(errs...)
}

// blobsOf returns the recorded filenames plus any blob still named after a planned id.
func (d *DocumentService) blobsOf(ctx context.Context, plan *DeletionPlan, filenames []string, errs *[]error) []string {
	names := make([]string, 0, len(filenames))
	seen := make(map[string]bool, len(filenames))
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, name := range filenames {
		add(name)
	}
	for _, docID := range plan.Documents {
		found, err := d.blobs.List(ctx, blob.Prefix(docID))
		if err != nil {
			metrics.BlobErrors.WithLabelValues("list").Inc()
			*errs = append(*errs, fmt.Errorf("list blobs of document %d: %w", docID, err))
			continue
		}
		for _, name := range found {
			add(name)
		}
	}

	return names
}

func (d *DocumentService) enqueue(ctx context.Context, id uint) {
	if d.queue == nil {
		return
	}

	if err := d.queue.Publish(ctx, id); err != nil {
		logrus.Warnf("failed to queue document %d for index sync: %v", id, err)
	}
}
