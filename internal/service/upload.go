package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/knuth/internal/blob"
	"github.com/emrgen/knuth/internal/extract"
	"github.com/emrgen/knuth/internal/index"
	"github.com/emrgen/knuth/internal/metrics"
	"github.com/emrgen/knuth/internal/model"
	"github.com/emrgen/knuth/internal/store"
	"github.com/sirupsen/logrus"
)

// UploadedFile is a payload received for a document.
type UploadedFile struct {
	// Name is the client side file name, used for the extension only.
	Name string
	Body io.Reader
}

// NewUploadService creates a new UploadService. A nil extractor disables PDF extraction.
func NewUploadService(deps Deps, pdf extract.Extractor) *UploadService {
	return &UploadService{
		store:   deps.Store,
		blobs:   deps.Blobs,
		index:   deps.Index,
		indexer: NewIndexService(deps),
		pdf:     pdf,
	}
}

// UploadService stores document payloads and propagates what can be extracted from them.
type UploadService struct {
	store   store.Store
	blobs   blob.Store
	index   index.Index
	indexer *IndexService
	pdf     extract.Extractor
}

// FileExtension returns the lower-cased extension of name, or the id when name has none.
func FileExtension(name string, id uint) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.ToLower(name)

	i := strings.LastIndex(name, ".")
	if i < 0 {
		return strconv.FormatUint(uint64(id), 10)
	}

	return name[i+1:]
}

// UploadDocument stores the payload of document id and returns the blob name.
// Relational writes are committed even when index updates fail; those failures
// are returned together with the blob name.
func (u *UploadService) UploadDocument(ctx context.Context, id uint, file UploadedFile) (string, error) {
	doc, err := u.store.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}

	ext := FileExtension(file.Name, id)
	mimetype, hasMimetype := extract.MimeType(ext)
	filename := blob.Name(id, ext)

	previous, err := u.store.GetMetadata(ctx, id, model.MetaFilename)
	if err != nil && !errors.Is(err, store.ErrMetadataNotFound) {
		return "", err
	}

	if err := u.blobs.Save(ctx, filename, file.Body); err != nil {
		metrics.BlobErrors.WithLabelValues("save").Inc()
		return "", fmt.Errorf("store blob %s: %w", filename, err)
	}

	rows := []*model.Metadata{model.NewMetadata(id, model.MetaFilename, filename)}
	if hasMimetype {
		rows = append(rows, model.NewMetadata(id, model.MetaMimeType, mimetype))
	}

	replaced := []string{model.MetaFilename, model.MetaMimeType}
	for _, field := range extract.PDFFields {
		replaced = append(replaced, extract.PDFMetaKey(field))
	}

	var errs []error
	indexed, err := u.ensureIndexed(ctx, doc, previous != nil, replaced)
	if err != nil {
		errs = append(errs, err)
	}
	patch := func(partial map[string]any) {
		if !indexed {
			return
		}
		err := u.index.Update(ctx, id, partial)
		metrics.IndexOperations.WithLabelValues("update", metrics.Status(err)).Inc()
		if err != nil {
			errs = append(errs, fmt.Errorf("update index entry %d: %w", id, err))
		}
	}

	if hasMimetype && mimetype == extract.MimePDF {
		fields, err := u.extractPDF(ctx, filename)
		if err != nil {
			errs = append(errs, err)
		}
		for _, field := range extract.PDFFields {
			value, ok := fields[field]
			if !ok {
				continue
			}
			key := extract.PDFMetaKey(field)
			rows = append(rows, model.NewMetadata(id, key, value))
			metrics.ExtractedFields.WithLabelValues(key).Inc()
			patch(map[string]any{"meta": map[string]any{key: value}})
		}
	}

	if extract.IsPlainText(ext) {
		data, err := blob.ReadAll(ctx, u.blobs, filename)
		if err != nil {
			metrics.BlobErrors.WithLabelValues("read").Inc()
			errs = append(errs, fmt.Errorf("read blob %s: %w", filename, err))
		} else {
			patch(map[string]any{"content": extract.NormalizeText(string(data))})
		}
	}

	var indexedMimetype any
	meta := map[string]any{model.MetaFilename: filename}
	if hasMimetype {
		indexedMimetype = mimetype
		meta[model.MetaMimeType] = mimetype
	}
	patch(map[string]any{
		"filename":      filename,
		"mimetype":      indexedMimetype,
		"orig_filename": file.Name,
		"meta":          meta,
	})

	err = u.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.DeleteMetadataByKey(ctx, id, replaced...); err != nil {
			return err
		}
		return tx.CreateMetadata(ctx, rows...)
	})
	if err != nil {
		return "", fmt.Errorf("commit upload of document %d: %w", id, err)
	}

	if previous != nil && previous.Value != filename {
		err := u.blobs.Remove(ctx, previous.Value)
		if err != nil && !errors.Is(err, blob.ErrNotFound) {
			metrics.BlobErrors.WithLabelValues("remove").Inc()
			errs = append(errs, fmt.Errorf("remove replaced blob %s: %w", previous.Value, err))
		}
	}

	metrics.Uploads.WithLabelValues(mimetype).Inc()
	logrus.Infof("uploaded %s for document %d", filename, id)

	return filename, errors.Join(errs...)
}

// ensureIndexed makes sure a full entry of doc exists before partial updates.
// When rebuild is set the entry is rewritten from the metadata rows, leaving out
// the replaced keys, so values of a previous upload do not linger in the index.
func (u *UploadService) ensureIndexed(ctx context.Context, doc *model.Document, rebuild bool, replaced []string) (bool, error) {
	if !rebuild {
		exists, err := u.index.Exists(ctx, doc.ID)
		if err != nil {
			return false, fmt.Errorf("check index entry %d: %w", doc.ID, err)
		}
		if exists {
			return true, nil
		}
	}

	rows, err := u.store.ListMetadata(ctx, doc.ID)
	if err != nil {
		return false, err
	}

	skip := mapset.NewThreadUnsafeSet(replaced...)
	kept := make([]*model.Metadata, 0, len(rows))
	for _, row := range rows {
		if !skip.Contains(row.Key) {
			kept = append(kept, row)
		}
	}

	if _, err := u.indexer.IndexDocument(ctx, doc, kept); err != nil {
		return false, err
	}

	return true, nil
}

// extractPDF returns the info fields of a stored PDF. Parse failures are logged, not returned.
func (u *UploadService) extractPDF(ctx context.Context, filename string) (map[string]string, error) {
	if u.pdf == nil {
		return nil, nil
	}

	data, err := blob.ReadAll(ctx, u.blobs, filename)
	if err != nil {
		metrics.BlobErrors.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("read blob %s: %w", filename, err)
	}

	fields, err := u.pdf.Extract(bytes.NewReader(data))
	if err != nil {
		logrus.Warnf("skipping pdf properties of %s: %v", filename, err)
		return nil, nil
	}

	return fields, nil
}
