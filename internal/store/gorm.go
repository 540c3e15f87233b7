package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/emrgen/knuth/internal/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	return g.db.WithContext(ctx).Create(doc).Error
}

func (g *GormStore) GetDocument(ctx context.Context, id uint) (*model.Document, error) {
	var doc model.Document
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %d: %w", id, ErrDocumentNotFound)
		}
		return nil, err
	}

	return &doc, nil
}

func (g *GormStore) ExistsDocument(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (g *GormStore) ListDocuments(ctx context.Context) ([]*model.Document, error) {
	var docs []*model.Document
	err := g.db.WithContext(ctx).Order("id asc").Find(&docs).Error
	return docs, err
}

func (g *GormStore) ListChildren(ctx context.Context, parent uint) ([]*model.Document, error) {
	var docs []*model.Document
	err := g.db.WithContext(ctx).Where("parent = ?", parent).Order("id asc").Find(&docs).Error
	return docs, err
}

func (g *GormStore) UpdateDocument(ctx context.Context, id uint, columns map[string]any) error {
	if len(columns) == 0 {
		return nil
	}

	res := g.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return res.Error
	}

	// sqlite reports zero affected rows when the values did not change, so check existence separately
	if res.RowsAffected == 0 {
		exists, err := g.ExistsDocument(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("document %d: %w", id, ErrDocumentNotFound)
		}
	}

	return nil
}

func (g *GormStore) DeleteDocument(ctx context.Context, id uint) error {
	return g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Document{}).Error
}

func (g *GormStore) CreateMetadata(ctx context.Context, rows ...*model.Metadata) error {
	if len(rows) == 0 {
		return nil
	}

	return g.db.WithContext(ctx).Create(rows).Error
}

func (g *GormStore) ListMetadata(ctx context.Context, docID uint) ([]*model.Metadata, error) {
	var rows []*model.Metadata
	err := g.db.WithContext(ctx).Where("document = ?", docID).Order("id asc").Find(&rows).Error
	return rows, err
}

func (g *GormStore) GetMetadata(ctx context.Context, docID uint, key string) (*model.Metadata, error) {
	var row model.Metadata
	err := g.db.WithContext(ctx).Where(map[string]any{"document": docID, "key": key}).Order("id asc").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("metadata %s of document %d: %w", key, docID, ErrMetadataNotFound)
		}
		return nil, err
	}

	return &row, nil
}

func (g *GormStore) DeleteMetadata(ctx context.Context, id uint) error {
	return g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Metadata{}).Error
}

func (g *GormStore) DeleteMetadataByKey(ctx context.Context, docID uint, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return g.db.WithContext(ctx).Where(map[string]any{"document": docID, "key": keys}).Delete(&model.Metadata{}).Error
}

func (g *GormStore) Migrate() error {
	logrus.Debug("migrating document tables")
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
