package model

const (
	// MetaTag is repeatable, one row per tag.
	MetaTag = "tag"
	// MetaFilename holds the canonical blob name, at most one per document.
	MetaFilename = "filename"
	// MetaMimeType holds the blob mime type, at most one per document.
	MetaMimeType = "mimetype"
)

// Metadata is a key/value fact about a document.
type Metadata struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	DocumentID uint   `gorm:"column:document;not null;index:idx_metadata_document_key" json:"document"`
	Key        string `gorm:"not null;index:idx_metadata_document_key" json:"key"`
	Value      string `gorm:"not null" json:"value"`
}

func (Metadata) TableName() string {
	return "metadata"
}

func NewMetadata(documentID uint, key, value string) *Metadata {
	return &Metadata{
		DocumentID: documentID,
		Key:        key,
		Value:      value,
	}
}

// IsReserved reports whether key has a fixed meaning in the repository.
func IsReserved(key string) bool {
	switch key {
	case MetaTag, MetaFilename, MetaMimeType:
		return true
	}

	return false
}
