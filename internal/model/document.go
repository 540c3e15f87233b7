package model

import (
	"time"
)

const (
	// TypeDocument marks a top level document.
	TypeDocument = "doc"
	// TypeAttachment marks a document owned by a parent document.
	TypeAttachment = "attach"
)

// Document is a node in the repository hierarchy.
// A nil Parent denotes a root document. ID 0 is never assigned and means "no document".
type Document struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Type      string    `gorm:"not null;default:doc" json:"type"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	DOI       string    `gorm:"column:doi" json:"doi"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
	Parent    *uint     `gorm:"index:idx_documents_parent" json:"parent,omitempty"`
}

func (Document) TableName() string {
	return "documents"
}

// IsRoot reports whether the document has no parent.
func (d *Document) IsRoot() bool {
	return d.Parent == nil
}

// FormatDate returns the creation time in the short form shown to users.
func (d *Document) FormatDate() string {
	return d.Timestamp.Format("2006-01-02 15:04")
}
