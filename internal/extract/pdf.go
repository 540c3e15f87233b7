package extract

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
)

// PDFFields are the document info entries copied into metadata, in extraction order.
var PDFFields = []string{"Producer", "Creator", "Title", "Keywords", "Subject"}

// PDFMetaKey returns the metadata key for a document info field, e.g. "pdf.title".
func PDFMetaKey(field string) string {
	return "pdf." + strings.ToLower(field)
}

// Extractor reads document properties from a payload.
// The returned map holds only the fields that were present and decodable.
type Extractor interface {
	Extract(r io.ReadSeeker) (map[string]string, error)
}

var _ Extractor = (*PDFInfo)(nil)

// PDFInfo extracts the document info dictionary of a PDF.
type PDFInfo struct {
	conf *model.Configuration
}

func NewPDFInfo() *PDFInfo {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	return &PDFInfo{conf: conf}
}

func (p *PDFInfo) Extract(r io.ReadSeeker) (map[string]string, error) {
	ctx, err := api.ReadAndValidate(r, p.conf)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	raw := map[string]string{
		"Producer": ctx.Producer,
		"Creator":  ctx.Creator,
		"Title":    ctx.Title,
		"Keywords": ctx.Keywords,
		"Subject":  ctx.Subject,
	}

	fields := make(map[string]string, len(raw))
	for _, field := range PDFFields {
		value, ok := DecodeText(raw[field])
		if !ok {
			logrus.Debugf("pdf info field %s skipped", field)
			continue
		}
		fields[field] = value
	}

	return fields, nil
}

// DecodeText validates an info value. Empty values count as absent.
func DecodeText(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" || !utf8.ValidString(value) {
		return "", false
	}

	return value, true
}
