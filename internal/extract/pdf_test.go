package extract

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a single page PDF whose document info dictionary holds info.
func buildPDF(info string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>",
		info,
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func TestPDFInfo_Extract(t *testing.T) {
	tests := []struct {
		name string
		info string
		want map[string]string
	}{
		{
			name: "all fields",
			info: "<< /Producer (pdfTeX-1.40) /Creator (LaTeX) /Title (Literate Programming) /Keywords (knuth, web) /Subject (programming) >>",
			want: map[string]string{
				"Producer": "pdfTeX-1.40",
				"Creator":  "LaTeX",
				"Title":    "Literate Programming",
				"Keywords": "knuth, web",
				"Subject":  "programming",
			},
		},
		{
			name: "missing keywords",
			info: "<< /Producer (pdfTeX-1.40) /Title (Only Title) >>",
			want: map[string]string{
				"Producer": "pdfTeX-1.40",
				"Title":    "Only Title",
			},
		},
	}

	pdf := NewPDFInfo()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := pdf.Extract(bytes.NewReader(buildPDF(tt.info)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, fields)
		})
	}
}

func TestPDFInfo_Extract_Malformed(t *testing.T) {
	_, err := NewPDFInfo().Extract(strings.NewReader("this is not a pdf"))
	assert.Error(t, err)
}
