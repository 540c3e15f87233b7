package extract

import "strings"

const MimePDF = "application/pdf"

// mimeTypes is a fixed extension table so lookups do not depend on the host's mime database.
var mimeTypes = map[string]string{
	"pdf":   MimePDF,
	"ps":    "application/postscript",
	"eps":   "application/postscript",
	"dvi":   "application/x-dvi",
	"tex":   "application/x-tex",
	"latex": "application/x-latex",
	"txt":   "text/plain",
	"text":  "text/plain",
	"csv":   "text/csv",
	"md":    "text/markdown",
	"htm":   "text/html",
	"html":  "text/html",
	"xml":   "text/xml",
	"json":  "application/json",
	"rtf":   "application/rtf",
	"doc":   "application/msword",
	"docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"odt":   "application/vnd.oasis.opendocument.text",
	"epub":  "application/epub+zip",
	"djvu":  "image/vnd.djvu",
	"zip":   "application/zip",
	"tar":   "application/x-tar",
	"png":   "image/png",
	"jpg":   "image/jpeg",
	"jpeg":  "image/jpeg",
	"gif":   "image/gif",
	"svg":   "image/svg+xml",
}

// MimeType looks up the mime type of a file extension given without the leading dot.
func MimeType(ext string) (string, bool) {
	mimetype, ok := mimeTypes[strings.ToLower(ext)]
	return mimetype, ok
}
