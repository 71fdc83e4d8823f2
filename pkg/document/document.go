// Package document exposes statement files as pages of tables and text lines.
// The PDF implementation segments positioned glyphs into rows and cells; the
// in-memory implementation backs tests and callers that already hold
// structured content.
package document

import (
	"errors"
)

var (
	// ErrUnsupportedFormat is returned when the input is not a PDF document.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrProtectedDocument is returned for password-protected documents that
	// could not be opened with the supplied credentials.
	ErrProtectedDocument = errors.New("document is password protected")
	// ErrResource is returned when the document could not be read or released.
	ErrResource = errors.New("document read failure")
)

// Table is a grid of cell strings, row major. Rows may be ragged.
type Table [][]string

// Document is an opened statement. Pages are indexed from zero.
type Document interface {
	PageCount() int
	Tables(page int) ([]Table, error)
	Text(page int) (string, error)
	Close() error
}

// Opener opens raw bytes into a Document. name is the declared filename and
// may be empty.
type Opener func(data []byte, name string) (Document, error)

// FullText concatenates the text of every page, separated by newlines.
func FullText(doc Document) (string, error) {
	var out []byte
	for i := 0; i < doc.PageCount(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", err
		}
		if len(out) > 0 {
			out = append(out, '\n')
		}
		out = append(out, text...)
	}
	return string(out), nil
}
