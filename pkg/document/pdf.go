package document

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
)

// headerWindow is how far into the file the %PDF- marker may appear.
const headerWindow = 1024

var pdfMagic = []byte("%PDF-")

type pdfDocument struct {
	r     *pdf.Reader
	data  []byte
	pages map[int][]line
}

// OpenPDF opens an unencrypted PDF (or one encrypted with an empty user
// password). Protected documents yield ErrProtectedDocument.
func OpenPDF(data []byte, name string) (Document, error) {
	return openPDF(data, name, nil)
}

// OpenPDFWithPassword opens a protected PDF with the supplied password.
func OpenPDFWithPassword(data []byte, name, password string) (Document, error) {
	tried := false
	return openPDF(data, name, func() string {
		// The reader keeps asking until it gets an empty string.
		if tried {
			return ""
		}
		tried = true
		return password
	})
}

// PasswordOpener returns an Opener bound to password.
func PasswordOpener(password string) Opener {
	return func(data []byte, name string) (Document, error) {
		return OpenPDFWithPassword(data, name, password)
	}
}

func openPDF(data []byte, name string, pw func() string) (doc Document, err error) {
	if err := checkFormat(data, name); err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			doc = nil
			err = fmt.Errorf("%w: open: %v", ErrResource, rec)
		}
	}()

	var r *pdf.Reader
	if pw == nil {
		r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	} else {
		r, err = pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), pw)
	}
	if err != nil {
		return nil, classifyOpenError(err)
	}

	return &pdfDocument{r: r, data: data, pages: make(map[int][]line)}, nil
}

func checkFormat(data []byte, name string) error {
	if name != "" {
		if ext := strings.ToLower(filepath.Ext(name)); ext != ".pdf" {
			return fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
		}
	}
	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	if !bytes.Contains(window, pdfMagic) {
		return fmt.Errorf("%w: missing PDF header", ErrUnsupportedFormat)
	}
	return nil
}

func classifyOpenError(err error) error {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return fmt.Errorf("%w: %v", ErrProtectedDocument, err)
	}
	msg := strings.ToLower(err.Error())
	// The reader only accepts a %PDF-1.0 to %PDF-1.7 header at offset 0.
	if strings.Contains(msg, "not a pdf file: invalid header") {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") {
		return fmt.Errorf("%w: %v", ErrProtectedDocument, err)
	}
	return fmt.Errorf("%w: %v", ErrResource, err)
}

func (d *pdfDocument) PageCount() int {
	if d.r == nil {
		return 0
	}
	return d.r.NumPage()
}

func (d *pdfDocument) Tables(page int) ([]Table, error) {
	lines, err := d.lines(page)
	if err != nil {
		return nil, err
	}
	return layoutTables(lines), nil
}

func (d *pdfDocument) Text(page int) (string, error) {
	lines, err := d.lines(page)
	if err != nil {
		return "", err
	}
	return linesText(lines), nil
}

func (d *pdfDocument) Close() error {
	if d.r == nil {
		return fmt.Errorf("%w: document already closed", ErrResource)
	}
	d.r = nil
	d.data = nil
	d.pages = nil
	return nil
}

func (d *pdfDocument) lines(page int) (lines []line, err error) {
	if d.r == nil {
		return nil, fmt.Errorf("%w: document closed", ErrResource)
	}
	if page < 0 || page >= d.r.NumPage() {
		return nil, fmt.Errorf("%w: page %d out of range", ErrResource, page)
	}
	if cached, ok := d.pages[page]; ok {
		return cached, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			lines = nil
			err = fmt.Errorf("%w: page %d: %v", ErrResource, page, rec)
		}
	}()

	p := d.r.Page(page + 1)
	if p.V.IsNull() {
		d.pages[page] = nil
		return nil, nil
	}

	content := p.Content()
	glyphs := make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, glyph{X: t.X, Y: t.Y, W: t.W, Size: t.FontSize, S: t.S})
	}

	lines = layoutLines(glyphs)
	d.pages[page] = lines
	return lines, nil
}
