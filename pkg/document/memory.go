package document

import "fmt"

// Page is the structured content of one in-memory page.
type Page struct {
	Tables []Table
	Text   string
}

// Memory is a Document held entirely in memory.
type Memory struct {
	Pages []Page

	// ReadErr, when set, is returned by Tables and Text.
	ReadErr error
	// CloseErr, when set, is returned by Close.
	CloseErr error

	closed bool
}

// NewMemory returns a Memory document with the given pages.
func NewMemory(pages ...Page) *Memory {
	return &Memory{Pages: pages}
}

func (m *Memory) PageCount() int { return len(m.Pages) }

func (m *Memory) Tables(page int) ([]Table, error) {
	if err := m.check(page); err != nil {
		return nil, err
	}
	return m.Pages[page].Tables, nil
}

func (m *Memory) Text(page int) (string, error) {
	if err := m.check(page); err != nil {
		return "", err
	}
	return m.Pages[page].Text, nil
}

func (m *Memory) Close() error {
	m.closed = true
	return m.CloseErr
}

// Closed reports whether Close has been called.
func (m *Memory) Closed() bool { return m.closed }

func (m *Memory) check(page int) error {
	if m.ReadErr != nil {
		return m.ReadErr
	}
	if page < 0 || page >= len(m.Pages) {
		return fmt.Errorf("%w: page %d out of range", ErrResource, page)
	}
	return nil
}

// Opener returns an Opener that always yields m, ignoring its input.
func (m *Memory) Opener() Opener {
	return func([]byte, string) (Document, error) { return m, nil }
}
