package term

import (
	"errors"

	"github.com/atotto/clipboard"

	"github.com/dshills/xifront/internal/core"
)

// ErrClipboardUnsupported means no clipboard utility was found.
var ErrClipboardUnsupported = errors.New("system clipboard unsupported")

// SystemClipboard is the operating system clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnsupported
	}
	return clipboard.WriteAll(text)
}

func (SystemClipboard) ReadText() (string, error) {
	if clipboard.Unsupported {
		return "", ErrClipboardUnsupported
	}
	return clipboard.ReadAll()
}

// MemoryClipboard holds text in process. It stands in for the system
// clipboard where none is available.
type MemoryClipboard struct {
	text string
}

func (m *MemoryClipboard) WriteText(text string) error {
	m.text = text
	return nil
}

func (m *MemoryClipboard) ReadText() (string, error) {
	return m.text, nil
}

// DefaultClipboard returns the system clipboard when it is usable and an
// in-process one otherwise.
func DefaultClipboard() core.Clipboard {
	if clipboard.Unsupported {
		return &MemoryClipboard{}
	}
	return SystemClipboard{}
}
