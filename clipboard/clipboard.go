package clipboard

import (
	"errors"
	"strings"

	cb "github.com/atotto/clipboard"
)

var ErrUnsupported = errors.New("no clipboard utility available (install xclip, xsel or wl-clipboard)")

// Available reports whether a system clipboard can be reached.
func Available() bool {
	return !cb.Unsupported
}

func Read() (string, error) {
	if !Available() {
		return "", ErrUnsupported
	}
	return cb.ReadAll()
}

// Copy puts text on the clipboard with surrounding whitespace trimmed.
func Copy(text string) error {
	if !Available() {
		return ErrUnsupported
	}
	return cb.WriteAll(strings.TrimSpace(text))
}
