package feed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned when the configured charset name is not
// recognized. It is a destination-level error, distinct from an unwritable
// path, and never fatal to the rest of the batch.
var ErrUnknownEncoding = errors.New("unknown encoding")

// Writer persists a rendered document to its destination path in the
// configured character encoding.
type Writer struct{}

// NewWriter creates a new document writer
func NewWriter() *Writer {
	return &Writer{}
}

// Write encodes content with the named charset and writes it to path.
// A leading ~ in path expands to the user's home directory. Characters the
// target charset cannot represent are replaced rather than failing the
// whole document.
func (w *Writer) Write(path, charset, content string) error {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return fmt.Errorf("%w %q", ErrUnknownEncoding, charset)
	}

	fn, err := ExpandUser(path)
	if err != nil {
		return fmt.Errorf("resolve path %q: %w", path, err)
	}

	encoded, _, err := transform.String(encoding.ReplaceUnsupported(enc.NewEncoder()), content)
	if err != nil {
		return fmt.Errorf("encode document as %s: %w", charset, err)
	}

	if err := os.WriteFile(fn, []byte(encoded), 0o644); err != nil { //nolint:gosec // feed files are meant to be public
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

// ExpandUser substitutes a leading ~ with the current user's home directory
func ExpandUser(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
