// Package export produces the downloadable plain-text script.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// File name and media type of the exported script.
const (
	FileName = "echoverse_script.txt"
	MIMEType = "text/plain"
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("nothing to export")

// Blob is an in-memory file ready to be saved or copied.
type Blob struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the blob size in bytes.
func (b Blob) Size() uint64 {
	return uint64(len(b.Data))
}

// Export wraps text, byte for byte, into a Blob.
func Export(text string) (Blob, error) {
	if strings.TrimSpace(text) == "" {
		return Blob{}, ErrEmpty
	}
	return Blob{
		Name:     FileName,
		MIMEType: MIMEType,
		Data:     []byte(text),
	}, nil
}

// Save writes b into dir, creating dir if needed, and returns the file path.
// An empty dir means the working directory; a leading "~" is expanded.
func Save(dir string, b Blob) (string, error) {
	if b.Name == "" {
		return "", errors.New("blob has no name")
	}
	if dir == "" {
		dir = "."
	}
	dir, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("expand export dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, b.Name)
	if err := os.WriteFile(path, b.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", b.Name, err)
	}
	return path, nil
}
