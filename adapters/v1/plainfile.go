package v1

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/kubescape/imagedb/core/ports"
)

// PlainFile reads and writes files holding one entry per line
type PlainFile struct{}

var _ ports.ListCodec = (*PlainFile)(nil)

func NewPlainFile() *PlainFile {
	return &PlainFile{}
}

// ReadLines returns the lines of path without their terminators.
// A missing file reads as an empty list.
func (PlainFile) ReadLines(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	content := strings.TrimSuffix(strings.ReplaceAll(string(b), "\r\n", "\n"), "\n")
	if content == "" {
		return []string{}, nil
	}
	return strings.Split(content, "\n"), nil
}

// WriteLines overwrites path with lines, each newline-terminated.
func (PlainFile) WriteLines(path string, lines []string) error {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// WriteString overwrites path with s verbatim.
func (PlainFile) WriteString(path, s string) error {
	return os.WriteFile(path, []byte(s), 0644)
}
