package ports

import "io"

// KVCodec is the port implemented by adapters to read and write flat key-value files
type KVCodec interface {
	ReadKV(path string) (map[string]string, error)
	WriteKV(path string, data map[string]string) error
}

// ListCodec is the port implemented by adapters to read and write line-list files
type ListCodec interface {
	ReadLines(path string) ([]string, error)
	WriteLines(path string, lines []string) error
	WriteString(path, s string) error
}

// Archiver is the port implemented by adapters to package an output directory
// into a compressed in-memory stream
type Archiver interface {
	ArchiveDir(dir string) (io.Reader, error)
}
