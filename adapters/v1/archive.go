package v1

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/kubescape/imagedb/core/ports"
)

// TarGzArchiver packages a directory's children into a gzip-compressed PAX tar stream
type TarGzArchiver struct {
	level int
}

var _ ports.Archiver = (*TarGzArchiver)(nil)

func NewTarGzArchiver() *TarGzArchiver {
	return &TarGzArchiver{level: gzip.DefaultCompression}
}

// ArchiveDir walks dir and returns the archive in memory. Entry names are
// relative to dir, so each immediate child is a top-level entry.
func (a *TarGzArchiver) ArchiveDir(dir string) (io.Reader, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, a.level)
	if err != nil {
		return nil, err
	}
	tw := tar.NewWriter(gz)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		return addEntry(tw, dir, path, d)
	})
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", dir, err)
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

func addEntry(tw *tar.Writer, root, path string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	link := ""
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return err
		}
	}
	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return err
	}
	hdr.Name = filepath.ToSlash(rel)
	if info.IsDir() {
		hdr.Name += "/"
	}
	hdr.Format = tar.FormatPAX
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}
