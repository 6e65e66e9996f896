package tools

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"sort"
)

// SoftwareVersion returns the main module version recorded in the binary, or
// fallback when the binary was built without module information.
func SoftwareVersion(fallback string) string {
	bi, ok := debug.ReadBuildInfo()
	if ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return fallback
}

func FileContent(path string) []byte {
	b, _ := os.ReadFile(path)
	return b
}

func DeleteContents(dir string) error {
	d, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, c := range d {
		err := os.RemoveAll(path.Join([]string{dir, c.Name()}...))
		if err != nil {
			return err
		}
	}
	return nil
}

// DirTree lists every path below root, relative and slash-separated, directories
// suffixed with "/", sorted.
func DirTree(root string) ([]string, error) {
	var ret []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			rel += "/"
		}
		ret = append(ret, rel)
		return nil
	})
	sort.Strings(ret)
	return ret, err
}
