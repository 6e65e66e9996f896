package repositories

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kubescape/go-logger"
	v1 "github.com/kubescape/imagedb/adapters/v1"
	"github.com/kubescape/imagedb/internal/tools"
)

const softwareVersion = "1.4.2"

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return openTestStore(t, t.TempDir())
}

func openTestStore(t *testing.T, root string) *FileStore {
	t.Helper()
	s, err := NewFileStore(context.TODO(), root, softwareVersion, logger.L(), v1.NewKVFile(), v1.NewPlainFile(), v1.NewTarGzArchiver())
	tools.EnsureSetup(t, err == nil)
	return s
}

// sequenceClock returns the given unix times in order, repeating the last one.
func sequenceClock(times ...int64) func() time.Time {
	i := 0
	return func() time.Time {
		ts := times[min(i, len(times)-1)]
		i++
		return time.Unix(ts, 0)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	tools.EnsureSetup(t, os.MkdirAll(filepath.Dir(path), 0755) == nil)
	tools.EnsureSetup(t, os.WriteFile(path, []byte(content), 0644) == nil)
}
