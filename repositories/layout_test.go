package repositories

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kubescape/imagedb/core/domain"
	"github.com/kubescape/imagedb/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_CreateImage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.TODO()
	assert.False(t, s.ImagePresent(ctx, "img1"))
	require.NoError(t, s.CreateImage(ctx, "img1"))
	assert.True(t, s.ImagePresent(ctx, "img1"))

	want := []string{
		"analyzer_output/",
		"analyzer_output_extra/",
		"analyzer_output_user/",
		"gates_output/",
		"image_output/",
		"image_output/image_info/",
		"reports/",
	}
	got, err := tools.DirTree(filepath.Join(s.Root(), "img1"))
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStore_CreateImageIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.TODO()
	require.NoError(t, s.CreateImage(ctx, "img1"))
	writeFile(t, filepath.Join(s.Root(), "img1", "reports", "analysis_report.json"), `{"a": 1}`)
	before, err := tools.DirTree(s.Root())
	require.NoError(t, err)

	require.NoError(t, s.CreateImage(ctx, "img1"))
	after, err := tools.DirTree(s.Root())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, `{"a": 1}`, string(tools.FileContent(filepath.Join(s.Root(), "img1", "reports", "analysis_report.json"))))
}

func TestFileStore_DeleteImage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.TODO()
	assert.NoError(t, s.DeleteImage(ctx, "never-created"))

	require.NoError(t, s.CreateImage(ctx, "img1"))
	require.NoError(t, s.CreateImage(ctx, "img2"))
	require.NoError(t, s.DeleteImage(ctx, "img1"))
	assert.False(t, s.ImagePresent(ctx, "img1"))
	assert.True(t, s.ImagePresent(ctx, "img2"))
}

func TestFileStore_InvalidImageID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.TODO()
	for _, id := range []string{"", ".", "..", "../escape", "a/b", `a\b`} {
		t.Run(id, func(t *testing.T) {
			assert.True(t, errors.Is(s.CreateImage(ctx, id), domain.ErrInvalidImageID))
			assert.True(t, errors.Is(s.DeleteImage(ctx, id), domain.ErrInvalidImageID))
			assert.False(t, s.ImagePresent(ctx, id))
			_, err := s.LoadImageReport(ctx, id)
			assert.True(t, errors.Is(err, domain.ErrInvalidImageID))
		})
	}
}
