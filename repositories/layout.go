package repositories

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kubescape/go-logger/helpers"
	"go.opentelemetry.io/otel"
)

var imageSubdirs = []string{
	"analyzer_output",
	"analyzer_output_extra",
	"analyzer_output_user",
	gatesOutputDir,
	imageInfoDir,
	reportsDir,
}

// CreateImage materializes the directory layout of an image. It is idempotent
// and never removes existing content.
func (s *FileStore) CreateImage(ctx context.Context, imageID string) error {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.CreateImage")
	defer span.End()
	dir, err := s.imageDir(imageID)
	if err != nil {
		return err
	}
	for _, sub := range imageSubdirs {
		if err := os.MkdirAll(filepath.Join(dir, filepath.FromSlash(sub)), 0755); err != nil {
			return fmt.Errorf("create image layout for %s: %w", imageID, err)
		}
	}
	s.logger.Ctx(ctx).Debug("image layout ready", helpers.String("imageID", imageID))
	return nil
}

// DeleteImage removes the whole image subtree; deleting an absent image succeeds.
func (s *FileStore) DeleteImage(ctx context.Context, imageID string) error {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.DeleteImage")
	defer span.End()
	dir, err := s.imageDir(imageID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete image %s: %w", imageID, err)
	}
	s.logger.Ctx(ctx).Debug("image deleted", helpers.String("imageID", imageID))
	return nil
}

// ImagePresent reports whether the image directory exists.
func (s *FileStore) ImagePresent(ctx context.Context, imageID string) bool {
	_, span := otel.Tracer("").Start(ctx, "FileStore.ImagePresent")
	defer span.End()
	dir, err := s.imageDir(imageID)
	if err != nil {
		return false
	}
	_, err = os.Stat(dir)
	return err == nil
}
