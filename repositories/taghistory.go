package repositories

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/imagedb/core/domain"
	"go.opentelemetry.io/otel"
)

// SaveImageReport writes image.meta and the image report. On every save the tag
// history of the previous report is carried forward and, when the current tag set
// changed, the previous tag set is archived under the current timestamp.
//
// The read-modify-write of the previous report is not protected against
// concurrent writers of the same image.
func (s *FileStore) SaveImageReport(ctx context.Context, imageID string, report domain.ImageReport) error {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.SaveImageReport")
	defer span.End()
	dir, err := s.imageDir(imageID)
	if err != nil {
		return err
	}

	if report.Meta != nil {
		infoDir := filepath.Join(dir, filepath.FromSlash(imageInfoDir))
		if err := os.MkdirAll(infoDir, 0755); err != nil {
			return fmt.Errorf("create image info dir for %s: %w", imageID, err)
		}
		if err := s.kv.WriteKV(filepath.Join(infoDir, imageMetaFile), report.Meta); err != nil {
			return fmt.Errorf("write image meta for %s: %w", imageID, err)
		}
	}

	report = s.reconcileTagHistory(ctx, imageID, report)
	if err := writeJSON(filepath.Join(dir, reportsDir, imageReportFile), report); err != nil {
		return fmt.Errorf("save image report for %s: %w", imageID, err)
	}
	s.logger.Ctx(ctx).Debug("image report saved", helpers.String("imageID", imageID), helpers.Int("tagHistory", len(report.TagHistory)))
	return nil
}

func (s *FileStore) reconcileTagHistory(ctx context.Context, imageID string, report domain.ImageReport) domain.ImageReport {
	now := strconv.FormatInt(s.now().Unix(), 10)

	history := append([]domain.TagHistoryEntry{}, report.TagHistory...)
	if previous, found := s.loadImageReport(ctx, imageID); found {
		history = append([]domain.TagHistoryEntry{}, previous.TagHistory...)
		if tagsChanged(previous.CurrentTags, report.CurrentTags) {
			history = append(history, domain.TagHistoryEntry{Timestamp: now, Tags: cloneTags(previous.CurrentTags)})
		}
	}
	if len(history) == 0 {
		history = append(history, domain.TagHistoryEntry{Timestamp: now, Tags: cloneTags(report.CurrentTags)})
	}
	report.TagHistory = history
	return report
}

// tagsChanged compares tag lists as sets; an absent list is the empty set.
func tagsChanged(previous, current []string) bool {
	diff := mapset.NewThreadUnsafeSet(previous...).SymmetricDifference(mapset.NewThreadUnsafeSet(current...))
	return diff.Cardinality() > 0
}

func cloneTags(tags []string) []string {
	return append([]string{}, tags...)
}
