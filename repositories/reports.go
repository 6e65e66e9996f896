package repositories

import (
	"context"
	"fmt"

	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/imagedb/core/domain"
	"go.opentelemetry.io/otel"
)

// loadReport returns the report stored under reports/name, or an empty report.
func (s *FileStore) loadReport(ctx context.Context, imageID, name string) (domain.Report, error) {
	path, err := s.imagePath(imageID, reportsDir, name)
	if err != nil {
		return domain.Report{}, err
	}
	var report domain.Report
	if !s.readJSON(ctx, path, &report) || report == nil {
		return domain.Report{}, nil
	}
	return report, nil
}

func (s *FileStore) saveReport(ctx context.Context, imageID, name string, report domain.Report) error {
	path, err := s.imagePath(imageID, reportsDir, name)
	if err != nil {
		return err
	}
	if report == nil {
		report = domain.Report{}
	}
	if err := writeJSON(path, report); err != nil {
		return fmt.Errorf("save %s for %s: %w", name, imageID, err)
	}
	s.logger.Ctx(ctx).Debug("report saved", helpers.String("imageID", imageID), helpers.String("report", name))
	return nil
}

// LoadAnalysisReport returns the analysis report, or an empty one when it is absent or unreadable.
func (s *FileStore) LoadAnalysisReport(ctx context.Context, imageID string) (domain.Report, error) {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.LoadAnalysisReport")
	defer span.End()
	return s.loadReport(ctx, imageID, analysisFile)
}

func (s *FileStore) SaveAnalysisReport(ctx context.Context, imageID string, report domain.Report) error {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.SaveAnalysisReport")
	defer span.End()
	return s.saveReport(ctx, imageID, analysisFile, report)
}

func (s *FileStore) LoadGatesReport(ctx context.Context, imageID string) (domain.Report, error) {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.LoadGatesReport")
	defer span.End()
	return s.loadReport(ctx, imageID, gatesFile)
}

func (s *FileStore) SaveGatesReport(ctx context.Context, imageID string, report domain.Report) error {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.SaveGatesReport")
	defer span.End()
	return s.saveReport(ctx, imageID, gatesFile, report)
}

func (s *FileStore) LoadGatesEvalReport(ctx context.Context, imageID string) (domain.Report, error) {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.LoadGatesEvalReport")
	defer span.End()
	return s.loadReport(ctx, imageID, gatesEvalFile)
}

func (s *FileStore) SaveGatesEvalReport(ctx context.Context, imageID string, report domain.Report) error {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.SaveGatesEvalReport")
	defer span.End()
	return s.saveReport(ctx, imageID, gatesEvalFile, report)
}

// LoadImageReport returns the image report, or an empty one when it is absent or unreadable.
func (s *FileStore) LoadImageReport(ctx context.Context, imageID string) (domain.ImageReport, error) {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.LoadImageReport")
	defer span.End()
	if err := validateName(imageID); err != nil {
		return domain.ImageReport{}, err
	}
	report, _ := s.loadImageReport(ctx, imageID)
	return report, nil
}

// loadImageReport also reports whether a readable report was on disk.
func (s *FileStore) loadImageReport(ctx context.Context, imageID string) (domain.ImageReport, bool) {
	path, err := s.imagePath(imageID, reportsDir, imageReportFile)
	if err != nil {
		return domain.ImageReport{}, false
	}
	var report domain.ImageReport
	if !s.readJSON(ctx, path, &report) {
		return domain.ImageReport{}, false
	}
	return report, true
}

// LoadAnalyzerManifest returns the analyzers.done manifest, or an empty one.
func (s *FileStore) LoadAnalyzerManifest(ctx context.Context, imageID string) (domain.AnalyzerManifest, error) {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.LoadAnalyzerManifest")
	defer span.End()
	path, err := s.imagePath(imageID, manifestFile)
	if err != nil {
		return domain.AnalyzerManifest{}, err
	}
	var manifest domain.AnalyzerManifest
	if !s.readJSON(ctx, path, &manifest) || manifest == nil {
		return domain.AnalyzerManifest{}, nil
	}
	return manifest, nil
}

// SaveAnalyzerManifest writes the manifest; an empty manifest is not written.
func (s *FileStore) SaveAnalyzerManifest(ctx context.Context, imageID string, manifest domain.AnalyzerManifest) error {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.SaveAnalyzerManifest")
	defer span.End()
	path, err := s.imagePath(imageID, manifestFile)
	if err != nil {
		return err
	}
	if len(manifest) == 0 {
		s.logger.Ctx(ctx).Debug("skipping empty analyzer manifest", helpers.String("imageID", imageID))
		return nil
	}
	if err := writeJSON(path, manifest); err != nil {
		return fmt.Errorf("save analyzer manifest for %s: %w", imageID, err)
	}
	return nil
}

// IsAnalyzed reports whether every analyzer in the manifest succeeded.
func (s *FileStore) IsAnalyzed(ctx context.Context, imageID string) bool {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.IsAnalyzed")
	defer span.End()
	manifest, err := s.LoadAnalyzerManifest(ctx, imageID)
	if err != nil {
		return false
	}
	return manifest.Complete()
}
