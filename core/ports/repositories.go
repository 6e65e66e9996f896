package ports

import (
	"context"
	"iter"

	"github.com/kubescape/imagedb/core/domain"
)

// ImageRepository is the port implemented by adapters to be used in ImageService to
// persist image reports, analyzer manifests and per-module outputs
type ImageRepository interface {
	Version() domain.VersionRecord

	CreateImage(ctx context.Context, imageID string) error
	DeleteImage(ctx context.Context, imageID string) error
	ImagePresent(ctx context.Context, imageID string) bool
	ImageList(ctx context.Context) (map[string][]string, error)
	Images(ctx context.Context) iter.Seq2[string, domain.ImageReport]

	LoadImageBundle(ctx context.Context, imageID string) (domain.ImageBundle, error)
	SaveImageBundle(ctx context.Context, imageID string, bundle domain.ImageBundle) error
	LoadImageReport(ctx context.Context, imageID string) (domain.ImageReport, error)
	SaveImageReport(ctx context.Context, imageID string, report domain.ImageReport) error

	LoadAnalyzerManifest(ctx context.Context, imageID string) (domain.AnalyzerManifest, error)
	IsAnalyzed(ctx context.Context, imageID string) bool
	ListAnalysisOutputs(ctx context.Context, imageID string) (map[string]map[string]bool, error)
	LoadAnalysisOutput(ctx context.Context, imageID, moduleName, moduleValue string, variant domain.Variant) (domain.AnalysisOutput, error)

	ListGateOutputs(ctx context.Context, imageID string) ([]string, error)
	LoadGateOutput(ctx context.Context, imageID, gateName string) ([]string, error)
}
