package ports

import (
	"context"

	"github.com/kubescape/imagedb/core/domain"
)

// ImageService is the port implemented by the business component ImageService
type ImageService interface {
	DeleteImage(ctx context.Context, imageID string) error
	ImageList(ctx context.Context) (map[string][]string, error)
	IsAnalyzed(ctx context.Context, imageID string) bool
	ListGateOutputs(ctx context.Context, imageID string) (map[string][]string, error)
	LoadAnalysisOutput(ctx context.Context, imageID, moduleName, moduleValue string, variant domain.Variant) (domain.AnalysisOutput, error)
	LoadImage(ctx context.Context, imageID string) (domain.ImageBundle, error)
	Ready(ctx context.Context) bool
	SaveImage(ctx context.Context, imageID string, bundle domain.ImageBundle) error
}
