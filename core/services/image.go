package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DmitriyVTitov/size"
	"github.com/akyoto/cache"
	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/imagedb/core/domain"
	"github.com/kubescape/imagedb/core/ports"
	"go.opentelemetry.io/otel"
)

const imageListKey = "imageList"

// ImageService implements ImageService from ports, this is the business component
// business logic should be independent of implementations
//
// Writes go through a single worker so the store only ever sees one writer.
type ImageService struct {
	repository    ports.ImageRepository
	workerPool    *workerpool.WorkerPool
	listCache     *cache.Cache
	cacheTTL      time.Duration
	maxBundleSize int
	// cacheMu guards the list cache entry together with generation, which every
	// write bumps so a list read before the write is never cached after it
	cacheMu    sync.Mutex
	generation uint64
}

var _ ports.ImageService = (*ImageService)(nil)

// NewImageService initializes the ImageService with all injected dependencies
// a maxBundleSize of 0 disables the size check, a cacheTTL of 0 disables list caching
func NewImageService(repository ports.ImageRepository, maxBundleSize int, cacheTTL time.Duration) *ImageService {
	return &ImageService{
		repository:    repository,
		workerPool:    workerpool.New(1),
		listCache:     cache.New(time.Minute),
		cacheTTL:      cacheTTL,
		maxBundleSize: maxBundleSize,
	}
}

// Ready reports whether the store was opened and the write queue accepts jobs
func (s *ImageService) Ready(context.Context) bool {
	return s.repository.Version().SchemaVersion != "" && !s.workerPool.Stopped()
}

// ImageList returns every analyzed image with its tags, served from cache when fresh
func (s *ImageService) ImageList(ctx context.Context) (map[string][]string, error) {
	ctx, span := otel.Tracer("").Start(ctx, "ImageService.ImageList")
	defer span.End()
	if cached, ok := s.listCache.Get(imageListKey); ok {
		return cached.(map[string][]string), nil
	}
	s.cacheMu.Lock()
	generation := s.generation
	s.cacheMu.Unlock()

	list, err := s.repository.ImageList(ctx)
	if err != nil {
		return nil, err
	}
	if s.cacheTTL > 0 {
		s.cacheMu.Lock()
		if s.generation == generation {
			s.listCache.Set(imageListKey, list, s.cacheTTL)
		}
		s.cacheMu.Unlock()
	}
	return list, nil
}

// invalidateList drops the cached list and marks in-flight list reads as stale
func (s *ImageService) invalidateList() {
	s.cacheMu.Lock()
	s.generation++
	s.listCache.Delete(imageListKey)
	s.cacheMu.Unlock()
}

// LoadImage returns all documents of a stored image
func (s *ImageService) LoadImage(ctx context.Context, imageID string) (domain.ImageBundle, error) {
	ctx, span := otel.Tracer("").Start(ctx, "ImageService.LoadImage")
	defer span.End()
	if !s.repository.ImagePresent(ctx, imageID) {
		return domain.ImageBundle{}, fmt.Errorf("%w: %s", domain.ErrImageNotFound, imageID)
	}
	return s.repository.LoadImageBundle(ctx, imageID)
}

// SaveImage checks the bundle size and queues the write, waiting for it to complete
func (s *ImageService) SaveImage(ctx context.Context, imageID string, bundle domain.ImageBundle) error {
	ctx, span := otel.Tracer("").Start(ctx, "ImageService.SaveImage")
	defer span.End()
	if s.maxBundleSize > 0 {
		if sz := size.Of(bundle); sz > s.maxBundleSize {
			logger.L().Ctx(ctx).Warning("image bundle too large",
				helpers.String("imageID", imageID),
				helpers.Int("size", sz),
				helpers.Int("maxBundleSize", s.maxBundleSize))
			return fmt.Errorf("%w: %d > %d bytes", domain.ErrBundleTooLarge, sz, s.maxBundleSize)
		}
	}
	return s.write(ctx, "save", imageID, func(ctx context.Context) error {
		return s.repository.SaveImageBundle(ctx, imageID, bundle)
	})
}

// DeleteImage queues the removal of the image subtree
func (s *ImageService) DeleteImage(ctx context.Context, imageID string) error {
	ctx, span := otel.Tracer("").Start(ctx, "ImageService.DeleteImage")
	defer span.End()
	if !s.repository.ImagePresent(ctx, imageID) {
		return fmt.Errorf("%w: %s", domain.ErrImageNotFound, imageID)
	}
	return s.write(ctx, "delete", imageID, func(ctx context.Context) error {
		return s.repository.DeleteImage(ctx, imageID)
	})
}

func (s *ImageService) IsAnalyzed(ctx context.Context, imageID string) bool {
	ctx, span := otel.Tracer("").Start(ctx, "ImageService.IsAnalyzed")
	defer span.End()
	return s.repository.IsAnalyzed(ctx, imageID)
}

func (s *ImageService) LoadAnalysisOutput(ctx context.Context, imageID, moduleName, moduleValue string, variant domain.Variant) (domain.AnalysisOutput, error) {
	ctx, span := otel.Tracer("").Start(ctx, "ImageService.LoadAnalysisOutput")
	defer span.End()
	return s.repository.LoadAnalysisOutput(ctx, imageID, moduleName, moduleValue, variant)
}

// ListGateOutputs returns the lines of every gate output stored for the image
func (s *ImageService) ListGateOutputs(ctx context.Context, imageID string) (map[string][]string, error) {
	ctx, span := otel.Tracer("").Start(ctx, "ImageService.ListGateOutputs")
	defer span.End()
	names, err := s.repository.ListGateOutputs(ctx, imageID)
	if err != nil {
		return nil, err
	}
	ret := make(map[string][]string, len(names))
	for _, name := range names {
		lines, err := s.repository.LoadGateOutput(ctx, imageID, name)
		if err != nil {
			return nil, err
		}
		ret[name] = lines
	}
	return ret, nil
}

// Shutdown waits for queued writes to finish and stops the write queue
func (s *ImageService) Shutdown() {
	logger.L().Info("purging image service write queue", helpers.Int("remainingJobs", s.workerPool.WaitingQueueSize()))
	s.workerPool.StopWait()
	s.listCache.Close()
}

// write runs job on the single worker and invalidates the list cache
func (s *ImageService) write(ctx context.Context, op, imageID string, job func(context.Context) error) error {
	if s.workerPool.Stopped() {
		return domain.ErrServiceStopped
	}
	jobID := uuid.NewString()
	var err error
	s.workerPool.SubmitWait(func() {
		logger.L().Ctx(ctx).Debug("write job started",
			helpers.String("jobID", jobID),
			helpers.String("op", op),
			helpers.String("imageID", imageID))
		err = job(ctx)
		s.invalidateList()
	})
	if err != nil {
		logger.L().Ctx(ctx).Error("write job failed",
			helpers.String("jobID", jobID),
			helpers.String("op", op),
			helpers.String("imageID", imageID),
			helpers.Error(err))
		return err
	}
	logger.L().Ctx(ctx).Debug("write job done", helpers.String("jobID", jobID))
	return nil
}
