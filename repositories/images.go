package repositories

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/imagedb/core/domain"
	"go.opentelemetry.io/otel"
)

// imageDirs lists the subdirectories of the store root, skipping invalid names.
func (s *FileStore) imageDirs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list image store %s: %w", s.root, err)
	}
	ret := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || validateName(e.Name()) != nil {
			continue
		}
		ret = append(ret, e.Name())
	}
	return ret, nil
}

// ImageList maps every analyzed image (one with an analyzers.done marker) to the
// sorted union of its current and historical tags.
func (s *FileStore) ImageList(ctx context.Context) (map[string][]string, error) {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.ImageList")
	defer span.End()
	dirs, err := s.imageDirs()
	if err != nil {
		return nil, err
	}
	ret := map[string][]string{}
	for _, id := range dirs {
		if _, err := os.Stat(filepath.Join(s.root, id, manifestFile)); err != nil {
			continue
		}
		report, _ := s.loadImageReport(ctx, id)
		tags := mapset.NewThreadUnsafeSet(report.AllTags...).Union(mapset.NewThreadUnsafeSet(report.CurrentTags...)).ToSlice()
		sort.Strings(tags)
		ret[id] = tags
	}
	return ret, nil
}

// Images iterates over every image directory holding a readable report with a
// meta.imageId, yielding that id and the report. Unreadable images are skipped.
func (s *FileStore) Images(ctx context.Context) iter.Seq2[string, domain.ImageReport] {
	return func(yield func(string, domain.ImageReport) bool) {
		ctx, span := otel.Tracer("").Start(ctx, "FileStore.Images")
		defer span.End()
		dirs, err := s.imageDirs()
		if err != nil {
			s.logger.Ctx(ctx).Warning("failed to list images", helpers.Error(err))
			return
		}
		for _, dir := range dirs {
			report, found := s.loadImageReport(ctx, dir)
			if !found || report.ImageID() == "" {
				continue
			}
			if !yield(report.ImageID(), report) {
				return
			}
		}
	}
}

// LoadAllImages collects Images into a map; the first report seen for an id wins.
func (s *FileStore) LoadAllImages(ctx context.Context) map[string]domain.ImageReport {
	ret := map[string]domain.ImageReport{}
	for id, report := range s.Images(ctx) {
		if _, ok := ret[id]; !ok {
			ret[id] = report
		}
	}
	return ret
}

// LoadImageBundle loads all five documents of an image; absent ones are empty.
func (s *FileStore) LoadImageBundle(ctx context.Context, imageID string) (domain.ImageBundle, error) {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.LoadImageBundle")
	defer span.End()
	if err := validateName(imageID); err != nil {
		return domain.ImageBundle{}, err
	}
	var bundle domain.ImageBundle
	bundle.ImageReport, _ = s.loadImageReport(ctx, imageID)
	bundle.AnalysisReport, _ = s.loadReport(ctx, imageID, analysisFile)
	bundle.AnalyzerManifest, _ = s.LoadAnalyzerManifest(ctx, imageID)
	bundle.GatesReport, _ = s.loadReport(ctx, imageID, gatesFile)
	bundle.GatesEvalReport, _ = s.loadReport(ctx, imageID, gatesEvalFile)
	return bundle, nil
}

// SaveImageBundle creates the image layout and writes every document, fanning the
// analysis report out to analyzer outputs and the gates report out to gate
// outputs. Writing continues past individual failures, which are returned together.
func (s *FileStore) SaveImageBundle(ctx context.Context, imageID string, bundle domain.ImageBundle) error {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.SaveImageBundle")
	defer span.End()
	if err := s.CreateImage(ctx, imageID); err != nil {
		return err
	}

	var result *multierror.Error
	appendErr := func(what string, err error) {
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", what, err))
		}
	}

	appendErr("image report", s.SaveImageReport(ctx, imageID, bundle.ImageReport))
	appendErr("analysis report", s.SaveAnalysisReport(ctx, imageID, bundle.AnalysisReport))
	appendErr("analyzer manifest", s.SaveAnalyzerManifest(ctx, imageID, bundle.AnalyzerManifest))
	appendErr("gates report", s.SaveGatesReport(ctx, imageID, bundle.GatesReport))
	appendErr("gates eval report", s.SaveGatesEvalReport(ctx, imageID, bundle.GatesEvalReport))

	for _, o := range bundle.AnalysisReport.AnalyzerOutputs() {
		appendErr(fmt.Sprintf("analyzer output %s/%s (%s)", o.ModuleName, o.ModuleValue, o.Variant),
			s.SaveAnalysisOutput(ctx, imageID, o.ModuleName, o.ModuleValue, o.Data, o.Variant))
	}
	for name, lines := range bundle.GatesReport.GateOutputs() {
		appendErr("gate output "+name, s.SaveGateOutput(ctx, imageID, name, lines))
	}

	dockerfile := filepath.Join(s.root, imageID, filepath.FromSlash(imageInfoDir), dockerfileFile)
	appendErr("dockerfile", s.lines.WriteString(dockerfile, bundle.ImageReport.DockerfileContents))

	if err := result.ErrorOrNil(); err != nil {
		s.logger.Ctx(ctx).Warning("image bundle saved with errors", helpers.String("imageID", imageID), helpers.Error(err))
		return err
	}
	return nil
}

// LoadImageMeta returns image.meta; a missing file gives an empty map.
func (s *FileStore) LoadImageMeta(ctx context.Context, imageID string) (map[string]string, error) {
	_, span := otel.Tracer("").Start(ctx, "FileStore.LoadImageMeta")
	defer span.End()
	path, err := s.imagePath(imageID, filepath.FromSlash(imageInfoDir), imageMetaFile)
	if err != nil {
		return nil, err
	}
	meta, err := s.kv.ReadKV(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	return meta, err
}

// LoadDockerfile returns the stored Dockerfile; a missing file gives "".
func (s *FileStore) LoadDockerfile(ctx context.Context, imageID string) (string, error) {
	_, span := otel.Tracer("").Start(ctx, "FileStore.LoadDockerfile")
	defer span.End()
	path, err := s.imagePath(imageID, filepath.FromSlash(imageInfoDir), dockerfileFile)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	return string(b), err
}
