package repositories

import (
	"context"
	"errors"
	"iter"

	"github.com/kubescape/imagedb/core/domain"
	"github.com/kubescape/imagedb/core/ports"
)

var errBroken = errors.New("expected error")

// BrokenStore implements ImageRepository with every operation failing, to be used for tests
type BrokenStore struct{}

var _ ports.ImageRepository = (*BrokenStore)(nil)

func (b BrokenStore) Version() domain.VersionRecord {
	return domain.VersionRecord{}
}

func (b BrokenStore) CreateImage(context.Context, string) error {
	return errBroken
}

func (b BrokenStore) DeleteImage(context.Context, string) error {
	return errBroken
}

func (b BrokenStore) ImagePresent(context.Context, string) bool {
	return false
}

func (b BrokenStore) ImageList(context.Context) (map[string][]string, error) {
	return nil, errBroken
}

func (b BrokenStore) Images(context.Context) iter.Seq2[string, domain.ImageReport] {
	return func(func(string, domain.ImageReport) bool) {}
}

func (b BrokenStore) LoadImageBundle(context.Context, string) (domain.ImageBundle, error) {
	return domain.ImageBundle{}, errBroken
}

func (b BrokenStore) SaveImageBundle(context.Context, string, domain.ImageBundle) error {
	return errBroken
}

func (b BrokenStore) LoadImageReport(context.Context, string) (domain.ImageReport, error) {
	return domain.ImageReport{}, errBroken
}

func (b BrokenStore) SaveImageReport(context.Context, string, domain.ImageReport) error {
	return errBroken
}

func (b BrokenStore) LoadAnalyzerManifest(context.Context, string) (domain.AnalyzerManifest, error) {
	return nil, errBroken
}

func (b BrokenStore) IsAnalyzed(context.Context, string) bool {
	return false
}

func (b BrokenStore) ListAnalysisOutputs(context.Context, string) (map[string]map[string]bool, error) {
	return nil, errBroken
}

func (b BrokenStore) LoadAnalysisOutput(context.Context, string, string, string, domain.Variant) (domain.AnalysisOutput, error) {
	return domain.AnalysisOutput{}, errBroken
}

func (b BrokenStore) ListGateOutputs(context.Context, string) ([]string, error) {
	return nil, errBroken
}

func (b BrokenStore) LoadGateOutput(context.Context, string, string) ([]string, error) {
	return nil, errBroken
}
