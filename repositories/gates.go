package repositories

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/imagedb/core/domain"
	"go.opentelemetry.io/otel"
)

const (
	evalSuffix = ".eval"
	helpSuffix = ".help"
)

func (s *FileStore) gatePath(imageID, gateName string) (string, error) {
	if err := validateName(gateName); err != nil {
		return "", fmt.Errorf("gate name: %w", err)
	}
	return s.imagePath(imageID, gatesOutputDir, gateName)
}

func (s *FileStore) writeLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return s.lines.WriteLines(path, lines)
}

// LoadGateOutput returns the output lines of a gate; a missing gate has no lines.
func (s *FileStore) LoadGateOutput(ctx context.Context, imageID, gateName string) ([]string, error) {
	_, span := otel.Tracer("").Start(ctx, "FileStore.LoadGateOutput")
	defer span.End()
	path, err := s.gatePath(imageID, gateName)
	if err != nil {
		return nil, err
	}
	return s.lines.ReadLines(path)
}

func (s *FileStore) SaveGateOutput(ctx context.Context, imageID, gateName string, lines []string) error {
	_, span := otel.Tracer("").Start(ctx, "FileStore.SaveGateOutput")
	defer span.End()
	path, err := s.gatePath(imageID, gateName)
	if err != nil {
		return err
	}
	return s.writeLines(path, lines)
}

// ListGateOutputs lists current gate outputs, leaving out evaluation and help files.
func (s *FileStore) ListGateOutputs(ctx context.Context, imageID string) ([]string, error) {
	_, span := otel.Tracer("").Start(ctx, "FileStore.ListGateOutputs")
	defer span.End()
	dir, err := s.imagePath(imageID, gatesOutputDir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	ret := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, evalSuffix) || strings.HasSuffix(name, helpSuffix) {
			continue
		}
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret, nil
}

func (s *FileStore) LoadGateEvalOutput(ctx context.Context, imageID, gateName string) ([]string, error) {
	_, span := otel.Tracer("").Start(ctx, "FileStore.LoadGateEvalOutput")
	defer span.End()
	path, err := s.gatePath(imageID, gateName+evalSuffix)
	if err != nil {
		return nil, err
	}
	return s.lines.ReadLines(path)
}

func (s *FileStore) SaveGateEvalOutput(ctx context.Context, imageID, gateName string, lines []string) error {
	_, span := otel.Tracer("").Start(ctx, "FileStore.SaveGateEvalOutput")
	defer span.End()
	path, err := s.gatePath(imageID, gateName+evalSuffix)
	if err != nil {
		return err
	}
	return s.writeLines(path, lines)
}

// DeleteGateEvalOutput removes a gate evaluation file. Removal is best effort:
// failures are logged and never returned.
func (s *FileStore) DeleteGateEvalOutput(ctx context.Context, imageID, gateName string) {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.DeleteGateEvalOutput")
	defer span.End()
	path, err := s.gatePath(imageID, gateName+evalSuffix)
	if err != nil {
		s.logger.Ctx(ctx).Debug("invalid gate evaluation path", helpers.Error(err))
		return
	}
	s.removeQuietly(ctx, path)
}

// SaveGateHelp stores the store-wide gate help document.
func (s *FileStore) SaveGateHelp(ctx context.Context, help domain.Report) error {
	_, span := otel.Tracer("").Start(ctx, "FileStore.SaveGateHelp")
	defer span.End()
	if help == nil {
		help = domain.Report{}
	}
	return writeJSON(filepath.Join(s.root, gateHelpFile), help)
}

// LoadGateHelp returns the gate help document, or an empty one.
func (s *FileStore) LoadGateHelp(ctx context.Context) domain.Report {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.LoadGateHelp")
	defer span.End()
	var help domain.Report
	if !s.readJSON(ctx, filepath.Join(s.root, gateHelpFile), &help) || help == nil {
		return domain.Report{}
	}
	return help
}

func (s *FileStore) LoadGatePolicy(ctx context.Context, imageID string) ([]string, error) {
	_, span := otel.Tracer("").Start(ctx, "FileStore.LoadGatePolicy")
	defer span.End()
	path, err := s.imagePath(imageID, gatePolicyFile)
	if err != nil {
		return nil, err
	}
	return s.lines.ReadLines(path)
}

func (s *FileStore) SaveGatePolicy(ctx context.Context, imageID string, lines []string) error {
	_, span := otel.Tracer("").Start(ctx, "FileStore.SaveGatePolicy")
	defer span.End()
	path, err := s.imagePath(imageID, gatePolicyFile)
	if err != nil {
		return err
	}
	return s.writeLines(path, lines)
}

// DeleteGatePolicy removes the image policy, best effort.
func (s *FileStore) DeleteGatePolicy(ctx context.Context, imageID string) {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.DeleteGatePolicy")
	defer span.End()
	path, err := s.imagePath(imageID, gatePolicyFile)
	if err != nil {
		return
	}
	s.removeQuietly(ctx, path)
}

func (s *FileStore) LoadGateWhitelist(ctx context.Context, imageID string) ([]string, error) {
	_, span := otel.Tracer("").Start(ctx, "FileStore.LoadGateWhitelist")
	defer span.End()
	path, err := s.imagePath(imageID, gateWhitelist)
	if err != nil {
		return nil, err
	}
	return s.lines.ReadLines(path)
}

func (s *FileStore) SaveGateWhitelist(ctx context.Context, imageID string, lines []string) error {
	_, span := otel.Tracer("").Start(ctx, "FileStore.SaveGateWhitelist")
	defer span.End()
	path, err := s.imagePath(imageID, gateWhitelist)
	if err != nil {
		return err
	}
	return s.writeLines(path, lines)
}

func (s *FileStore) removeQuietly(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Ctx(ctx).Debug("failed to remove file", helpers.String("path", path), helpers.Error(err))
	}
}
