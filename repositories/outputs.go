package repositories

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/imagedb/core/domain"
	"go.opentelemetry.io/otel"
)

func (s *FileStore) outputPath(imageID, moduleName, moduleValue string, variant domain.Variant) (string, error) {
	if err := validateName(moduleName); err != nil {
		return "", fmt.Errorf("module name: %w", err)
	}
	if err := validateName(moduleValue); err != nil {
		return "", fmt.Errorf("module value: %w", err)
	}
	return s.imagePath(imageID, variant.Dir(), moduleName, moduleValue)
}

// SaveAnalysisOutput writes a key-value artifact for (moduleName, moduleValue).
func (s *FileStore) SaveAnalysisOutput(ctx context.Context, imageID, moduleName, moduleValue string, data map[string]string, variant domain.Variant) error {
	_, span := otel.Tracer("").Start(ctx, "FileStore.SaveAnalysisOutput")
	defer span.End()
	path, err := s.outputPath(imageID, moduleName, moduleValue, variant)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir for %s/%s: %w", moduleName, moduleValue, err)
	}
	return s.kv.WriteKV(path, data)
}

// SaveAnalysisOutputDir moves srcDir into place as a directory artifact,
// replacing any artifact already stored under that name. The previous artifact
// is kept when the move fails.
func (s *FileStore) SaveAnalysisOutputDir(ctx context.Context, imageID, moduleName, moduleValue, srcDir string, variant domain.Variant) error {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.SaveAnalysisOutputDir")
	defer span.End()
	path, err := s.outputPath(imageID, moduleName, moduleValue, variant)
	if err != nil {
		return err
	}
	if info, err := os.Stat(srcDir); err != nil || !info.IsDir() {
		return fmt.Errorf("output source %s is not a directory", srcDir)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	// stage next to the destination so the final swap is a same-directory rename
	staging := path + ".incoming"
	if err := os.RemoveAll(staging); err != nil {
		return err
	}
	copied := false
	if err := os.Rename(srcDir, staging); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return fmt.Errorf("move output directory %s: %w", srcDir, err)
		}
		s.logger.Ctx(ctx).Debug("source on another filesystem, copying output directory", helpers.String("src", srcDir))
		if err := copyTree(srcDir, staging); err != nil {
			_ = os.RemoveAll(staging)
			return fmt.Errorf("copy output directory: %w", err)
		}
		copied = true
	}

	backup := path + ".previous"
	if err := os.RemoveAll(backup); err != nil {
		return err
	}
	hadPrevious := false
	if _, err := os.Lstat(path); err == nil {
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("set aside previous output %s: %w", path, err)
		}
		hadPrevious = true
	}
	if err := os.Rename(staging, path); err != nil {
		if hadPrevious {
			_ = os.Rename(backup, path)
		}
		return fmt.Errorf("replace output %s: %w", path, err)
	}
	if hadPrevious {
		_ = os.RemoveAll(backup)
	}
	if copied {
		return os.RemoveAll(srcDir)
	}
	return nil
}

// LoadAnalysisOutput returns a key-value artifact as a map and a directory
// artifact as a compressed archive. A missing artifact is not an error.
func (s *FileStore) LoadAnalysisOutput(ctx context.Context, imageID, moduleName, moduleValue string, variant domain.Variant) (domain.AnalysisOutput, error) {
	_, span := otel.Tracer("").Start(ctx, "FileStore.LoadAnalysisOutput")
	defer span.End()
	path, err := s.outputPath(imageID, moduleName, moduleValue, variant)
	if err != nil {
		return domain.AnalysisOutput{}, err
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return domain.AnalysisOutput{}, nil
	case err != nil:
		return domain.AnalysisOutput{}, err
	case info.IsDir():
		r, err := s.archiver.ArchiveDir(path)
		if err != nil {
			return domain.AnalysisOutput{}, err
		}
		return domain.AnalysisOutput{Archive: r}, nil
	}
	kv, err := s.kv.ReadKV(path)
	if err != nil {
		return domain.AnalysisOutput{}, err
	}
	return domain.AnalysisOutput{KV: kv}, nil
}

// ListAnalysisOutputs returns module name -> module value for every output named in the manifest.
func (s *FileStore) ListAnalysisOutputs(ctx context.Context, imageID string) (map[string]map[string]bool, error) {
	ctx, span := otel.Tracer("").Start(ctx, "FileStore.ListAnalysisOutputs")
	defer span.End()
	manifest, err := s.LoadAnalyzerManifest(ctx, imageID)
	if err != nil {
		return nil, err
	}
	return manifest.Outputs(), nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case !info.Mode().IsRegular():
			return nil
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
