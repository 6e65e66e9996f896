package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/imagedb/core/domain"
	"github.com/kubescape/imagedb/core/ports"
	"go.opentelemetry.io/otel"
)

const (
	versionFileName = "anchore_db_meta.json"
	gateHelpFile    = "gates_info.json"

	reportsDir      = "reports"
	gatesOutputDir  = "gates_output"
	imageInfoDir    = "image_output/image_info"
	manifestFile    = "analyzers.done"
	imageMetaFile   = "image.meta"
	dockerfileFile  = "Dockerfile"
	gatePolicyFile  = "anchore_gate.policy"
	gateWhitelist   = "anchore_gate.whitelist"
	imageReportFile = "image_report.json"
	analysisFile    = "analysis_report.json"
	gatesFile       = "gates_report.json"
	gatesEvalFile   = "gates_eval_report.json"
)

// FileStore implements ImageRepository on a directory tree, one subdirectory per image.
// It assumes a single writer; concurrent readers are safe.
type FileStore struct {
	root     string
	version  domain.VersionRecord
	schema   domain.SchemaVersion
	logger   helpers.ILogger
	kv       ports.KVCodec
	lines    ports.ListCodec
	archiver ports.Archiver
	now      func() time.Time
}

var _ ports.ImageRepository = (*FileStore)(nil)

// NewFileStore opens the store rooted at root for the given running software version,
// reconciling the on-disk version record first. A missing root yields a
// *domain.StoreNotFoundError and an older schema major a *domain.IncompatibleSchemaError.
func NewFileStore(ctx context.Context, root, softwareVersion string, log helpers.ILogger, kv ports.KVCodec, lines ports.ListCodec, archiver ports.Archiver) (*FileStore, error) {
	ctx, span := otel.Tracer("").Start(ctx, "NewFileStore")
	defer span.End()
	if log == nil {
		log = logger.L()
	}
	schema, err := domain.SchemaVersionFromSoftware(softwareVersion)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, &domain.StoreNotFoundError{Path: root}
	}
	s := &FileStore{
		root: root,
		version: domain.VersionRecord{
			SoftwareVersion: softwareVersion,
			SchemaVersion:   schema.String(),
		},
		schema:   schema,
		logger:   log,
		kv:       kv,
		lines:    lines,
		archiver: archiver,
		now:      time.Now,
	}
	if err := s.reconcileVersion(ctx); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Debug("image store opened", helpers.String("root", root), helpers.String("schemaVersion", s.version.SchemaVersion))
	return s, nil
}

// StoreExists reports whether root holds a store. When expectedSchema is not
// empty the recorded schema version must also match it.
func StoreExists(root, expectedSchema string) bool {
	b, err := os.ReadFile(filepath.Join(root, versionFileName))
	if err != nil {
		return false
	}
	if expectedSchema == "" {
		return true
	}
	var record domain.VersionRecord
	if err := json.Unmarshal(b, &record); err != nil {
		return false
	}
	return record.SchemaVersion == expectedSchema
}

// Version returns the record of the running software, as persisted at open.
func (s *FileStore) Version() domain.VersionRecord {
	return s.version
}

// Root returns the store root directory.
func (s *FileStore) Root() string {
	return s.root
}

// validateName rejects identifiers that would escape their parent directory.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return fmt.Errorf("%w: %q", domain.ErrInvalidImageID, name)
	}
	return nil
}

func (s *FileStore) imageDir(imageID string) (string, error) {
	if err := validateName(imageID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, imageID), nil
}

func (s *FileStore) imagePath(imageID string, elem ...string) (string, error) {
	dir, err := s.imageDir(imageID)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dir}, elem...)...), nil
}

// readJSON decodes path into v. It returns false when the file is absent or does
// not parse; parse failures are logged since callers treat them as missing data.
func (s *FileStore) readJSON(ctx context.Context, path string, v any) bool {
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false
	case err != nil:
		s.logger.Ctx(ctx).Warning("failed to read file", helpers.String("path", path), helpers.Error(err))
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		s.logger.Ctx(ctx).Debug("file found but failed to parse", helpers.String("path", path), helpers.Error(err))
		return false
	}
	return true
}

// writeJSON overwrites path, creating its parent directory if needed.
func writeJSON(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
