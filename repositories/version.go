package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/imagedb/core/domain"
)

// reconcileVersion brings the store-root version record in line with the running
// software. Nothing is written when the stored schema major is older than ours.
func (s *FileStore) reconcileVersion(ctx context.Context) error {
	path := filepath.Join(s.root, versionFileName)
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Ctx(ctx).Info("initializing image store version record", helpers.String("path", path), helpers.String("schemaVersion", s.version.SchemaVersion))
		return writeJSON(path, s.version)
	case err != nil:
		return fmt.Errorf("read store version record: %w", err)
	}

	// raw keeps keys other than the two version fields across a rewrite
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("parse store version record %s: %w", path, err)
	}
	var record domain.VersionRecord
	if err := json.Unmarshal(b, &record); err != nil {
		return fmt.Errorf("parse store version record %s: %w", path, err)
	}
	if raw == nil {
		raw = map[string]json.RawMessage{}
	}

	dirty := false
	if record.SoftwareVersion != s.version.SoftwareVersion {
		record.SoftwareVersion = s.version.SoftwareVersion
		dirty = true
	}
	switch {
	case record.SchemaVersion == "":
		record.SchemaVersion = s.version.SchemaVersion
		dirty = true
	case record.SchemaVersion != s.version.SchemaVersion:
		stored, err := domain.ParseSchemaVersion(record.SchemaVersion)
		if err != nil {
			return fmt.Errorf("store version record %s: %w", path, err)
		}
		if stored.Major < s.schema.Major {
			return &domain.IncompatibleSchemaError{
				Stored:          record.SchemaVersion,
				Current:         s.version.SchemaVersion,
				SoftwareVersion: s.version.SoftwareVersion,
			}
		}
		s.logger.Ctx(ctx).Info("updating image store schema version", helpers.String("from", record.SchemaVersion), helpers.String("to", s.version.SchemaVersion))
		record.SchemaVersion = s.version.SchemaVersion
		dirty = true
	}

	if !dirty {
		return nil
	}
	software, _ := json.Marshal(record.SoftwareVersion)
	schema, _ := json.Marshal(record.SchemaVersion)
	raw[domain.SoftwareVersionKey] = software
	raw[domain.SchemaVersionKey] = schema
	if err := writeJSON(path, raw); err != nil {
		return fmt.Errorf("write store version record: %w", err)
	}
	return nil
}
