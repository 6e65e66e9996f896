package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Keys of the version fields in the store-root document.
const (
	SoftwareVersionKey = "anchore_version"
	SchemaVersionKey   = "anchore_db_version"
)

// VersionRecord is the store-root document pairing the software that last opened
// the store with the schema version of the data on disk.
// An empty field means the field was absent from the file.
type VersionRecord struct {
	SoftwareVersion string `json:"anchore_version,omitempty"`
	SchemaVersion   string `json:"anchore_db_version,omitempty"`
}

// SchemaVersion is the major.minor pair gating store compatibility.
type SchemaVersion struct {
	Major int
	Minor int
}

func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compare returns -1, 0 or 1 comparing major first, then minor.
func (v SchemaVersion) Compare(o SchemaVersion) int {
	switch {
	case v.Major < o.Major:
		return -1
	case v.Major > o.Major:
		return 1
	case v.Minor < o.Minor:
		return -1
	case v.Minor > o.Minor:
		return 1
	}
	return 0
}

// ParseSchemaVersion reads "N" or "N.M"; a missing minor defaults to 0.
func ParseSchemaVersion(s string) (SchemaVersion, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 2 || parts[0] == "" {
		return SchemaVersion{}, fmt.Errorf("invalid schema version %q", s)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return SchemaVersion{}, fmt.Errorf("invalid schema version %q: bad major component", s)
	}
	v := SchemaVersion{Major: major}
	if len(parts) == 2 {
		minor, err := strconv.Atoi(parts[1])
		if err != nil || minor < 0 {
			return SchemaVersion{}, fmt.Errorf("invalid schema version %q: bad minor component", s)
		}
		v.Minor = minor
	}
	return v, nil
}

// SchemaVersionFromSoftware derives the schema version from a software version
// such as "1.4.2" (giving 1.4). Missing minor or patch parts default to 0; anything
// that is not a semantic version is rejected with ErrInvalidSoftwareVersion.
func SchemaVersionFromSoftware(softwareVersion string) (SchemaVersion, error) {
	v, err := semver.NewVersion(softwareVersion)
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("%w: %q: %v", ErrInvalidSoftwareVersion, softwareVersion, err)
	}
	return SchemaVersion{Major: int(v.Major()), Minor: int(v.Minor())}, nil
}
