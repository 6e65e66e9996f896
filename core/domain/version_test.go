package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchemaVersion(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    SchemaVersion
		wantErr bool
	}{
		{name: "major.minor", in: "0.8", want: SchemaVersion{0, 8}},
		{name: "major only", in: "2", want: SchemaVersion{2, 0}},
		{name: "two digit major", in: "10.1", want: SchemaVersion{10, 1}},
		{name: "empty", in: "", wantErr: true},
		{name: "three parts", in: "1.2.3", wantErr: true},
		{name: "not a number", in: "a.b", wantErr: true},
		{name: "negative", in: "-1.0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchemaVersion(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchemaVersion_Compare(t *testing.T) {
	assert.Equal(t, -1, SchemaVersion{9, 0}.Compare(SchemaVersion{10, 0}))
	assert.Equal(t, 1, SchemaVersion{10, 0}.Compare(SchemaVersion{9, 9}))
	assert.Equal(t, -1, SchemaVersion{1, 2}.Compare(SchemaVersion{1, 10}))
	assert.Equal(t, 0, SchemaVersion{1, 2}.Compare(SchemaVersion{1, 2}))
	assert.Equal(t, "1.2", SchemaVersion{1, 2}.String())
}

func TestSchemaVersionFromSoftware(t *testing.T) {
	got, err := SchemaVersionFromSoftware("1.4.2")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion{1, 4}, got)

	got, err = SchemaVersionFromSoftware("v2")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion{2, 0}, got)

	_, err = SchemaVersionFromSoftware("dev-build")
	assert.True(t, errors.Is(err, ErrInvalidSoftwareVersion))
}

func TestIncompatibleSchemaError(t *testing.T) {
	err := &IncompatibleSchemaError{Stored: "0.8", Current: "1.0", SoftwareVersion: "1.0.3"}
	assert.Contains(t, err.Error(), "0.8")
	assert.Contains(t, err.Error(), "1.0.3")
	assert.Contains(t, err.Error(), "reinitialize")
}
