package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzerManifest_Complete(t *testing.T) {
	tests := []struct {
		name     string
		manifest AnalyzerManifest
		want     bool
	}{
		{name: "nil", manifest: nil, want: false},
		{name: "empty", manifest: AnalyzerManifest{}, want: false},
		{name: "all success", manifest: AnalyzerManifest{
			"package_list": {Status: StatusSuccess},
			"file_list":    {Status: StatusSuccess},
		}, want: true},
		{name: "one failed", manifest: AnalyzerManifest{
			"package_list": {Status: StatusSuccess},
			"file_list":    {Status: "FAIL"},
		}, want: false},
		{name: "missing status", manifest: AnalyzerManifest{
			"package_list": {},
		}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.manifest.Complete())
		})
	}
}

func TestAnalyzerManifest_Outputs(t *testing.T) {
	m := AnalyzerManifest{
		"analyzer_meta": {Status: StatusSuccess, Outputs: []OutputRecord{
			{ModuleName: "analyzer_meta", ModuleValue: "analyzer_meta"},
		}},
		"package_list": {Status: StatusSuccess, Outputs: []OutputRecord{
			{ModuleName: "package_list", ModuleValue: "pkgs.all"},
			{ModuleName: "package_list", ModuleValue: "pkgs_plus_source.all"},
		}},
		"no_outputs": {Status: StatusSuccess},
	}
	assert.Equal(t, map[string]map[string]bool{
		"analyzer_meta": {"analyzer_meta": true},
		"package_list":  {"pkgs.all": true, "pkgs_plus_source.all": true},
	}, m.Outputs())
}
