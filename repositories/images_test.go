package repositories

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/kubescape/imagedb/core/domain"
	"github.com/kubescape/imagedb/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bundleJSON = `{
	"image_report": {
		"meta": {"imageId": "img1", "humanname": "nginx:latest"},
		"anchore_current_tags": ["nginx:latest"],
		"anchore_all_tags": ["nginx:1.25"],
		"dockerfile_contents": "FROM debian\nCMD nginx",
		"familytree": ["img1"]
	},
	"analysis_report": {
		"package_list": {"pkgs.all": {"base": {"openssl": "3.0.2"}, "user": {"custom": "1"}}}
	},
	"analyzer_manifest": {
		"package_list": {"status": "SUCCESS", "analyzer_outputs": [{"module_name": "package_list", "module_value": "pkgs.all"}]}
	},
	"gates_report": {"ANCHORESEC": ["ANCHORESEC VULNHIGH CVE-1"]},
	"gates_eval_report": {"final_action": "STOP"}
}`

func testBundle(t *testing.T) domain.ImageBundle {
	var bundle domain.ImageBundle
	tools.EnsureSetup(t, json.Unmarshal([]byte(bundleJSON), &bundle) == nil)
	return bundle
}

func TestFileStore_SaveImageBundle(t *testing.T) {
	s := newTestStore(t)
	s.now = sequenceClock(42)
	ctx := context.TODO()
	require.NoError(t, s.SaveImageBundle(ctx, "img1", testBundle(t)))

	assert.True(t, s.IsAnalyzed(ctx, "img1"))

	base, err := s.LoadAnalysisOutput(ctx, "img1", "package_list", "pkgs.all", domain.VariantBase)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"openssl": "3.0.2"}, base.KV)
	user, err := s.LoadAnalysisOutput(ctx, "img1", "package_list", "pkgs.all", domain.VariantUser)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"custom": "1"}, user.KV)
	extra, err := s.LoadAnalysisOutput(ctx, "img1", "package_list", "pkgs.all", domain.VariantExtra)
	require.NoError(t, err)
	assert.False(t, extra.Found())

	gates, err := s.ListGateOutputs(ctx, "img1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ANCHORESEC"}, gates)

	dockerfile, err := s.LoadDockerfile(ctx, "img1")
	require.NoError(t, err)
	assert.Equal(t, "FROM debian\nCMD nginx", dockerfile)
	meta, err := s.LoadImageMeta(ctx, "img1")
	require.NoError(t, err)
	assert.Equal(t, "nginx:latest", meta["humanname"])

	loaded, err := s.LoadImageBundle(ctx, "img1")
	require.NoError(t, err)
	assert.Equal(t, []string{"nginx:latest"}, loaded.ImageReport.CurrentTags)
	assert.Equal(t, []domain.TagHistoryEntry{{Timestamp: "42", Tags: []string{"nginx:latest"}}}, loaded.ImageReport.TagHistory)
	assert.Contains(t, loaded.ImageReport.Extra, "familytree")
	assert.Equal(t, domain.Report{"final_action": "STOP"}, loaded.GatesEvalReport)
	assert.Equal(t, testBundle(t).AnalysisReport, loaded.AnalysisReport)
	assert.Equal(t, testBundle(t).AnalyzerManifest, loaded.AnalyzerManifest)
}

func TestFileStore_LoadImageBundleAbsent(t *testing.T) {
	s := newTestStore(t)
	bundle, err := s.LoadImageBundle(context.TODO(), "img1")
	require.NoError(t, err)
	assert.True(t, bundle.ImageReport.IsEmpty())
	assert.Empty(t, bundle.AnalysisReport)
	assert.Empty(t, bundle.AnalyzerManifest)
	assert.Empty(t, bundle.GatesReport)
	assert.Empty(t, bundle.GatesEvalReport)
}

func TestFileStore_ImageList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.TODO()
	require.NoError(t, s.SaveImageBundle(ctx, "img1", testBundle(t)))

	// no analyzers.done marker
	require.NoError(t, s.SaveImageReport(ctx, "img2", domain.ImageReport{
		Meta:        map[string]string{domain.ImageIDMetaKey: "img2"},
		CurrentTags: []string{"alpine:3"},
	}))
	// marker but no report
	writeFile(t, filepath.Join(s.Root(), "img3", manifestFile), `{"a": {"status": "SUCCESS"}}`)

	list, err := s.ImageList(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"img1": {"nginx:1.25", "nginx:latest"},
		"img3": {},
	}, list)
}

func TestFileStore_LoadAllImages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.TODO()
	require.NoError(t, s.SaveImageBundle(ctx, "img1", testBundle(t)))
	require.NoError(t, s.SaveImageReport(ctx, "img2", domain.ImageReport{
		Meta:        map[string]string{domain.ImageIDMetaKey: "img2"},
		CurrentTags: []string{"alpine:3"},
	}))
	// report without meta.imageId is skipped
	require.NoError(t, s.SaveImageReport(ctx, "img3", domain.ImageReport{CurrentTags: []string{"x"}}))
	// unreadable report is skipped
	writeFile(t, filepath.Join(s.Root(), "img4", reportsDir, imageReportFile), "{")
	// stray file at the root is skipped
	writeFile(t, filepath.Join(s.Root(), "stray.txt"), "x")

	all := s.LoadAllImages(ctx)
	assert.Len(t, all, 2)
	assert.Equal(t, []string{"alpine:3"}, all["img2"].CurrentTags)
	assert.Equal(t, "img1", all["img1"].ImageID())

	count := 0
	for range s.Images(ctx) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestFileStore_SaveImageBundleNumericOutputs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.TODO()
	var bundle domain.ImageBundle
	tools.EnsureSetup(t, json.Unmarshal([]byte(`{
		"image_report": {"anchore_current_tags": []},
		"analysis_report": {"layer_info": {"sizes": {"base": {"layer1": 1234567, "count": 3, "ratio": 0.5}}}}
	}`), &bundle) == nil)
	require.NoError(t, s.SaveImageBundle(ctx, "img1", bundle))

	output, err := s.LoadAnalysisOutput(ctx, "img1", "layer_info", "sizes", domain.VariantBase)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"layer1": "1234567", "count": "3", "ratio": "0.5"}, output.KV)
}
