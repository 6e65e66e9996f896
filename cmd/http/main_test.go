package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kinbiko/jsonassert"
	"github.com/kubescape/imagedb/config"
	"github.com/kubescape/imagedb/controllers"
	"github.com/kubescape/imagedb/core/domain"
	"github.com/kubescape/imagedb/internal/listener"
	"github.com/kubescape/imagedb/internal/tools"
	"gotest.tools/v3/assert"
)

const bundle = `{
	"image_report": {"meta": {"imageId": "img1"}, "anchore_current_tags": ["nginx:latest"]},
	"analysis_report": {"package_list": {"pkgs.all": {"base": {"openssl": "3.0.2"}}}},
	"analyzer_manifest": {"package_list": {"status": "SUCCESS"}},
	"gates_report": {"ANCHORESEC": ["ANCHORESEC VULNHIGH CVE-1"]}
}`

func TestImageLifecycle(t *testing.T) {
	c := config.Default()
	c.StoreRoot = t.TempDir()
	c.CacheTTL = time.Minute
	service, err := newImageService(context.TODO(), c)
	tools.EnsureSetup(t, err == nil)
	defer service.Shutdown()
	router := listener.SetupRouter(controllers.NewHTTPController(service))

	tests := []struct {
		name         string
		method       string
		path         string
		body         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "not stored yet",
			method:       "GET",
			path:         "/v1/images/img1",
			expectedCode: http.StatusNotFound,
			expectedBody: "{\"detail\":\"imageID=img1\",\"status\":404,\"title\":\"Not Found\"}",
		},
		{
			name:         "save",
			method:       "PUT",
			path:         "/v1/images/img1",
			body:         bundle,
			expectedCode: http.StatusOK,
			expectedBody: "{\"detail\":\"imageID=img1\",\"status\":200,\"title\":\"OK\"}",
		},
		{
			name:         "list",
			method:       "GET",
			path:         "/v1/images",
			expectedCode: http.StatusOK,
			expectedBody: `{"img1":["nginx:latest"]}`,
		},
		{
			name:         "analyzed",
			method:       "GET",
			path:         "/v1/images/img1/analyzed",
			expectedCode: http.StatusOK,
			expectedBody: `{"analyzed":true,"imageID":"img1"}`,
		},
		{
			name:         "output",
			method:       "GET",
			path:         "/v1/images/img1/outputs/package_list/pkgs.all",
			expectedCode: http.StatusOK,
			expectedBody: `{"openssl":"3.0.2"}`,
		},
		{
			name:         "missing output",
			method:       "GET",
			path:         "/v1/images/img1/outputs/package_list/pkgs.all?variant=extra",
			expectedCode: http.StatusNotFound,
			expectedBody: "{\"detail\":\"imageID=img1, module=package_list, value=pkgs.all\",\"status\":404,\"title\":\"Not Found\"}",
		},
		{
			name:         "gates",
			method:       "GET",
			path:         "/v1/images/img1/gates",
			expectedCode: http.StatusOK,
			expectedBody: `{"ANCHORESEC":["ANCHORESEC VULNHIGH CVE-1"]}`,
		},
		{
			name:         "delete",
			method:       "DELETE",
			path:         "/v1/images/img1",
			expectedCode: http.StatusOK,
			expectedBody: "{\"detail\":\"imageID=img1\",\"status\":200,\"title\":\"OK\"}",
		},
		{
			name:         "list after delete",
			method:       "GET",
			path:         "/v1/images",
			expectedCode: http.StatusOK,
			expectedBody: `{}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Assert(t, tt.expectedCode == w.Code, w.Code)
			assert.Assert(t, tt.expectedBody == w.Body.String(), w.Body.String())
		})
	}
}

func TestImageLifecycleHistory(t *testing.T) {
	c := config.Default()
	c.StoreRoot = t.TempDir()
	service, err := newImageService(context.TODO(), c)
	tools.EnsureSetup(t, err == nil)
	defer service.Shutdown()
	router := listener.SetupRouter(controllers.NewHTTPController(service))

	for _, tags := range []string{`["a"]`, `["b"]`} {
		body := `{"image_report": {"meta": {"imageId": "img1"}, "anchore_current_tags": ` + tags + `}}`
		req, _ := http.NewRequest("PUT", "/v1/images/img1", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Assert(t, w.Code == http.StatusOK, w.Body.String())
	}

	b, err := os.ReadFile(filepath.Join(c.StoreRoot, "img1", "reports", "image_report.json"))
	tools.EnsureSetup(t, err == nil)
	jsonassert.New(t).Assertf(string(b), `{
		"meta": {"imageId": "img1"},
		"anchore_current_tags": ["b"],
		"tag_history": [["<<PRESENCE>>", ["a"]], ["<<PRESENCE>>", ["a"]]]
	}`)
}

func TestNewImageServiceIncompatible(t *testing.T) {
	c := config.Default()
	c.StoreRoot = t.TempDir()
	c.SoftwareVersion = "2.0.0"
	tools.EnsureSetup(t, os.WriteFile(filepath.Join(c.StoreRoot, "anchore_db_meta.json"), []byte(`{"anchore_version": "1.0.0", "anchore_db_version": "1.0"}`), 0644) == nil)
	_, err := newImageService(context.TODO(), c)
	var incompatible *domain.IncompatibleSchemaError
	assert.Assert(t, errors.As(err, &incompatible), err)
}

func TestNewImageServiceMissingRoot(t *testing.T) {
	c := config.Default()
	c.StoreRoot = filepath.Join(t.TempDir(), "missing")
	_, err := newImageService(context.TODO(), c)
	var notFound *domain.StoreNotFoundError
	assert.Assert(t, errors.As(err, &notFound), err)
	_, statErr := os.Stat(c.StoreRoot)
	assert.Assert(t, os.IsNotExist(statErr))
}
