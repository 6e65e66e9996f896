package services

import (
	"bytes"
	"context"

	"github.com/kubescape/imagedb/core/domain"
	"github.com/kubescape/imagedb/core/ports"
)

type MockImageService struct {
	happy bool
}

var _ ports.ImageService = (*MockImageService)(nil)

func NewMockImageService(happy bool) *MockImageService {
	return &MockImageService{happy: happy}
}

func (m MockImageService) DeleteImage(context.Context, string) error {
	if m.happy {
		return nil
	}
	return domain.ErrMockError
}

func (m MockImageService) ImageList(context.Context) (map[string][]string, error) {
	if m.happy {
		return map[string][]string{"img1": {"nginx:latest"}}, nil
	}
	return nil, domain.ErrMockError
}

func (m MockImageService) IsAnalyzed(context.Context, string) bool {
	return m.happy
}

func (m MockImageService) ListGateOutputs(context.Context, string) (map[string][]string, error) {
	if m.happy {
		return map[string][]string{"ANCHORESEC": {"ANCHORESEC VULNHIGH CVE-1"}}, nil
	}
	return nil, domain.ErrMockError
}

func (m MockImageService) LoadAnalysisOutput(_ context.Context, _, _, moduleValue string, _ domain.Variant) (domain.AnalysisOutput, error) {
	if !m.happy {
		return domain.AnalysisOutput{}, domain.ErrMockError
	}
	if moduleValue == "dir" {
		return domain.AnalysisOutput{Archive: bytes.NewBufferString("archive")}, nil
	}
	return domain.AnalysisOutput{KV: map[string]string{"openssl": "3.0.2"}}, nil
}

func (m MockImageService) LoadImage(context.Context, string) (domain.ImageBundle, error) {
	if m.happy {
		return domain.ImageBundle{ImageReport: domain.ImageReport{CurrentTags: []string{"nginx:latest"}}}, nil
	}
	return domain.ImageBundle{}, domain.ErrMockError
}

func (m MockImageService) Ready(context.Context) bool {
	return m.happy
}

func (m MockImageService) SaveImage(context.Context, string, domain.ImageBundle) error {
	if m.happy {
		return nil
	}
	return domain.ErrMockError
}
