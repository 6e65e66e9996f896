package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/kubescape/imagedb/core/domain"
	"github.com/kubescape/imagedb/core/ports"
	"schneider.vip/problem"
)

// HTTPController maps ImageService ports to gin handlers that can be mapped to paths and methods
// this mapping is usually done in main()
type HTTPController struct {
	imageService ports.ImageService
}

// NewHTTPController initializes the HTTPController struct with the injected imageService
func NewHTTPController(imageService ports.ImageService) *HTTPController {
	return &HTTPController{
		imageService: imageService,
	}
}

// Alive returns 200 OK
func (h HTTPController) Alive(c *gin.Context) {
	problem.Of(http.StatusOK).WriteTo(c.Writer)
}

// Ready calls imageService.Ready
func (h HTTPController) Ready(c *gin.Context) {
	if !h.imageService.Ready(c.Request.Context()) {
		problem.Of(http.StatusServiceUnavailable).WriteTo(c.Writer)
		return
	}

	problem.Of(http.StatusOK).WriteTo(c.Writer)
}

// ImageList returns analyzed images and their tags
func (h HTTPController) ImageList(c *gin.Context) {
	list, err := h.imageService.ImageList(c.Request.Context())
	if err != nil {
		h.serviceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, list)
}

// LoadImage returns the bundle of documents stored for an image
func (h HTTPController) LoadImage(c *gin.Context) {
	imageID := c.Param("id")
	bundle, err := h.imageService.LoadImage(c.Request.Context(), imageID)
	if err != nil {
		h.serviceError(c, err, problem.Detailf("imageID=%s", imageID))
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// SaveImage unmarshalls the payload and calls imageService.SaveImage
func (h HTTPController) SaveImage(c *gin.Context) {
	imageID := c.Param("id")
	details := problem.Detailf("imageID=%s", imageID)

	var bundle domain.ImageBundle
	err := c.ShouldBindJSON(&bundle)
	if err != nil {
		logger.L().Ctx(c.Request.Context()).Error("handler error", helpers.Error(err))
		problem.Of(http.StatusBadRequest).WriteTo(c.Writer)
		return
	}

	err = h.imageService.SaveImage(c.Request.Context(), imageID, bundle)
	if err != nil {
		h.serviceError(c, err, details)
		return
	}

	problem.Of(http.StatusOK).Append(details).WriteTo(c.Writer)
}

// DeleteImage calls imageService.DeleteImage
func (h HTTPController) DeleteImage(c *gin.Context) {
	imageID := c.Param("id")
	details := problem.Detailf("imageID=%s", imageID)

	err := h.imageService.DeleteImage(c.Request.Context(), imageID)
	if err != nil {
		h.serviceError(c, err, details)
		return
	}

	problem.Of(http.StatusOK).Append(details).WriteTo(c.Writer)
}

// IsAnalyzed reports whether every analyzer of the image succeeded
func (h HTTPController) IsAnalyzed(c *gin.Context) {
	imageID := c.Param("id")
	c.JSON(http.StatusOK, gin.H{
		"imageID":  imageID,
		"analyzed": h.imageService.IsAnalyzed(c.Request.Context(), imageID),
	})
}

// LoadAnalysisOutput returns a key-value output as JSON, or a directory output as a tar.gz stream
func (h HTTPController) LoadAnalysisOutput(c *gin.Context) {
	imageID, moduleName, moduleValue := c.Param("id"), c.Param("module"), c.Param("value")
	details := problem.Detailf("imageID=%s, module=%s, value=%s", imageID, moduleName, moduleValue)

	variant, err := domain.ParseVariant(c.Query("variant"))
	if err != nil {
		h.serviceError(c, err, details)
		return
	}

	output, err := h.imageService.LoadAnalysisOutput(c.Request.Context(), imageID, moduleName, moduleValue, variant)
	switch {
	case err != nil:
		h.serviceError(c, err, details)
	case output.Archive != nil:
		c.DataFromReader(http.StatusOK, -1, "application/gzip", output.Archive, map[string]string{
			"Content-Disposition": `attachment; filename="` + moduleValue + `.tar.gz"`,
		})
	case output.KV != nil:
		c.JSON(http.StatusOK, output.KV)
	default:
		problem.Of(http.StatusNotFound).Append(details).WriteTo(c.Writer)
	}
}

// ListGateOutputs returns every gate output of the image
func (h HTTPController) ListGateOutputs(c *gin.Context) {
	imageID := c.Param("id")
	gates, err := h.imageService.ListGateOutputs(c.Request.Context(), imageID)
	if err != nil {
		h.serviceError(c, err, problem.Detailf("imageID=%s", imageID))
		return
	}
	c.JSON(http.StatusOK, gates)
}

// serviceError logs err and writes the problem matching its kind
func (h HTTPController) serviceError(c *gin.Context, err error, details problem.Option) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrImageNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidImageID), errors.Is(err, domain.ErrInvalidVariant):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrBundleTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrServiceStopped):
		status = http.StatusServiceUnavailable
	}
	logger.L().Ctx(c.Request.Context()).Error("service error", helpers.Error(err), helpers.Int("status", status))

	p := problem.Of(status)
	if details != nil {
		p = p.Append(details)
	}
	p.WriteTo(c.Writer)
}
