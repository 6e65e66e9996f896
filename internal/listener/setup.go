package listener

import (
	"github.com/gin-gonic/gin"
	"github.com/kubescape/imagedb/controllers"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "imagedb-svc"

// SetupRouter maps the controller handlers to their paths
func SetupRouter(controller *controllers.HTTPController) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/v1/liveness", controller.Alive)
	router.GET("/v1/readiness", controller.Ready)

	group := router.Group("/v1/images")
	{
		group.Use(otelgin.Middleware(serviceName))
		group.GET("", controller.ImageList)
		group.GET("/:id", controller.LoadImage)
		group.PUT("/:id", controller.SaveImage)
		group.DELETE("/:id", controller.DeleteImage)
		group.GET("/:id/analyzed", controller.IsAnalyzed)
		group.GET("/:id/gates", controller.ListGateOutputs)
		group.GET("/:id/outputs/:module/:value", controller.LoadAnalysisOutput)
	}

	return router
}
