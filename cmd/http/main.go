package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	v1 "github.com/kubescape/imagedb/adapters/v1"
	"github.com/kubescape/imagedb/config"
	"github.com/kubescape/imagedb/controllers"
	"github.com/kubescape/imagedb/core/services"
	"github.com/kubescape/imagedb/internal/listener"
	"github.com/kubescape/imagedb/internal/tools"
	"github.com/kubescape/imagedb/repositories"
)

const defaultSoftwareVersion = "0.1.0"

func main() {
	ctx := context.Background()

	configDir := "/etc/config"
	if envPath := os.Getenv("CONFIG_DIR"); envPath != "" {
		configDir = envPath
	}

	c, err := config.LoadConfig(configDir)
	if err != nil {
		logger.L().Ctx(ctx).Fatal("load config error", helpers.Error(err))
	}

	// modify context to listen to interrupt signals from the OS.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service, err := newImageService(ctx, c)
	if err != nil {
		logger.L().Ctx(ctx).Fatal("storage initialization error", helpers.Error(err))
	}
	controller := controllers.NewHTTPController(service)

	gin.SetMode(gin.ReleaseMode)
	router := listener.SetupRouter(controller)

	srv := &http.Server{
		Addr:    c.ListenAddr,
		Handler: router,
	}

	// Initializing the server in a goroutine so that
	// it won't block the graceful shutdown handling below
	go func() {
		logger.L().Info("starting server", helpers.String("addr", c.ListenAddr), helpers.String("storeRoot", c.StoreRoot))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L().Ctx(ctx).Fatal("router error", helpers.Error(err))
		}
	}()

	// Listen for the interrupt signal.
	<-ctx.Done()

	// Restore default behavior on the interrupt signal and notify user of shutdown.
	stop()
	logger.L().Info("shutting down gracefully")

	// modify context to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Ctx(ctx).Fatal("server forced to shutdown", helpers.Error(err))
	}

	// Purging the service write queue
	service.Shutdown()

	logger.L().Info("imagedb exiting")
}

// newImageService opens the store at c.StoreRoot; the root must already exist (see imagedb init)
func newImageService(ctx context.Context, c config.Config) (*services.ImageService, error) {
	version := c.SoftwareVersion
	if version == "" {
		version = tools.SoftwareVersion(defaultSoftwareVersion)
	}
	store, err := repositories.NewFileStore(ctx, c.StoreRoot, version, logger.L(), v1.NewKVFile(), v1.NewPlainFile(), v1.NewTarGzArchiver())
	if err != nil {
		return nil, err
	}
	return services.NewImageService(store, c.MaxBundleSize, c.CacheTTL), nil
}
