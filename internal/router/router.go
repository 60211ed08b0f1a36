package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"contractinvoice/internal/handler"
	"contractinvoice/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	convertH *handler.ConvertHandler,
	artifactH *handler.ArtifactHandler,
	healthH *handler.HealthHandler,
	allowedOrigins []string,
	maxUploadBytes int64,
	log *zap.Logger,
) *gin.Engine {
	r := gin.New()
	if maxUploadBytes > 0 {
		r.MaxMultipartMemory = maxUploadBytes
	}

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)

	api := r.Group("/api")

	// Conversion
	api.POST("/convert-contract", convertH.ConvertContract)
	api.POST("/convert-text", convertH.ConvertText)

	// Artifacts
	api.GET("/download-invoice/:filename", artifactH.DownloadInvoice)
	api.GET("/download-text/:filename", artifactH.DownloadText)
	api.GET("/invoice-record/:filename", artifactH.InvoiceRecord)
	api.GET("/invoice-csv/:filename", artifactH.InvoiceCSV)

	return r
}
