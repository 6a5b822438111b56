package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/handler"
	"github.com/jengzang/mobility-backend-go/internal/logger"
	"github.com/jengzang/mobility-backend-go/internal/middleware"
	"github.com/jengzang/mobility-backend-go/internal/service"
)

// Services groups everything the router serves
type Services struct {
	Mobility *service.MobilityService
	Exports  *service.ExportService
	Maps     *service.MapService
	Charts   *service.ChartService
	Pipeline *service.PipelineService
}

// SetupRouter builds the gin engine with every route
func SetupRouter(cfg *config.Config, log *logger.Logger, svc Services, limiter *middleware.RateLimiter) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(log))

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	corsConfig.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	tmpl, err := handler.Templates()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Mobility Backend API is running",
		})
	})

	mobilityHandler := handler.NewMobilityHandler(svc.Mobility)
	referenceHandler := handler.NewReferenceHandler(svc.Mobility)
	exportHandler := handler.NewExportHandler(svc.Exports)
	vizHandler := handler.NewVisualizationHandler(svc.Maps, svc.Charts)
	adminHandler := handler.NewAdminHandler(svc.Pipeline, svc.Mobility)
	pageHandler := handler.NewPageHandler(svc.Mobility)

	// Pages
	r.GET("/", pageHandler.Index)
	pages := r.Group("/mobilite")
	{
		pages.GET("/communes", pageHandler.Communes)
		pages.GET("/regions", pageHandler.Regions)
	}

	limited := r.Group("", middleware.RateLimit(limiter))

	api := limited.Group("/api/v1")
	{
		api.GET("/stats/global", mobilityHandler.GetGlobalStats)

		communes := api.Group("/communes")
		{
			communes.GET("", mobilityHandler.ListCommunes)
			communes.GET("/top", mobilityHandler.TopCommunes)
			communes.GET("/summary", mobilityHandler.GetCommuneSummary)
			communes.GET("/:code", mobilityHandler.GetCommune)
		}

		regions := api.Group("/regions")
		{
			regions.GET("", mobilityHandler.ListRegions)
			regions.GET("/top", mobilityHandler.TopRegions)
			regions.GET("/:code", mobilityHandler.GetRegion)
		}

		reference := api.Group("/reference")
		{
			reference.GET("/regions", referenceHandler.GetRegions)
			reference.GET("/departments", referenceHandler.GetDepartments)
			reference.GET("/age-ranges", referenceHandler.GetAgeRanges)
			reference.GET("/transport-types", referenceHandler.GetTransportTypes)
		}

		admin := api.Group("/admin", middleware.AdminAuth(cfg.JWTSecret))
		{
			admin.POST("/pipeline/normalize", adminHandler.RunNormalization)
			admin.GET("/pipeline/runs", adminHandler.ListRuns)
			admin.GET("/pipeline/runs/:id", adminHandler.GetRun)
			admin.POST("/cache/clear", adminHandler.ClearCache)
		}
	}

	export := limited.Group("/export")
	{
		export.GET("/csv/communes", exportHandler.CommunesCSV)
		export.GET("/csv/regions", exportHandler.RegionsCSV)
		export.GET("/pdf/communes", exportHandler.CommunesPDF)
		export.GET("/pdf/regions", exportHandler.RegionsPDF)
		export.GET("/xlsx", exportHandler.XLSX)
	}

	viz := limited.Group("/visualizations")
	{
		viz.GET("/map/:kind", vizHandler.GetMap)
		viz.GET("/chart/histogram/:kind", vizHandler.GetHistogram)
		viz.GET("/chart/bar/:kind", vizHandler.GetBarChart)
	}

	return r, nil
}
