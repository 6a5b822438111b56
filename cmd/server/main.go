package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jengzang/mobility-backend-go/internal/api"
	"github.com/jengzang/mobility-backend-go/internal/cache"
	"github.com/jengzang/mobility-backend-go/internal/config"
	"github.com/jengzang/mobility-backend-go/internal/database"
	"github.com/jengzang/mobility-backend-go/internal/geo"
	"github.com/jengzang/mobility-backend-go/internal/logger"
	"github.com/jengzang/mobility-backend-go/internal/middleware"
	"github.com/jengzang/mobility-backend-go/internal/models"
	"github.com/jengzang/mobility-backend-go/internal/repository"
	"github.com/jengzang/mobility-backend-go/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database", "path", cfg.DBPath, "error", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := cache.NewStore(cfg.StatsTTL)
	mobility := service.NewMobilityService(store, service.Sources{
		Survey:      cfg.SurveyPath,
		Communes:    cfg.CommunesPath,
		Regions:     cfg.RegionsPath,
		Departments: cfg.DepartmentsPath,
	}, log)

	pipelineService := service.NewPipelineService(
		repository.NewPipelineRunRepository(database.GetDB()),
		store,
		service.PipelinePaths{
			Modalities: cfg.ModalitiesPath,
			RawSurvey:  cfg.RawSurveyPath,
			Output:     cfg.SurveyPath,
		},
		log,
	)
	if cfg.NormalizeOnStartup {
		if _, err := pipelineService.Run(ctx, models.RunTriggerStartup); err != nil {
			// the dashboard still serves the previous output, if any
			log.Error("Startup normalization failed", "error", err)
		}
	}

	var locator geo.Locator = geo.DepartmentLocator{}
	if cfg.GeocoderEnabled {
		locator = geo.FallbackLocator{
			Client: geo.NewClient(cfg.GeocoderURL, cfg.GeocoderTimeout),
			OnError: func(code string, err error) {
				log.Debug("Geocoding failed, using department centre", "commune", code, "error", err)
			},
		}
	}
	maps, err := service.NewMapService(mobility, locator, log)
	if err != nil {
		log.Fatal("Failed to initialize map service", "error", err)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, 10*time.Minute)
	go limiter.Run(time.Minute, ctx.Done())

	// 初始化路由
	router, err := api.SetupRouter(cfg, log, api.Services{
		Mobility: mobility,
		Exports:  service.NewExportService(mobility),
		Maps:     maps,
		Charts:   service.NewChartService(mobility),
		Pipeline: pipelineService,
	}, limiter)
	if err != nil {
		log.Fatal("Failed to set up router", "error", err)
	}

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", "error", err)
		}
	}()

	// 启动服务器
	log.Info("Server starting", "addr", cfg.Port, "mode", cfg.Mode, "data_dir", cfg.DataDir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to start server", "error", err)
	}
	log.Info("Server stopped")
}
