package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appintegration "github.com/erp/ordersync/internal/application/integration"
	"github.com/erp/ordersync/internal/infrastructure/config"
	"github.com/erp/ordersync/internal/infrastructure/logger"
	"github.com/erp/ordersync/internal/infrastructure/netsuite"
	"github.com/erp/ordersync/internal/infrastructure/telemetry"
	"github.com/erp/ordersync/internal/interfaces/http/handler"
	"github.com/erp/ordersync/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Order Sync API
//	@version		1.0
//	@description	Pushes storefront orders and campaign leads into the ERP
//	@BasePath		/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logCfg.Output = cfg.Log.Output
	logCfg.Service = cfg.App.Name
	logCfg.Version = cfg.App.Version
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting order sync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tp, err := telemetry.NewProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		ExportLogs:        cfg.Telemetry.ExportLogs,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = tp.BridgeLogger(log, zapcore.InfoLevel)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if cfg.Profiling.SpanProfiles {
		tp.EnableSpanProfiles(profiler)
	}

	meter := tp.Meter(cfg.Telemetry.ServiceName)
	syncMetrics, err := telemetry.NewSyncMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create sync metrics", zap.Error(err))
	}

	// ERP adapters
	nsConfig := netsuiteConfig(cfg.NetSuite)
	gateway, err := netsuite.NewGateway(nsConfig, log, netsuite.WithMetrics(syncMetrics))
	if err != nil {
		log.Fatal("Failed to create NetSuite gateway", zap.Error(err))
	}
	query := netsuite.NewQueryExecutor(gateway, nsConfig, log)
	customerStore := netsuite.NewCustomerStore(gateway, query, log)
	itemStore := netsuite.NewItemStore(gateway, query, log)
	salesOrderStore := netsuite.NewSalesOrderStore(gateway, query, log)
	campaignStore := netsuite.NewCampaignStore(gateway, query, log)
	leadStore := netsuite.NewLeadStore(gateway, query, log)
	log.Info("NetSuite gateway ready",
		zap.String("account", nsConfig.AccountID),
		zap.String("base_url", nsConfig.ResolvedBaseURL()),
	)

	// Application services
	settings := syncSettings(cfg.Sync)
	customerResolver := appintegration.NewCustomerResolver(customerStore, settings, log)
	itemResolver := appintegration.NewItemResolver(itemStore, settings, log)
	synthesizer := appintegration.NewOrderSynthesizer(customerStore, itemStore, salesOrderStore,
		customerResolver, itemResolver, settings, log)
	statusChecker := appintegration.NewSyncStatusChecker(salesOrderStore, settings, log)
	syncService := appintegration.NewOrderSyncService(customerResolver, synthesizer, statusChecker,
		salesOrderStore, settings, log)
	syncService.SetMetrics(syncMetrics)
	leadService := appintegration.NewLeadService(campaignStore, leadStore, settings, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger:         log,
		Meter:          meter,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: cfg.Telemetry.Enabled,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}, router.Handlers{
		System:    handler.NewSystemHandler(cfg.App.Name, cfg.App.Version),
		OrderSync: handler.NewOrderSyncHandler(syncService, cfg.HTTP.MaxBatchSize),
		Lead:      handler.NewLeadHandler(leadService),
	})

	srv := &http.Server{
		Addr:           cfg.App.Addr(),
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown; in-flight batches get the shutdown timeout to finish
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
