package main

import (
	"context"
	"net"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	appservice "saleservice/pkg/sale/application/service"
	domainservice "saleservice/pkg/sale/domain/service"
	"saleservice/pkg/sale/infrastructure/cache"
	"saleservice/pkg/sale/infrastructure/metrics"
	"saleservice/pkg/sale/infrastructure/postgres"
	"saleservice/pkg/sale/infrastructure/transport"
)

func service(logger *log.Logger) *cli.Command {
	return &cli.Command{
		Name:   "service",
		Usage:  "run the REST API and the gRPC health service",
		Action: func(c *cli.Context) error { return runService(c.Context, logger) },
	}
}

func runService(ctx context.Context, logger *log.Logger) error {
	cfg, err := parseEnv()
	if err != nil {
		return err
	}
	if err := initLogger(logger, cfg.LogLevel); err != nil {
		return err
	}

	db, err := postgres.Open(ctx, cfg.DatabaseDSN, postgres.PoolConfig{
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB, appID),
	)
	dispatcher, err := metrics.NewEventDispatcher(registry, logger)
	if err != nil {
		return errors.Wrap(err, "register metrics")
	}

	references := cache.NewReferenceRepository(
		postgres.NewReferenceRepository(db),
		cfg.PaymentMethodCacheSize,
		cfg.PaymentMethodCacheTTL,
	)
	taxService := domainservice.NewTaxService(postgres.NewTaxRuleRepository(db), logger)
	saleService := appservice.NewSaleService(
		postgres.NewSaleRepository(db),
		references,
		taxService,
		dispatcher,
		logger,
		appservice.Config{
			DefaultJurisdiction: cfg.DefaultJurisdiction,
			MaxSyncBatchSize:    cfg.MaxSyncBatchSize,
		},
	)

	httpServer := &http.Server{
		Addr:    cfg.ServeRESTAddress,
		Handler: transport.Router(saleService, registry, logger),
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(appID, healthpb.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("address", cfg.ServeRESTAddress).Info("starting REST server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve REST")
		}
		return nil
	})
	g.Go(func() error {
		listener, err := net.Listen("tcp", cfg.ServeGRPCAddress)
		if err != nil {
			return errors.Wrap(err, "listen gRPC")
		}
		logger.WithField("address", cfg.ServeGRPCAddress).Info("starting gRPC server")
		return errors.Wrap(grpcServer.Serve(listener), "serve gRPC")
	})
	g.Go(func() error {
		<-gctx.Done()
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		logger.Info("servers stopped")
		return errors.Wrap(err, "shutdown REST")
	})
	return g.Wait()
}
