// Package main provides the star map daemon: it loads the star catalog, keeps
// it fresh, and answers proximity, travel and routing queries over gRPC.
package main

import (
	"context"
	"flag"
	"log"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cory-johannsen/starmap/internal/catalog"
	"github.com/cory-johannsen/starmap/internal/config"
	"github.com/cory-johannsen/starmap/internal/mapserver"
	"github.com/cory-johannsen/starmap/internal/observability"
	"github.com/cory-johannsen/starmap/internal/server"
	"github.com/cory-johannsen/starmap/internal/storage"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the environment is read")
	maxJumps := flag.Int("max-jumps", 0, "default jump limit for planned routes (0 = unbounded)")
	flag.Parse()

	ctx := context.Background()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("loading env file: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting star map server",
		zap.String("grpc_addr", cfg.Server.Addr()),
		zap.String("catalog", cfg.Catalog.Dir),
		zap.String("storage", cfg.Storage.Driver),
	)

	store, closeStore, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening route store", zap.Error(err))
	}
	defer closeStore()

	// The catalog loads in the background; queries report Unavailable until it
	// is ready.
	cat := catalog.New(logger)
	source := &catalog.DirSource{
		Dir:          cfg.Catalog.Dir,
		OverridesDir: cfg.Catalog.OverridesDir,
		Workers:      cfg.Catalog.LoadWorkers,
		Logger:       logger,
	}
	loaded := cat.LoadAsync(ctx, source)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(mapserver.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	interceptors := []grpc.UnaryServerInterceptor{observability.UnaryLogger(logger)}
	var limiter *mapserver.RateLimiter
	if cfg.Server.RateLimitRPS > 0 {
		limiter = mapserver.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, logger)
		interceptors = append(interceptors, limiter.Unary())
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	opts := []mapserver.Option{mapserver.WithMaxJumps(*maxJumps)}
	if store != nil {
		opts = append(opts, mapserver.WithStore(store))
	}
	mapserver.Register(grpcServer, mapserver.NewServer(cat, logger, opts...))
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("catalog", &server.FuncService{
		StartFn: func(ctx context.Context) error {
			select {
			case err := <-loaded:
				if err != nil {
					return err
				}
			case <-ctx.Done():
				return nil
			}
			healthSrv.SetServingStatus(mapserver.ServiceName, healthpb.HealthCheckResponse_SERVING)
			logger.Info("catalog ready",
				zap.Int("stars", cat.Len()),
				zap.Duration("since_start", time.Since(start)),
			)
			<-ctx.Done()
			return nil
		},
	})
	if cfg.Catalog.Watch {
		watcher, err := catalog.NewWatcher(cat, source, logger)
		if err != nil {
			logger.Fatal("creating catalog watcher", zap.Error(err))
		}
		watcher.SetDebounce(cfg.Catalog.ReloadDebounce)
		var watching atomic.Bool
		lifecycle.Add("catalog-watcher", &server.FuncService{
			StartFn: func(ctx context.Context) error {
				if err := watcher.Start(ctx); err != nil {
					return err
				}
				watching.Store(true)
				<-ctx.Done()
				return nil
			},
			StopFn: func() {
				if watching.Load() {
					watcher.Stop()
				}
			},
		})
	}
	if limiter != nil {
		lifecycle.Add("rate-limit-sweeper", &server.FuncService{
			StartFn: func(ctx context.Context) error {
				limiter.Run(ctx, time.Minute)
				return nil
			},
		})
	}
	lifecycle.Add("grpc", &server.GRPCService{
		Server:          grpcServer,
		Addr:            cfg.Server.Addr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          logger,
	})

	logger.Info("star map server initialized", zap.Duration("startup", time.Since(start)))
	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("star map server stopped with error", zap.Error(err))
	}
}
