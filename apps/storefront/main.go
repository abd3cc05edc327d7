package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-boutique/apps/product"
	"go-boutique/apps/schema"
	"go-boutique/apps/storefront/middleware"
	"go-boutique/pkg/config"
	"go-boutique/pkg/database"
	"go-boutique/pkg/discovery"
	"go-boutique/pkg/events"
	"go-boutique/pkg/logger"
	"go-boutique/pkg/session"
	"go-boutique/pkg/tracer"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const sessionSweepInterval = 5 * time.Minute

func main() {
	configPath := flag.String("config", ".", "directory holding config.yaml")
	seed := flag.Bool("seed", false, "load sample catalog data and exit")
	promote := flag.String("promote", "", "grant staff role to the given username and exit")
	flag.Parse()

	c, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(c.Log)
	defer func() { _ = log.Sync() }()

	if err := run(c, log, *seed, *promote); err != nil {
		log.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(c *config.Config, log *zap.Logger, seed bool, promote string) error {
	shutdownTracer, err := tracer.InitTracer(c.Service, c.Tracing)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	db, err := database.InitMySQL(c.Mysql, log, c.Tracing.Enabled)
	if err != nil {
		return err
	}
	if err := schema.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}

	mem := session.NewMemoryStore()
	var store session.Store = mem
	if c.Redis.Address != "" {
		rdb, err := database.InitRedis(c.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb, "boutique:session:")
	} else {
		log.Warn("redis address empty, sessions are kept in memory")
		sweepCtx, stopSweep := context.WithCancel(context.Background())
		defer stopSweep()
		go mem.Janitor(sweepCtx, sessionSweepInterval)
	}

	bus := events.NewBus(log)
	if c.Rabbitmq.URL != "" {
		pub, err := events.NewRabbitPublisher(c.Rabbitmq.URL, c.Rabbitmq.Exchange, log)
		if err != nil {
			return err
		}
		defer pub.Close()
		bus.Subscribe(events.Wildcard, pub.Handle)
	}

	// 搜索：ES 不可用时回退到 SQL LIKE
	var (
		searcher product.Searcher
		elastic  *product.ElasticSearcher
	)
	if c.Elastic.URL != "" {
		elastic, err = product.NewElasticSearcher(c.Elastic.URL, c.Elastic.Index, log)
		if err != nil {
			return err
		}
		searcher = elastic
	}

	a := NewApp(c, log, db, store, bus, searcher)

	ctx := context.Background()
	switch {
	case seed:
		return Seed(ctx, db, elastic, log)
	case promote != "":
		if err := a.users.Promote(ctx, promote); err != nil {
			return err
		}
		log.Info("user promoted to staff", zap.String("username", promote))
		return nil
	}

	if err := middleware.InitSentinel(c.RateLimit); err != nil {
		return err
	}
	a.rateLimit = true

	return serve(a)
}

// serve runs HTTP (and the optional gRPC health endpoint) until SIGINT/SIGTERM.
func serve(a *App) error {
	c, log := a.cfg, a.log

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.Service.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 2)
	go func() {
		log.Info("Storefront listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var gs *grpc.Server
	if c.Service.GRPCPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", c.Service.GRPCPort))
		if err != nil {
			return fmt.Errorf("listening for grpc: %w", err)
		}
		gs = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		hs := health.NewServer()
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		hs.SetServingStatus(c.Service.Name, healthpb.HealthCheckResponse_SERVING)
		healthpb.RegisterHealthServer(gs, hs)
		reflection.Register(gs)
		go func() {
			log.Info("gRPC health listening", zap.Int("port", c.Service.GRPCPort))
			if err := gs.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	if c.Consul.Address != "" {
		deregister, err := discovery.RegisterService(c.Consul.Address, discovery.Registration{
			Name:     c.Service.Name,
			Port:     c.Service.Port,
			GRPCPort: c.Service.GRPCPort,
		}, log)
		if err != nil {
			log.Warn("consul registration failed", zap.Error(err))
		} else {
			defer func() {
				if err := deregister(); err != nil {
					log.Warn("consul deregistration failed", zap.Error(err))
				}
			}()
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if gs != nil {
		gs.GracefulStop()
	}
	return srv.Shutdown(ctx)
}
