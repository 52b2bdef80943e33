package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	attendancehandler "github.com/zenGate-Global/palmyra-gym/domains/attendance/be/handler"
	attendancerepo "github.com/zenGate-Global/palmyra-gym/domains/attendance/be/repo"
	attendanceservice "github.com/zenGate-Global/palmyra-gym/domains/attendance/be/service"
	billinghandler "github.com/zenGate-Global/palmyra-gym/domains/billing/be/handler"
	billingrepo "github.com/zenGate-Global/palmyra-gym/domains/billing/be/repo"
	billingservice "github.com/zenGate-Global/palmyra-gym/domains/billing/be/service"
	classeshandler "github.com/zenGate-Global/palmyra-gym/domains/classes/be/handler"
	classesrepo "github.com/zenGate-Global/palmyra-gym/domains/classes/be/repo"
	classesservice "github.com/zenGate-Global/palmyra-gym/domains/classes/be/service"
	membershandler "github.com/zenGate-Global/palmyra-gym/domains/members/be/handler"
	membersrepo "github.com/zenGate-Global/palmyra-gym/domains/members/be/repo"
	membersservice "github.com/zenGate-Global/palmyra-gym/domains/members/be/service"
	subscriptionshandler "github.com/zenGate-Global/palmyra-gym/domains/subscriptions/be/handler"
	subscriptionsrepo "github.com/zenGate-Global/palmyra-gym/domains/subscriptions/be/repo"
	subscriptionsservice "github.com/zenGate-Global/palmyra-gym/domains/subscriptions/be/service"
	tenantshandler "github.com/zenGate-Global/palmyra-gym/domains/tenants/be/handler"
	tenantsrepo "github.com/zenGate-Global/palmyra-gym/domains/tenants/be/repo"
	tenantsservice "github.com/zenGate-Global/palmyra-gym/domains/tenants/be/service"
	"github.com/zenGate-Global/palmyra-gym/platform/go/cache"
	platformlogging "github.com/zenGate-Global/palmyra-gym/platform/go/logging"
	"github.com/zenGate-Global/palmyra-gym/platform/go/metrics"
	"github.com/zenGate-Global/palmyra-gym/platform/go/persistence"
	tenantmiddleware "github.com/zenGate-Global/palmyra-gym/platform/go/tenant/middleware"
)

func main() {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "gym-api",
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
		ConnString:       cfg.DatabaseURL,
		ApplicationName:  "gym-api",
		StatementTimeout: cfg.DBStmtTimeout,
		MaxConns:         cfg.DBMaxConns,
		MaxConnIdleTime:  cfg.DBMaxConnIdle,
	})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	if cfg.BootstrapSchema {
		if err := persistence.Bootstrap(ctx, pool, cfg.DBSchema); err != nil {
			logger.Fatal("bootstrap schema", zap.String("schema", cfg.DBSchema), zap.Error(err))
		}
		logger.Info("schema bootstrapped", zap.String("schema", cfg.DBSchema))
	}

	recorder := metrics.New(cfg.MetricsPrefix)

	tenantDB := persistence.NewTenantDB(persistence.TenantDBConfig{
		Pool:   pool,
		Schema: cfg.DBSchema,
	})
	entityStore := persistence.NewEntityStore(tenantDB)
	branchStore := persistence.NewBranchStore(tenantDB)

	var branches tenantmiddleware.BranchResolver = branchStore
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal("init redis client", zap.Error(err))
		}
		defer redisClient.Close()
		branches = cache.NewBranchTenantCache(redisClient, branchStore, cfg.BranchCacheTTL, logger)
	}

	tenantService := tenantsservice.New(
		tenantsrepo.NewPostgresRepository(persistence.NewTenantStore(tenantDB), branchStore),
		recorder,
	)
	memberService := membersservice.New(
		membersrepo.NewPostgresRepository(persistence.NewMemberStore(tenantDB), entityStore),
		recorder,
	)
	attendanceService := attendanceservice.New(
		attendancerepo.NewPostgresRepository(persistence.NewAttendanceStore(tenantDB)),
		recorder,
	)
	subscriptionService := subscriptionsservice.New(
		subscriptionsrepo.NewPostgresRepository(persistence.NewSubscriptionStore(tenantDB)),
		recorder,
	)
	classService := classesservice.New(
		classesrepo.NewPostgresRepository(persistence.NewClassStore(tenantDB), entityStore),
		recorder,
	)
	billingService := billingservice.New(
		billingrepo.NewPostgresRepository(persistence.NewInvoiceStore(tenantDB), persistence.NewPosStore(tenantDB), entityStore),
		recorder,
	)

	router := newRouter(routerDeps{
		Logger:         logger,
		Metrics:        recorder,
		Auth:           buildAuthMiddleware(cfg, logger),
		Branches:       branches,
		ScopeCacheTTL:  cfg.ScopeCacheTTL,
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigins:    cfg.CORSOrigins,
		Ready:          pool.Ping,
		Handlers: []routeMounter{
			tenantshandler.New(tenantService, logger),
			membershandler.New(memberService, logger),
			attendancehandler.New(attendanceService, logger),
			subscriptionshandler.New(subscriptionService, logger),
			classeshandler.New(classService, logger),
			billinghandler.New(billingService, logger),
		},
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port), zap.String("schema", cfg.DBSchema))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
