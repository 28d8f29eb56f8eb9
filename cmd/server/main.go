package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/todo/api/handler"
	"github.com/fastygo/todo/internal/config"
	"github.com/fastygo/todo/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/todo/internal/infrastructure/redis"
	"github.com/fastygo/todo/internal/infrastructure/storage"
	"github.com/fastygo/todo/internal/middleware"
	"github.com/fastygo/todo/internal/router"
	"github.com/fastygo/todo/internal/services/lifecycle"
	"github.com/fastygo/todo/pkg/httpcontext"
	"github.com/fastygo/todo/pkg/logger"
	"github.com/fastygo/todo/repository"
	redisRepo "github.com/fastygo/todo/repository/redis"
	"github.com/fastygo/todo/usecase"
	todoUC "github.com/fastygo/todo/usecase/todo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Output:   cfg.Logger.Output,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger = zapLogger.With(zap.String("app", cfg.AppName), zap.String("env", cfg.Environment))

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	todoRepo, closeStore, err := storage.Open(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("store initialization failed", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	manager.Register("store", lifecycle.ShutdownFunc(closeStore))

	mon := monitor.New(cfg.Monitor.Interval, zapLogger)
	mon.AddCheck("store", todoRepo.Ping)

	var listCache repository.ListCache
	if cfg.Cache.Enabled {
		redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.RegisterCloser("redis", redisClient)
		mon.AddCheck("cache", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		listCache = redisRepo.NewListCache(redisClient, cfg.Cache.TTL)
	}

	mon.Start(appCtx)
	manager.Register("monitor", mon.Stop)

	dispatcher := usecase.NewDispatcher()
	dispatcher.Use(usecase.LoggingBehavior(zapLogger))
	todoUC.Register(dispatcher, todoUC.New(todoRepo, listCache, zapLogger))

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Todo:   apiHandler.NewTodoHandler(dispatcher, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	opts := router.Options{Logger: zapLogger}
	if cfg.JWT.Secret != "" {
		opts.TodoAuth = middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
		zapLogger.Info("bearer auth enabled for /todos")
	}
	r := router.New(handlers, opts)

	server := &fasthttp.Server{
		Handler:      router.Chain(r.Handler, middleware.AccessLog(zapLogger)),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("store", cfg.Store.Driver),
			zap.Bool("cache", listCache != nil))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
