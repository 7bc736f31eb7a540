package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	evcache "github.com/radieske/ev-scanner-poc/internal/ev-service/cache"
	httpapi "github.com/radieske/ev-scanner-poc/internal/ev-service/http"
	"github.com/radieske/ev-scanner-poc/internal/ev-service/repo"
	"github.com/radieske/ev-scanner-poc/internal/ev-service/ws"
	sharedcache "github.com/radieske/ev-scanner-poc/internal/shared/cache"
	"github.com/radieske/ev-scanner-poc/internal/shared/config"
	"github.com/radieske/ev-scanner-poc/internal/shared/db"
	"github.com/radieske/ev-scanner-poc/internal/shared/logger"
	"github.com/radieske/ev-scanner-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Conexões de leitura: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// API REST de consulta de oportunidades
	api := &httpapi.API{
		ReadRepo: &repo.ReadRepo{DB: pg},
		Cache:    evcache.New(redisClient),
	}

	// Hub WebSocket alimentado pelo Redis Pub/Sub do worker
	hub := ws.NewHub(func(r *http.Request) bool { return true }) // origens liberadas no POC
	ws.StartRedisSubscriber(ctx, redisClient, hub)

	root := chi.NewRouter()
	root.Mount("/", api.Router())
	root.Get("/ws", hub.HandleWS)

	// Servidor HTTP para métricas e health check em porta separada
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: root,
	}

	go func() {
		log.Info("ev-service listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	log.Info("ev-service stopped")
}
