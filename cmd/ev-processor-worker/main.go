package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/ev-scanner-poc/pkg/contracts/events"

	"github.com/radieske/ev-scanner-poc/internal/ev-processor/cache"
	"github.com/radieske/ev-scanner-poc/internal/ev-processor/consumer"
	"github.com/radieske/ev-scanner-poc/internal/ev-processor/pubsub"
	"github.com/radieske/ev-scanner-poc/internal/ev-processor/repository"
	sharedcache "github.com/radieske/ev-scanner-poc/internal/shared/cache"
	"github.com/radieske/ev-scanner-poc/internal/shared/config"
	"github.com/radieske/ev-scanner-poc/internal/shared/db"
	sharedkafka "github.com/radieske/ev-scanner-poc/internal/shared/kafka"
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

	// Inicializa dependências: Postgres e Redis
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

	// Instancia cache Redis e repositório Postgres para oportunidades
	ttl := 60 * time.Second
	rcache := cache.NewRedisCache(redisClient, ttl)
	repo := repository.NewPostgresRepo(pg)

	// Configura o consumer Kafka (consumer group ev-processor) e o writer de DLQ
	reader := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicQuoteBatches, "ev-processor")
	defer reader.Close()
	dlq := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicQuoteBatchesDLQ)
	defer dlq.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "ev_proc_batches_consumed_total", Help: "lotes de cotações consumidos"})
	computed := prometheus.NewCounter(prometheus.CounterOpts{Name: "ev_proc_opportunities_computed_total", Help: "oportunidades calculadas"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "ev_proc_db_writes_total", Help: "escritas no banco (upsert+history)"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ev_proc_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, computed, persist, errorsBy)

	// Broadcaster para publicar oportunidades no Redis Pub/Sub (usado pelo ev-service/ws)
	broadcaster := pubsub.NewRedisBroadcaster(redisClient)

	// Instancia o processor, conectando callbacks de métricas e broadcast
	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		DLQ:        dlq,
		Repo:       repo,
		Cache:      rcache,
		Engine:     cfg.Engine,
		OnConsumed: func() { consumed.Inc() },
		OnComputed: func() { computed.Inc() },
		OnPersist:  func() { persist.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },

		// Após sucesso de persistência, envia update para o WebSocket via Redis Pub/Sub
		OnAfterPersist: func(o events.EVOpportunity) {
			msg := pubsub.WSUpdate{FixtureID: o.FixtureID, Payload: o}
			b, _ := json.Marshal(msg)

			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			if err := broadcaster.Publish(ctx, pubsub.ChannelEVBroadcast, b); err != nil {
				log.Warn("ws broadcast publish failed", zap.Error(err))
			}
		},
	}

	// Servidor HTTP para métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return redisClient.Ping(ctx).Err()
	})

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("ev-processor started",
		zap.Int("min_books", cfg.Engine.MinBooks),
		zap.Float64("min_ev_percent", cfg.Engine.MinEVPercent),
		zap.String("sharp_book", cfg.Engine.SharpBookID),
		zap.Strings("target_books", cfg.Engine.TargetBookIDs),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("ev-processor stopped")
}
