package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/ev-scanner-poc/internal/quote-ingest/publisher"
	"github.com/radieske/ev-scanner-poc/internal/quote-ingest/service"
	"github.com/radieske/ev-scanner-poc/internal/shared/config"
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

	log.Info("Kafka brokers", zap.String("brokers", cfg.KafkaBrokers))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Kafka Publisher
	pub := publisher.NewKafkaPublisher(
		strings.Split(cfg.KafkaBrokers, ","),
		cfg.TopicQuoteBatches,
		log,
	)
	defer pub.Close()

	published := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quote_ingest_batches_published_total",
		Help: "lotes de cotações publicados no Kafka",
	})
	prometheus.MustRegister(published)

	// WS Client
	wsClient := &service.WSClient{
		URL:         cfg.ProviderWSURL,
		Log:         log,
		Publisher:   pub,
		OnPublished: func() { published.Inc() },
	}
	go wsClient.Start(ctx)

	// Metrics e health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return nil // serviço sem dependências síncronas além do Kafka
	})

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutdown signal received")
	cancel()
	time.Sleep(2 * time.Second)
}
