package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"kejebe-backend/internal/adapters/repo"
	"kejebe-backend/internal/domain"
	"kejebe-backend/internal/infra/config"
	"kejebe-backend/internal/infra/db"
	"kejebe-backend/internal/infra/log"
	"kejebe-backend/internal/infra/metrics"
	"kejebe-backend/internal/infra/queue"
)

// Воркер вычитывает события показа главной страницы из очереди и
// складывает их в БД для аналитики.
func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("feed-events-worker: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	rabbit, err := queue.NewRabbitFeedEvents(cfg.AMQPURL, cfg.Queues.FeedEvents)
	if err != nil {
		logger.Fatal().Err(err).Msg("feed-events-worker: нет подключения к брокеру")
	}
	defer rabbit.Close()

	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	logger.Info().Str("queue", cfg.Queues.FeedEvents).Msg("feed-events-worker: запущен")
	err = rabbit.Consume(ctx, func(ctx context.Context, event domain.FeedViewEvent) error {
		if err := repoAdapter.SaveFeedView(ctx, event); err != nil {
			logger.Error().Err(err).Int64("config_id", event.ConfigID).Msg("feed-events-worker: событие не сохранено")
			return err
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("feed-events-worker: чтение очереди прервано")
	}
	logger.Info().Msg("feed-events-worker: остановка")
}
