package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	FeedRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "home_feed_requests_total",
		Help: "Количество запросов на сборку главной страницы",
	})
	FeedEmptyTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "home_feed_empty_total",
		Help: "Сборки без подходящей конфигурации",
	})
	FeedBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "home_feed_build_seconds",
		Help:    "Время сборки главной страницы",
		Buckets: prometheus.DefBuckets,
	})
	FeedBlocksBuilt = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "home_feed_blocks_built_total",
		Help: "Построенные блоки по типам",
	}, []string{"type"})
	FeedCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "home_feed_cache_hits_total",
		Help: "Попадания в кэш анонимной выдачи",
	})
	FeedEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_events_published_total",
		Help: "Опубликованные события показа",
	}, []string{"status"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		FeedRequestsTotal,
		FeedEmptyTotal,
		FeedBuildSeconds,
		FeedBlocksBuilt,
		FeedCacheHits,
		FeedEventsPublished,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveFeedEventPublish фиксирует исход публикации события показа.
func ObserveFeedEventPublish(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	FeedEventsPublished.WithLabelValues(status).Inc()
}
