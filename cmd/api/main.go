package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"kejebe-backend/internal/adapters/repo"
	"kejebe-backend/internal/domain"
	"kejebe-backend/internal/infra/cache"
	"kejebe-backend/internal/infra/config"
	"kejebe-backend/internal/infra/db"
	httpinfra "kejebe-backend/internal/infra/http"
	"kejebe-backend/internal/infra/log"
	"kejebe-backend/internal/infra/metrics"
	"kejebe-backend/internal/infra/queue"
	"kejebe-backend/internal/usecase/homefeed"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.PGDSN); err != nil {
			logger.Fatal().Err(err).Msg("api: миграции не применились")
		}
	}

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	repoAdapter := repo.NewPostgres(pool)

	var feedCache domain.Cache
	if cfg.RedisAddr != "" {
		feedCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	var events domain.FeedEventPublisher
	if cfg.AMQPURL != "" {
		rabbit, err := queue.NewRabbitFeedEvents(cfg.AMQPURL, cfg.Queues.FeedEvents)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к брокеру")
		}
		defer rabbit.Close()
		events = rabbit
	}

	feed := homefeed.NewService(homefeed.Config{
		DefaultLang:        cfg.I18N.DefaultLang,
		SupportedLangs:     cfg.I18N.SupportedLangs,
		CategoryStripLimit: cfg.Feed.CategoryStripLimit,
		DefaultRegionID:    cfg.Feed.DefaultRegionID,
		StoryTTL:           time.Duration(cfg.Feed.StoryTTLHours) * time.Hour,
	}, repoAdapter, repoAdapter, repoAdapter, repoAdapter, repoAdapter, repoAdapter, logger)

	h := &homeHandler{
		feed:     feed,
		cache:    feedCache,
		cacheTTL: cfg.Feed.CacheTTL,
		events:   events,
		logger:   logger,
	}

	server := httpinfra.NewServer(logger)
	mountRoutes(server.Router, h, httpinfra.IdentityMiddleware(repoAdapter, repoAdapter, logger))

	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	go func() {
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api: HTTP сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

// mountRoutes вешает резолв пользователя и устройства только на фид:
// служебные ручки не должны писать в БД.
func mountRoutes(r chi.Router, h *homeHandler, identity func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(identity)
		r.Get("/home", h.serve)
		r.Get("/api/v1/home", h.serve)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpinfra.WriteJSON(w, map[string]string{"status": "ok"})
	})
}

type homeHandler struct {
	feed     *homefeed.Service
	cache    domain.Cache
	cacheTTL time.Duration
	events   domain.FeedEventPublisher
	logger   zerolog.Logger
}

func (h *homeHandler) serve(w http.ResponseWriter, r *http.Request) {
	req := homefeed.Request{
		LangParam:           r.URL.Query().Get("lang"),
		AcceptLanguage:      r.Header.Get("Accept-Language"),
		CityIDParam:         r.URL.Query().Get("city_id"),
		RegionIDParam:       r.URL.Query().Get("region_id"),
		LocationFilterParam: r.URL.Query().Get("location_filter"),
		Device:              httpinfra.DeviceFrom(r.Context()),
		User:                httpinfra.UserFrom(r.Context()),
	}

	// Кэшируется только анонимная выдача: у авторизованных в ответе
	// персональные флаги избранного.
	cacheKey := ""
	if req.User == nil && h.cache != nil {
		cacheKey = anonFeedKey(req)
		if cached, err := h.cache.Get(cacheKey); err == nil && len(cached) > 0 {
			metrics.FeedCacheHits.Inc()
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(cached)
			return
		}
	}

	feed, err := h.feed.Build(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", httpinfra.RequestID(r)).Msg("api: сборка главной страницы не удалась")
		httpinfra.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	body, err := json.Marshal(feed)
	if err != nil {
		httpinfra.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if cacheKey != "" {
		if err := h.cache.Set(cacheKey, body, h.cacheTTL); err != nil {
			h.logger.Warn().Err(err).Msg("api: не удалось закэшировать выдачу")
		}
	}

	go h.publishView(feed, req)

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// publishView отправляет аналитическое событие показа. Вызывается вне
// обработчика запроса, ответ не задерживает.
func (h *homeHandler) publishView(feed domain.Feed, req homefeed.Request) {
	if h.events == nil || feed.Version == 0 {
		return
	}
	event := domain.FeedViewEvent{
		ConfigID:   feed.Version,
		Lang:       h.feed.ResolveLanguage(req),
		Blocks:     len(feed.Blocks),
		OccurredAt: time.Now().UTC(),
	}
	if feed.City != nil {
		cityID := feed.City.ID
		event.CityID = &cityID
		if feed.City.Region != nil {
			regionID := feed.City.Region.ID
			event.RegionID = &regionID
		}
	}
	if req.User != nil {
		userID := req.User.ID
		event.UserID = &userID
	}
	if req.Device != nil {
		event.DeviceID = req.Device.DeviceID
	}

	publish := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := h.events.PublishFeedView(ctx, event)
		metrics.ObserveFeedEventPublish(err)
		return err
	}

	var err error
	// Одно событие на устройство и конфиг за TTL кэша, чтобы повторные
	// открытия главной не раздували аналитику.
	if h.cache != nil && event.DeviceID != "" {
		key := fmt.Sprintf("feed:viewed:%d:%s", event.ConfigID, event.DeviceID)
		err = h.cache.Once(key, h.cacheTTL, publish)
	} else {
		err = publish()
	}
	if err != nil {
		h.logger.Warn().Err(err).Msg("api: событие показа не опубликовано")
	}
}

// anonFeedKey собирает ключ кэша из всех сигналов, влияющих на анонимную
// выдачу, включая локацию устройства.
func anonFeedKey(req homefeed.Request) string {
	var b strings.Builder
	b.WriteString("feed:v1:")
	b.WriteString(req.LangParam)
	b.WriteString("|")
	b.WriteString(req.AcceptLanguage)
	b.WriteString("|")
	b.WriteString(req.CityIDParam)
	b.WriteString("|")
	b.WriteString(req.RegionIDParam)
	b.WriteString("|")
	b.WriteString(req.LocationFilterParam)
	if req.Device != nil {
		if req.Device.CityID != nil {
			fmt.Fprintf(&b, "|dc%d", *req.Device.CityID)
		}
		if req.Device.RegionID != nil {
			fmt.Fprintf(&b, "|dr%d", *req.Device.RegionID)
		}
	}
	return b.String()
}
