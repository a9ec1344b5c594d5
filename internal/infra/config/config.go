package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Asia/Ashgabat"`
	Port   int    `envconfig:"PORT" default:"8080"`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN          string `envconfig:"PG_DSN"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"false"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQPURL string `envconfig:"AMQP_URL"`

	Queues struct {
		FeedEvents string `envconfig:"FEED_EVENTS_QUEUE" default:"feed_view_events"`
	} `envconfig:""`

	I18N struct {
		DefaultLang    string   `envconfig:"DEFAULT_LANG" default:"tm"`
		SupportedLangs []string `envconfig:"SUPPORTED_LANGS" default:"tm,ru,en"`
	} `envconfig:""`

	Feed struct {
		CacheTTL           time.Duration `envconfig:"FEED_CACHE_TTL" default:"60s"`
		CategoryStripLimit int           `envconfig:"CATEGORY_STRIP_LIMIT" default:"6"`
		DefaultRegionID    int64         `envconfig:"DEFAULT_REGION_ID" default:"0"`
		StoryTTLHours      int           `envconfig:"SERVICE_STORY_TTL_HOURS" default:"24"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
