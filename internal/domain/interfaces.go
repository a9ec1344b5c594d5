package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound возвращается репозиториями, когда запись отсутствует.
var ErrNotFound = errors.New("запись не найдена")

// ConfigRepo отдаёт конфигурации главной страницы и их блоки.
type ConfigRepo interface {
	// ListConfigCandidates возвращает активные конфигурации, совместимые
	// с языком и локацией запроса (поле не задано либо совпадает).
	// Ранжирование кандидатов выполняет вызывающая сторона.
	ListConfigCandidates(ctx context.Context, lang string, cityID, regionID *int64) ([]HomePageConfig, error)
	ListActiveBlocks(ctx context.Context, configID int64) ([]HomeBlock, error)
	ListManualItems(ctx context.Context, blockID int64) ([]HomeBlockItem, error)
}

// ServiceFilter описывает выборку активных сервисов.
type ServiceFilter struct {
	IDs         []int64
	ExcludeIDs  []int64
	CategoryIDs []int64
	TagIDs      []int64
	// CityIDs матчит основной город либо любой из доступных городов.
	CityIDs []int64
	// RegionIDs матчит регион основного города либо доступных городов.
	RegionIDs []int64
	// LocationCityID/LocationRegionID — сужение по разрешённой локации
	// запроса, накладывается поверх остальных фильтров.
	LocationCityID   *int64
	LocationRegionID *int64
	Ordering         string
	Limit            int
	ViewerID         *int64
	WithImages       bool
	WithTags         bool
}

// ServiceRepo отдаёт активные сервисы с аннотациями рейтинга,
// количества одобренных отзывов и флага избранного.
type ServiceRepo interface {
	ListActive(ctx context.Context, filter ServiceFilter) ([]Service, error)
}

// BannerFilter описывает выборку баннеров, активных в данный момент.
type BannerFilter struct {
	Now       time.Time
	CityIDs   []int64
	RegionIDs []int64
	// Локационное сужение: баннер подходит, если его список городов или
	// регионов пуст либо содержит разрешённую локацию.
	LocationCityID   *int64
	LocationRegionID *int64
	Limit            int
}

// BannerRepo отдаёт баннеры.
type BannerRepo interface {
	ListActiveNow(ctx context.Context, filter BannerFilter) ([]Banner, error)
	ListBannersByIDs(ctx context.Context, ids []int64) ([]Banner, error)
}

// CategoryRepo отдаёт категории.
type CategoryRepo interface {
	// ListTopLevel возвращает корневые категории, опционально суженные
	// допуск-списком идентификаторов, в порядке (priority, id).
	ListTopLevel(ctx context.Context, ids []int64) ([]Category, error)
	ListCategoriesByIDs(ctx context.Context, ids []int64) ([]Category, error)
}

// StoryRepo отдаёт активные сторис вместе с их сервисами.
type StoryRepo interface {
	// ListStoriesActiveNow возвращает сторис в окне показа,
	// отсортированные по (service_id, priority, starts_at desc,
	// created_at desc), с предзагруженными сервисами и их доступными
	// городами.
	ListStoriesActiveNow(ctx context.Context, now time.Time) ([]ServiceStory, error)
}

// LocationRepo отдаёт города и регионы.
type LocationRepo interface {
	GetCity(ctx context.Context, id int64) (City, error)
	GetRegion(ctx context.Context, id int64) (Region, error)
}

// DeviceRepo управляет привязками устройств.
type DeviceRepo interface {
	// UpsertDevice регистрирует устройство при первом обращении и
	// обновляет last_seen_at при повторных.
	UpsertDevice(ctx context.Context, deviceID, platform string) (Device, error)
}

// UserRepo отдаёт профили пользователей.
type UserRepo interface {
	GetByToken(ctx context.Context, token string) (User, error)
}

// FeedViewEvent — аналитическое событие показа главной страницы.
type FeedViewEvent struct {
	ConfigID   int64     `json:"config_id"`
	Lang       string    `json:"lang"`
	CityID     *int64    `json:"city_id,omitempty"`
	RegionID   *int64    `json:"region_id,omitempty"`
	UserID     *int64    `json:"user_id,omitempty"`
	DeviceID   string    `json:"device_id,omitempty"`
	Blocks     int       `json:"blocks"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FeedEventPublisher публикует события показа в очередь.
type FeedEventPublisher interface {
	PublishFeedView(ctx context.Context, event FeedViewEvent) error
}

// FeedEventRepo сохраняет события показа.
type FeedEventRepo interface {
	SaveFeedView(ctx context.Context, event FeedViewEvent) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
