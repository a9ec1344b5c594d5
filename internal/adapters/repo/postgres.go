package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kejebe-backend/internal/domain"
	"kejebe-backend/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ConfigRepo    = (*Postgres)(nil)
	_ domain.ServiceRepo   = (*Postgres)(nil)
	_ domain.BannerRepo    = (*Postgres)(nil)
	_ domain.CategoryRepo  = (*Postgres)(nil)
	_ domain.StoryRepo     = (*Postgres)(nil)
	_ domain.LocationRepo  = (*Postgres)(nil)
	_ domain.DeviceRepo    = (*Postgres)(nil)
	_ domain.UserRepo      = (*Postgres)(nil)
	_ domain.FeedEventRepo = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// condBuilder накапливает условия WHERE и позиционные аргументы.
type condBuilder struct {
	conds []string
	args  []any
}

func (b *condBuilder) add(format string, args ...any) {
	placeholders := make([]any, len(args))
	for i, arg := range args {
		b.args = append(b.args, arg)
		placeholders[i] = fmt.Sprintf("$%d", len(b.args))
	}
	b.conds = append(b.conds, fmt.Sprintf(format, placeholders...))
}

func (b *condBuilder) where() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " AND " + strings.Join(b.conds, " AND ")
}

// ListConfigCandidates реализует domain.ConfigRepo. Конфигурации с
// заданным полем, не совпадающим с запросом, отсеиваются уже здесь;
// при nil-локации остаются только глобальные по этому измерению.
func (p *Postgres) ListConfigCandidates(ctx context.Context, lang string, cityID, regionID *int64) ([]domain.HomePageConfig, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, slug, title, city_id, region_id, COALESCE(locale, ''), is_active, priority
FROM home_page_configs
WHERE is_active
  AND (locale IS NULL OR locale = '' OR locale = $1)
  AND (city_id IS NULL OR city_id = $2)
  AND (region_id IS NULL OR region_id = $3)
ORDER BY priority DESC, id
`, lang, cityID, regionID)
	metrics.ObserveNetworkRequest("postgres", "configs_select", "home_page_configs", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []domain.HomePageConfig
	for rows.Next() {
		var cfg domain.HomePageConfig
		if err := rows.Scan(&cfg.ID, &cfg.Slug, &cfg.Title, &cfg.CityID, &cfg.RegionID, &cfg.Locale, &cfg.IsActive, &cfg.Priority); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// ListActiveBlocks реализует domain.ConfigRepo.
func (p *Postgres) ListActiveBlocks(ctx context.Context, configID int64) ([]domain.HomeBlock, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, config_id, type, title_tm, title_ru, title_en, position, is_active, source_mode, query_params, style, item_limit
FROM home_blocks
WHERE config_id = $1 AND is_active
ORDER BY position, id
`, configID)
	metrics.ObserveNetworkRequest("postgres", "blocks_select", "home_blocks", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []domain.HomeBlock
	for rows.Next() {
		var (
			block      domain.HomeBlock
			paramsJSON []byte
			styleJSON  []byte
		)
		if err := rows.Scan(&block.ID, &block.ConfigID, &block.Type, &block.Title.TM, &block.Title.RU, &block.Title.EN, &block.Position, &block.IsActive, &block.SourceMode, &paramsJSON, &styleJSON, &block.Limit); err != nil {
			return nil, err
		}
		block.Params = domain.ParseBlockParams(paramsJSON)
		block.Style = domain.ParseBlockStyle(styleJSON)
		blocks = append(blocks, block)
	}
	return blocks, rows.Err()
}

// ListManualItems реализует domain.ConfigRepo.
func (p *Postgres) ListManualItems(ctx context.Context, blockID int64) ([]domain.HomeBlockItem, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, block_id, target_type, target_id, position
FROM home_block_items
WHERE block_id = $1
ORDER BY position, id
`, blockID)
	metrics.ObserveNetworkRequest("postgres", "block_items_select", "home_block_items", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.HomeBlockItem
	for rows.Next() {
		var item domain.HomeBlockItem
		if err := rows.Scan(&item.ID, &item.BlockID, &item.TargetType, &item.TargetID, &item.Position); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetCity реализует domain.LocationRepo: город вместе с регионом.
func (p *Postgres) GetCity(ctx context.Context, id int64) (domain.City, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var (
		city   domain.City
		region domain.Region
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT c.id, c.region_id, c.name_tm, c.name_ru, c.name_en, c.is_region_level,
       r.id, r.name_tm, r.name_ru, r.name_en
FROM cities c
JOIN regions r ON r.id = c.region_id
WHERE c.id = $1
`, id).Scan(&city.ID, &city.RegionID, &city.Name.TM, &city.Name.RU, &city.Name.EN, &city.IsRegionLevel,
		&region.ID, &region.Name.TM, &region.Name.RU, &region.Name.EN)
	metrics.ObserveNetworkRequest("postgres", "city_get", "cities", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.City{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.City{}, err
	}
	city.Region = &region
	return city, nil
}

// GetRegion реализует domain.LocationRepo.
func (p *Postgres) GetRegion(ctx context.Context, id int64) (domain.Region, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var region domain.Region
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, name_tm, name_ru, name_en FROM regions WHERE id = $1
`, id).Scan(&region.ID, &region.Name.TM, &region.Name.RU, &region.Name.EN)
	metrics.ObserveNetworkRequest("postgres", "region_get", "regions", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Region{}, domain.ErrNotFound
	}
	return region, err
}

// UpsertDevice реализует domain.DeviceRepo: регистрирует устройство при
// первом обращении и отмечает last_seen_at при повторных.
func (p *Postgres) UpsertDevice(ctx context.Context, deviceID, platform string) (domain.Device, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var (
		device   domain.Device
		lastSeen sql.NullTime
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO devices (device_id, platform, last_seen_at)
VALUES ($1, COALESCE(NULLIF($2, ''), 'unknown'), now())
ON CONFLICT (device_id) DO UPDATE
SET platform = COALESCE(NULLIF(EXCLUDED.platform, 'unknown'), devices.platform),
    last_seen_at = now()
RETURNING id, device_id, platform, user_id, city_id, region_id, created_at, last_seen_at
`, deviceID, platform).Scan(&device.ID, &device.DeviceID, &device.Platform, &device.UserID, &device.CityID, &device.RegionID, &device.CreatedAt, &lastSeen)
	metrics.ObserveNetworkRequest("postgres", "devices_upsert", "devices", start, err)
	if err != nil {
		return domain.Device{}, err
	}
	if lastSeen.Valid {
		ts := lastSeen.Time
		device.LastSeenAt = &ts
	}
	return device, nil
}

// GetByToken реализует domain.UserRepo.
func (p *Postgres) GetByToken(ctx context.Context, token string) (domain.User, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var user domain.User
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT u.id, u.phone, u.city_id, u.is_vendor, u.created_at
FROM auth_tokens t
JOIN users u ON u.id = t.user_id
WHERE t.token = $1
`, token).Scan(&user.ID, &user.Phone, &user.CityID, &user.IsVendor, &user.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "user_by_token", "auth_tokens", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	return user, err
}

// SaveFeedView реализует domain.FeedEventRepo.
func (p *Postgres) SaveFeedView(ctx context.Context, event domain.FeedViewEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO feed_view_events (config_id, lang, city_id, region_id, user_id, device_id, blocks, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, event.ConfigID, event.Lang, event.CityID, event.RegionID, event.UserID, event.DeviceID, event.Blocks, event.OccurredAt)
	metrics.ObserveNetworkRequest("postgres", "feed_events_insert", "feed_view_events", start, err)
	return err
}
