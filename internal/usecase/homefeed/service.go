package homefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"kejebe-backend/internal/domain"
	"kejebe-backend/internal/infra/metrics"
)

// Config задаёт параметры сборки главной страницы.
type Config struct {
	DefaultLang    string
	SupportedLangs []string
	// CategoryStripLimit — запасной лимит ленты категорий, когда у блока
	// оставлен лимит по умолчанию.
	CategoryStripLimit int
	// DefaultRegionID помечает регион is_default в ответе.
	DefaultRegionID int64
	// StoryTTL — срок жизни сторис без явного конца окна показа.
	StoryTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultLang == "" {
		c.DefaultLang = domain.DefaultLang
	}
	if len(c.SupportedLangs) == 0 {
		c.SupportedLangs = []string{domain.LangTM, domain.LangRU, domain.LangEN}
	}
	if c.CategoryStripLimit <= 0 {
		c.CategoryStripLimit = 6
	}
	if c.StoryTTL <= 0 {
		c.StoryTTL = 24 * time.Hour
	}
	return c
}

// Request — сигналы входящего запроса, от которых зависит сборка.
type Request struct {
	LangParam           string
	AcceptLanguage      string
	CityIDParam         string
	RegionIDParam       string
	LocationFilterParam string
	Device              *domain.Device
	User                *domain.User
}

// Service собирает главную страницу: резолвит язык и локацию, выбирает
// конфигурацию и строит блоки по порядку. Состояния между запросами не
// хранит — каждый вызов Build самодостаточен.
type Service struct {
	cfg        Config
	configs    domain.ConfigRepo
	services   domain.ServiceRepo
	banners    domain.BannerRepo
	categories domain.CategoryRepo
	stories    domain.StoryRepo
	locations  domain.LocationRepo
	log        zerolog.Logger
}

// NewService создаёт сборщик главной страницы.
func NewService(cfg Config, configs domain.ConfigRepo, services domain.ServiceRepo, banners domain.BannerRepo, categories domain.CategoryRepo, stories domain.StoryRepo, locations domain.LocationRepo, logger zerolog.Logger) *Service {
	return &Service{
		cfg:        cfg.withDefaults(),
		configs:    configs,
		services:   services,
		banners:    banners,
		categories: categories,
		stories:    stories,
		locations:  locations,
		log:        logger,
	}
}

// Build собирает ответ главной страницы для запроса.
func (s *Service) Build(ctx context.Context, req Request) (domain.Feed, error) {
	start := time.Now()
	defer func() { metrics.FeedBuildSeconds.Observe(time.Since(start).Seconds()) }()
	metrics.FeedRequestsTotal.Inc()

	lang := s.ResolveLanguage(req)
	city, err := s.resolveCity(ctx, req)
	if err != nil {
		return domain.Feed{}, err
	}
	region, err := s.resolveRegion(ctx, req)
	if err != nil {
		return domain.Feed{}, err
	}
	// Город известен, а регион явно не запрошен: наследуем регион города.
	if city != nil && region == nil {
		region = s.regionOfCity(city)
	}

	var cityID, regionID *int64
	if city != nil {
		cityID = &city.ID
	}
	if region != nil {
		regionID = &region.ID
	}

	candidates, err := s.configs.ListConfigCandidates(ctx, lang, cityID, regionID)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("кандидаты конфигурации: %w", err)
	}
	config := SelectConfig(candidates, lang, cityID, regionID)
	cityPayload := s.cityPayload(city, lang)
	if config == nil {
		metrics.FeedEmptyTotal.Inc()
		return domain.Feed{Version: 0, City: cityPayload, Blocks: []domain.FeedBlock{}}, nil
	}

	blocks, err := s.configs.ListActiveBlocks(ctx, config.ID)
	if err != nil {
		return domain.Feed{}, fmt.Errorf("блоки конфигурации: %w", err)
	}

	payload := make([]domain.FeedBlock, 0, len(blocks))
	for _, block := range blocks {
		items, viewAll, err := s.buildBlock(ctx, block, city, region, lang, req)
		if err != nil {
			return domain.Feed{}, fmt.Errorf("сборка блока %d (%s): %w", block.ID, block.Type, err)
		}
		metrics.FeedBlocksBuilt.WithLabelValues(string(block.Type)).Inc()
		payload = append(payload, domain.FeedBlock{
			ID:      fmt.Sprintf("blk_%d", block.ID),
			Type:    block.Type,
			Title:   optional(block.Title.In(lang)),
			Limit:   s.displayedLimit(block),
			Style:   styleRaw(block),
			Items:   items,
			ViewAll: viewAll,
		})
	}

	return domain.Feed{Version: config.ID, City: cityPayload, Blocks: payload}, nil
}

func (s *Service) buildBlock(ctx context.Context, block domain.HomeBlock, city *domain.City, region *domain.Region, lang string, req Request) ([]any, *domain.ViewAll, error) {
	switch block.Type {
	case domain.BlockStoriesRow:
		items, err := s.buildStoriesRow(ctx, block, city, region, lang, req)
		return items, nil, err
	case domain.BlockBannerCarousel:
		items, err := s.buildBannerCarousel(ctx, block, city, region, lang, req)
		return items, nil, err
	case domain.BlockCategoryStrip:
		return s.buildCategoryStrip(ctx, block, lang)
	case domain.BlockServiceCarousel, domain.BlockServiceList:
		return s.buildServiceBlock(ctx, block, city, region, lang, req)
	}
	// Неизвестный тип блока не должен ломать выдачу.
	s.log.Warn().Int64("block_id", block.ID).Str("type", string(block.Type)).Msg("homefeed: пропущен блок неизвестного типа")
	return []any{}, nil, nil
}

// displayedLimit — лимит, который блок сообщает клиенту. Для ленты
// категорий это вычисленный display limit, для остальных — сырой limit.
func (s *Service) displayedLimit(block domain.HomeBlock) *int {
	if block.Type == domain.BlockCategoryStrip {
		limit := s.categoryStripLimit(block)
		return &limit
	}
	if block.Limit <= 0 {
		return nil
	}
	limit := block.Limit
	return &limit
}

func (s *Service) regionOfCity(city *domain.City) *domain.Region {
	if city.Region != nil {
		region := *city.Region
		return &region
	}
	if city.RegionID != 0 {
		return &domain.Region{ID: city.RegionID}
	}
	return nil
}

func (s *Service) cityPayload(city *domain.City, lang string) *domain.CityPayload {
	if city == nil {
		return nil
	}
	payload := domain.CityPayload{
		ID:            city.ID,
		NameTM:        city.Name.TM,
		NameRU:        city.Name.RU,
		Name:          city.Name.In(lang),
		IsRegionLevel: city.IsRegionLevel,
	}
	if city.Region != nil {
		payload.Region = &domain.RegionPayload{
			ID:        city.Region.ID,
			NameTM:    city.Region.Name.TM,
			NameRU:    city.Region.Name.RU,
			Name:      city.Region.Name.In(lang),
			IsDefault: s.cfg.DefaultRegionID != 0 && city.Region.ID == s.cfg.DefaultRegionID,
		}
	}
	return &payload
}

// shouldFilterByLocation решает, сужать ли выдачу блока до разрешённой
// локации. Настройка style имеет приоритет над query-флагом запроса.
func shouldFilterByLocation(block domain.HomeBlock, req Request) bool {
	if block.Style.LocationFilter != nil {
		return *block.Style.LocationFilter
	}
	if req.LocationFilterParam == "" {
		return false
	}
	return domain.ParamBoolString(req.LocationFilterParam)
}

func styleRaw(block domain.HomeBlock) map[string]any {
	if block.Style.Raw == nil {
		return map[string]any{}
	}
	return block.Style.Raw
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
