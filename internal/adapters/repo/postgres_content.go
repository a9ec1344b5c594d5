package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"kejebe-backend/internal/domain"
	"kejebe-backend/internal/infra/metrics"
)

// serviceOrderings — допустимые значения ordering из параметров блока.
var serviceOrderings = map[string]string{
	"price":       "s.price_min ASC NULLS LAST",
	"-price":      "s.price_min DESC NULLS LAST",
	"rating":      "rating ASC NULLS LAST",
	"-rating":     "rating DESC NULLS LAST",
	"created_at":  "s.created_at ASC",
	"-created_at": "s.created_at DESC",
	"priority":    "s.priority ASC",
	"-priority":   "s.priority DESC",
}

const defaultServiceOrdering = "s.priority ASC, s.created_at DESC, s.id"

// ListActive реализует domain.ServiceRepo: активные сервисы с городом,
// регионом, категорией и аннотациями рейтинга, числа одобренных отзывов
// и флага избранного для смотрящего пользователя.
func (p *Postgres) ListActive(ctx context.Context, filter domain.ServiceFilter) ([]domain.Service, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	b := &condBuilder{}
	if len(filter.IDs) > 0 {
		b.add("s.id = ANY(%s)", filter.IDs)
	}
	if len(filter.ExcludeIDs) > 0 {
		b.add("NOT (s.id = ANY(%s))", filter.ExcludeIDs)
	}
	if len(filter.CategoryIDs) > 0 {
		b.add("s.category_id = ANY(%s)", filter.CategoryIDs)
	}
	if len(filter.TagIDs) > 0 {
		b.add("EXISTS (SELECT 1 FROM service_tag_links l WHERE l.service_id = s.id AND l.tag_id = ANY(%s))", filter.TagIDs)
	}
	if len(filter.CityIDs) > 0 {
		b.add("(s.city_id = ANY(%[1]s) OR EXISTS (SELECT 1 FROM service_available_cities ac WHERE ac.service_id = s.id AND ac.city_id = ANY(%[1]s)))", filter.CityIDs)
	}
	if len(filter.RegionIDs) > 0 {
		b.add("(c.region_id = ANY(%[1]s) OR EXISTS (SELECT 1 FROM service_available_cities ac JOIN cities cc ON cc.id = ac.city_id WHERE ac.service_id = s.id AND cc.region_id = ANY(%[1]s)))", filter.RegionIDs)
	}
	if filter.LocationCityID != nil {
		b.add("(s.city_id = %[1]s OR EXISTS (SELECT 1 FROM service_available_cities ac WHERE ac.service_id = s.id AND ac.city_id = %[1]s))", *filter.LocationCityID)
	} else if filter.LocationRegionID != nil {
		b.add("(c.region_id = %[1]s OR EXISTS (SELECT 1 FROM service_available_cities ac JOIN cities cc ON cc.id = ac.city_id WHERE ac.service_id = s.id AND cc.region_id = %[1]s))", *filter.LocationRegionID)
	}

	favoriteExpr := "FALSE"
	if filter.ViewerID != nil {
		b.args = append(b.args, *filter.ViewerID)
		favoriteExpr = fmt.Sprintf("EXISTS (SELECT 1 FROM favorites f WHERE f.service_id = s.id AND f.user_id = $%d)", len(b.args))
	}

	ordering, ok := serviceOrderings[filter.Ordering]
	if !ok {
		ordering = defaultServiceOrdering
	}

	limitClause := ""
	if filter.Limit > 0 {
		b.args = append(b.args, filter.Limit)
		limitClause = fmt.Sprintf(" LIMIT $%d", len(b.args))
	}

	query := fmt.Sprintf(`
SELECT s.id, s.vendor_id, s.category_id, s.city_id,
       s.title_tm, s.title_ru, s.title_en,
       s.avatar_url, s.background_url, s.price_min, s.price_max, s.discount_text,
       s.priority, s.created_at,
       cat.parent_id, cat.slug, cat.name_tm, cat.name_ru, cat.name_en, cat.icon_url, cat.image_url, cat.priority,
       c.region_id, c.name_tm, c.name_ru, c.name_en, c.is_region_level,
       r.name_tm, r.name_ru, r.name_en,
       (SELECT AVG(rv.rating)::float8 FROM reviews rv WHERE rv.service_id = s.id AND rv.is_approved) AS rating,
       (SELECT COUNT(*) FROM reviews rv WHERE rv.service_id = s.id AND rv.is_approved) AS reviews_count,
       %s AS is_favorite
FROM services s
JOIN categories cat ON cat.id = s.category_id
LEFT JOIN cities c ON c.id = s.city_id
LEFT JOIN regions r ON r.id = c.region_id
WHERE s.is_active%s
ORDER BY %s%s
`, favoriteExpr, b.where(), ordering, limitClause)

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, b.args...)
	metrics.ObserveNetworkRequest("postgres", "services_select", "services", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		var (
			service    domain.Service
			category   domain.Category
			catSlug    sql.NullString
			cityRegion sql.NullInt64
			cityTM     sql.NullString
			cityRU     sql.NullString
			cityEN     sql.NullString
			regionTM   sql.NullString
			regionRU   sql.NullString
			regionEN   sql.NullString
			regional   sql.NullBool
		)
		if err := rows.Scan(&service.ID, &service.VendorID, &service.CategoryID, &service.CityID,
			&service.Title.TM, &service.Title.RU, &service.Title.EN,
			&service.AvatarURL, &service.BackgroundURL, &service.PriceMin, &service.PriceMax, &service.DiscountText,
			&service.Priority, &service.CreatedAt,
			&category.ParentID, &catSlug, &category.Name.TM, &category.Name.RU, &category.Name.EN, &category.IconURL, &category.ImageURL, &category.Priority,
			&cityRegion, &cityTM, &cityRU, &cityEN, &regional,
			&regionTM, &regionRU, &regionEN,
			&service.Rating, &service.ReviewsCount, &service.IsFavorite); err != nil {
			return nil, err
		}
		service.IsActive = true
		category.ID = service.CategoryID
		if catSlug.Valid {
			category.Slug = catSlug.String
		}
		service.Category = &category
		if service.CityID != nil {
			city := domain.City{
				ID:            *service.CityID,
				RegionID:      cityRegion.Int64,
				Name:          domain.LocalizedText{TM: cityTM.String, RU: cityRU.String, EN: cityEN.String},
				IsRegionLevel: regional.Bool,
				Region: &domain.Region{
					ID:   cityRegion.Int64,
					Name: domain.LocalizedText{TM: regionTM.String, RU: regionRU.String, EN: regionEN.String},
				},
			}
			service.City = &city
		}
		services = append(services, service)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if filter.WithImages {
		if err := p.attachServiceImages(ctx, services); err != nil {
			return nil, err
		}
	}
	if filter.WithTags {
		if err := p.attachServiceTags(ctx, services); err != nil {
			return nil, err
		}
	}
	return services, nil
}

func serviceIDs(services []domain.Service) []int64 {
	ids := make([]int64, 0, len(services))
	for _, service := range services {
		ids = append(ids, service.ID)
	}
	return ids
}

func (p *Postgres) attachServiceImages(ctx context.Context, services []domain.Service) error {
	if len(services) == 0 {
		return nil
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT service_id, image_url
FROM service_images
WHERE service_id = ANY($1)
ORDER BY service_id, id
`, serviceIDs(services))
	metrics.ObserveNetworkRequest("postgres", "service_images_select", "service_images", start, err)
	if err != nil {
		return err
	}
	defer rows.Close()

	images := make(map[int64][]string, len(services))
	for rows.Next() {
		var (
			serviceID int64
			url       string
		)
		if err := rows.Scan(&serviceID, &url); err != nil {
			return err
		}
		images[serviceID] = append(images[serviceID], url)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range services {
		services[i].ImageURLs = images[services[i].ID]
	}
	return nil
}

func (p *Postgres) attachServiceTags(ctx context.Context, services []domain.Service) error {
	if len(services) == 0 {
		return nil
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT l.service_id, t.id, t.name_tm, t.name_ru, t.name_en
FROM service_tag_links l
JOIN service_tags t ON t.id = l.tag_id
WHERE l.service_id = ANY($1)
ORDER BY l.service_id, t.id
`, serviceIDs(services))
	metrics.ObserveNetworkRequest("postgres", "service_tags_select", "service_tags", start, err)
	if err != nil {
		return err
	}
	defer rows.Close()

	tags := make(map[int64][]domain.ServiceTag, len(services))
	for rows.Next() {
		var (
			serviceID int64
			tag       domain.ServiceTag
		)
		if err := rows.Scan(&serviceID, &tag.ID, &tag.Name.TM, &tag.Name.RU, &tag.Name.EN); err != nil {
			return err
		}
		tags[serviceID] = append(tags[serviceID], tag)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range services {
		services[i].Tags = tags[services[i].ID]
	}
	return nil
}

func (p *Postgres) attachServiceCities(ctx context.Context, index map[int64]*domain.Service) error {
	if len(index) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT ac.service_id, c.id, c.region_id, c.name_tm, c.name_ru, c.name_en, c.is_region_level
FROM service_available_cities ac
JOIN cities c ON c.id = ac.city_id
WHERE ac.service_id = ANY($1)
ORDER BY ac.service_id, c.id
`, ids)
	metrics.ObserveNetworkRequest("postgres", "service_cities_select", "service_available_cities", start, err)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			serviceID int64
			city      domain.City
		)
		if err := rows.Scan(&serviceID, &city.ID, &city.RegionID, &city.Name.TM, &city.Name.RU, &city.Name.EN, &city.IsRegionLevel); err != nil {
			return err
		}
		if service := index[serviceID]; service != nil {
			service.AvailableCities = append(service.AvailableCities, city)
		}
	}
	return rows.Err()
}

// ListActiveNow реализует domain.BannerRepo: баннеры в окне показа.
// Локационное сужение пропускает баннер, когда список его городов
// (регионов) пуст либо содержит разрешённую локацию.
func (p *Postgres) ListActiveNow(ctx context.Context, filter domain.BannerFilter) ([]domain.Banner, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	now := filter.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	b := &condBuilder{}
	b.add("(b.starts_at IS NULL OR b.starts_at <= %[1]s) AND (b.ends_at IS NULL OR b.ends_at >= %[1]s)", now)
	if len(filter.CityIDs) > 0 {
		b.add("EXISTS (SELECT 1 FROM banner_cities bc WHERE bc.banner_id = b.id AND bc.city_id = ANY(%s))", filter.CityIDs)
	}
	if len(filter.RegionIDs) > 0 {
		b.add("EXISTS (SELECT 1 FROM banner_regions br WHERE br.banner_id = b.id AND br.region_id = ANY(%s))", filter.RegionIDs)
	}
	if filter.LocationCityID != nil {
		b.add("(NOT EXISTS (SELECT 1 FROM banner_cities bc WHERE bc.banner_id = b.id) OR EXISTS (SELECT 1 FROM banner_cities bc WHERE bc.banner_id = b.id AND bc.city_id = %s))", *filter.LocationCityID)
	}
	if filter.LocationRegionID != nil {
		b.add("(NOT EXISTS (SELECT 1 FROM banner_regions br WHERE br.banner_id = b.id) OR EXISTS (SELECT 1 FROM banner_regions br WHERE br.banner_id = b.id AND br.region_id = %s))", *filter.LocationRegionID)
	}

	limitClause := ""
	if filter.Limit > 0 {
		b.args = append(b.args, filter.Limit)
		limitClause = fmt.Sprintf(" LIMIT $%d", len(b.args))
	}

	query := fmt.Sprintf(`
SELECT b.id, b.title_tm, b.title_ru, b.title_en, b.image_url, b.service_id, b.link_url,
       b.is_active, b.starts_at, b.ends_at, b.priority, b.created_at
FROM banners b
WHERE b.is_active%s
ORDER BY b.priority, b.created_at DESC, b.id%s
`, b.where(), limitClause)

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, b.args...)
	metrics.ObserveNetworkRequest("postgres", "banners_select", "banners", start, err)
	if err != nil {
		return nil, err
	}
	banners, err := scanBanners(rows)
	if err != nil {
		return nil, err
	}
	if err := p.attachBannerTargeting(ctx, banners); err != nil {
		return nil, err
	}
	return banners, nil
}

// ListBannersByIDs реализует domain.BannerRepo для ручных блоков:
// неактивные и просроченные баннеры не отдаются даже по прямой ссылке.
func (p *Postgres) ListBannersByIDs(ctx context.Context, ids []int64) ([]domain.Banner, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT b.id, b.title_tm, b.title_ru, b.title_en, b.image_url, b.service_id, b.link_url,
       b.is_active, b.starts_at, b.ends_at, b.priority, b.created_at
FROM banners b
WHERE b.id = ANY($1)
  AND b.is_active
  AND (b.starts_at IS NULL OR b.starts_at <= now())
  AND (b.ends_at IS NULL OR b.ends_at >= now())
`, ids)
	metrics.ObserveNetworkRequest("postgres", "banners_by_ids", "banners", start, err)
	if err != nil {
		return nil, err
	}
	banners, err := scanBanners(rows)
	if err != nil {
		return nil, err
	}
	if err := p.attachBannerTargeting(ctx, banners); err != nil {
		return nil, err
	}
	return banners, nil
}

func scanBanners(rows pgx.Rows) ([]domain.Banner, error) {
	defer rows.Close()

	var banners []domain.Banner
	for rows.Next() {
		var banner domain.Banner
		if err := rows.Scan(&banner.ID, &banner.Title.TM, &banner.Title.RU, &banner.Title.EN, &banner.ImageURL, &banner.ServiceID, &banner.LinkURL,
			&banner.IsActive, &banner.StartsAt, &banner.EndsAt, &banner.Priority, &banner.CreatedAt); err != nil {
			return nil, err
		}
		banners = append(banners, banner)
	}
	return banners, rows.Err()
}

func (p *Postgres) attachBannerTargeting(ctx context.Context, banners []domain.Banner) error {
	if len(banners) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(banners))
	index := make(map[int64]*domain.Banner, len(banners))
	for i := range banners {
		ids = append(ids, banners[i].ID)
		index[banners[i].ID] = &banners[i]
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT banner_id, city_id, NULL::bigint FROM banner_cities WHERE banner_id = ANY($1)
UNION ALL
SELECT banner_id, NULL::bigint, region_id FROM banner_regions WHERE banner_id = ANY($1)
`, ids)
	metrics.ObserveNetworkRequest("postgres", "banner_targeting_select", "banner_cities", start, err)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bannerID int64
			cityID   *int64
			regionID *int64
		)
		if err := rows.Scan(&bannerID, &cityID, &regionID); err != nil {
			return err
		}
		banner := index[bannerID]
		if banner == nil {
			continue
		}
		if cityID != nil {
			banner.CityIDs = append(banner.CityIDs, *cityID)
		}
		if regionID != nil {
			banner.RegionIDs = append(banner.RegionIDs, *regionID)
		}
	}
	return rows.Err()
}

// ListTopLevel реализует domain.CategoryRepo: корневые категории в
// порядке (priority, id), опционально суженные допуск-списком.
func (p *Postgres) ListTopLevel(ctx context.Context, ids []int64) ([]domain.Category, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	b := &condBuilder{}
	if len(ids) > 0 {
		b.add("id = ANY(%s)", ids)
	}
	query := fmt.Sprintf(`
SELECT id, parent_id, COALESCE(slug, ''), name_tm, name_ru, name_en, icon_url, image_url, priority
FROM categories
WHERE parent_id IS NULL%s
ORDER BY priority, id
`, b.where())

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, b.args...)
	metrics.ObserveNetworkRequest("postgres", "categories_top", "categories", start, err)
	if err != nil {
		return nil, err
	}
	return scanCategories(rows)
}

// ListCategoriesByIDs реализует domain.CategoryRepo.
func (p *Postgres) ListCategoriesByIDs(ctx context.Context, ids []int64) ([]domain.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, parent_id, COALESCE(slug, ''), name_tm, name_ru, name_en, icon_url, image_url, priority
FROM categories
WHERE id = ANY($1)
`, ids)
	metrics.ObserveNetworkRequest("postgres", "categories_by_ids", "categories", start, err)
	if err != nil {
		return nil, err
	}
	return scanCategories(rows)
}

func scanCategories(rows pgx.Rows) ([]domain.Category, error) {
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.ParentID, &category.Slug, &category.Name.TM, &category.Name.RU, &category.Name.EN, &category.IconURL, &category.ImageURL, &category.Priority); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// ListStoriesActiveNow реализует domain.StoryRepo: сторис в окне показа в
// порядке (service_id, priority, starts_at DESC, created_at DESC) с
// предзагруженными сервисами и их доступными городами.
func (p *Postgres) ListStoriesActiveNow(ctx context.Context, now time.Time) ([]domain.ServiceStory, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, service_id, title, image_url, is_active, starts_at, ends_at, priority, created_at
FROM service_stories
WHERE is_active
  AND (starts_at IS NULL OR starts_at <= $1)
  AND (ends_at IS NULL OR ends_at >= $1)
ORDER BY service_id, priority, starts_at DESC NULLS FIRST, created_at DESC
`, now)
	metrics.ObserveNetworkRequest("postgres", "stories_select", "service_stories", start, err)
	if err != nil {
		return nil, err
	}

	stories, err := scanStories(rows)
	if err != nil {
		return nil, err
	}
	if len(stories) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(stories))
	seen := make(map[int64]struct{}, len(stories))
	for _, story := range stories {
		if _, ok := seen[story.ServiceID]; ok {
			continue
		}
		seen[story.ServiceID] = struct{}{}
		ids = append(ids, story.ServiceID)
	}

	services, err := p.ListActive(ctx, domain.ServiceFilter{IDs: ids, WithImages: true})
	if err != nil {
		return nil, err
	}
	index := make(map[int64]*domain.Service, len(services))
	for i := range services {
		index[services[i].ID] = &services[i]
	}
	if err := p.attachServiceCities(ctx, index); err != nil {
		return nil, err
	}

	for i := range stories {
		stories[i].Service = index[stories[i].ServiceID]
	}
	return stories, nil
}

func scanStories(rows pgx.Rows) ([]domain.ServiceStory, error) {
	defer rows.Close()

	var stories []domain.ServiceStory
	for rows.Next() {
		var story domain.ServiceStory
		if err := rows.Scan(&story.ID, &story.ServiceID, &story.Title, &story.ImageURL, &story.IsActive, &story.StartsAt, &story.EndsAt, &story.Priority, &story.CreatedAt); err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}
