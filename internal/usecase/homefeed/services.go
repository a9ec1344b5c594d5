package homefeed

import (
	"context"
	"fmt"

	"kejebe-backend/internal/domain"
)

// buildServiceBlock строит карусель или список сервисов.
//
// manual: только прикреплённые сервисы в настроенном порядке.
// query: фильтры из параметров блока.
// pinned_query: сначала закреплённые сервисы, затем добор query-выборкой
// без уже закреплённых до остатка лимита (без лимита — весь добор).
// Локационный фильтр накладывается поверх режима, не вместо него.
func (s *Service) buildServiceBlock(ctx context.Context, block domain.HomeBlock, city *domain.City, region *domain.Region, lang string, req Request) ([]any, *domain.ViewAll, error) {
	includeMedia := block.Type == domain.BlockServiceCarousel
	locationFilter := shouldFilterByLocation(block, req)

	base := domain.ServiceFilter{WithImages: includeMedia, WithTags: includeMedia}
	if req.User != nil {
		base.ViewerID = &req.User.ID
	}
	if locationFilter {
		if city != nil {
			base.LocationCityID = &city.ID
		} else if region != nil {
			base.LocationRegionID = &region.ID
		}
	}

	var services []domain.Service
	switch block.SourceMode {
	case domain.SourceManual:
		manualItems, err := s.configs.ListManualItems(ctx, block.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("ручные элементы блока: %w", err)
		}
		ids := manualIDs(manualItems, domain.TargetService)
		if len(ids) > 0 {
			filter := base
			filter.IDs = ids
			found, err := s.services.ListActive(ctx, filter)
			if err != nil {
				return nil, nil, fmt.Errorf("ручные сервисы: %w", err)
			}
			services = orderServicesByIDs(ids, found)
			if block.Limit > 0 && len(services) > block.Limit {
				services = services[:block.Limit]
			}
		}
	case domain.SourcePinnedQuery:
		manualItems, err := s.configs.ListManualItems(ctx, block.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("ручные элементы блока: %w", err)
		}
		pinnedIDs := manualIDs(manualItems, domain.TargetService)
		queryFilter := applyBlockParams(base, block.Params)

		if len(pinnedIDs) > 0 {
			pinnedFilter := queryFilter
			pinnedFilter.IDs = pinnedIDs
			found, err := s.services.ListActive(ctx, pinnedFilter)
			if err != nil {
				return nil, nil, fmt.Errorf("закреплённые сервисы: %w", err)
			}
			services = orderServicesByIDs(pinnedIDs, found)
		}

		backfill := queryFilter
		backfill.ExcludeIDs = pinnedIDs
		if block.Limit > 0 {
			remaining := block.Limit - len(services)
			if remaining > 0 {
				backfill.Limit = remaining
				extra, err := s.services.ListActive(ctx, backfill)
				if err != nil {
					return nil, nil, fmt.Errorf("добор сервисов: %w", err)
				}
				services = append(services, extra...)
			}
		} else {
			extra, err := s.services.ListActive(ctx, backfill)
			if err != nil {
				return nil, nil, fmt.Errorf("добор сервисов: %w", err)
			}
			services = append(services, extra...)
		}
	default:
		filter := applyBlockParams(base, block.Params)
		filter.Limit = block.Limit
		var err error
		services, err = s.services.ListActive(ctx, filter)
		if err != nil {
			return nil, nil, fmt.Errorf("выборка сервисов: %w", err)
		}
	}

	services = dedupeServices(services)

	items := make([]any, 0, len(services))
	for _, service := range services {
		if includeMedia {
			items = append(items, s.serviceCard(service, lang))
		} else {
			items = append(items, s.serviceListItem(service, lang))
		}
	}

	viewAll := s.serviceViewAll(block, city, region, locationFilter)
	return items, ensureViewAllLabel(viewAll), nil
}

func applyBlockParams(filter domain.ServiceFilter, params domain.BlockParams) domain.ServiceFilter {
	filter.CategoryIDs = params.CategoryIDs
	filter.TagIDs = params.TagIDs
	filter.CityIDs = params.CityIDs
	filter.RegionIDs = params.RegionIDs
	filter.Ordering = params.Ordering
	return filter
}

// serviceViewAll собирает view_all сервисного блока: явное значение из
// style побеждает, иначе действие «поиск» с параметрами блока плюс, при
// активном локационном фильтре, ограничение по городу (приоритетно) или
// региону. Без параметров view_all не отдаётся вовсе.
func (s *Service) serviceViewAll(block domain.HomeBlock, city *domain.City, region *domain.Region, locationFilter bool) *domain.ViewAll {
	if block.Style.HasViewAll {
		return block.Style.ViewAll
	}

	params := map[string]any{}
	if len(block.Params.CategoryIDs) > 0 {
		params["category_ids"] = block.Params.CategoryIDs
	}
	if len(block.Params.TagIDs) > 0 {
		params["tag_ids"] = block.Params.TagIDs
	}
	if len(block.Params.CityIDs) > 0 {
		params["city_ids"] = block.Params.CityIDs
	}
	if len(block.Params.RegionIDs) > 0 {
		params["region_ids"] = block.Params.RegionIDs
	}
	if block.Params.Ordering != "" {
		params["ordering"] = block.Params.Ordering
	}
	if locationFilter && city != nil {
		if _, ok := params["city_ids"]; !ok {
			params["city_ids"] = []int64{city.ID}
		}
	} else if locationFilter && region != nil {
		if _, ok := params["region_ids"]; !ok {
			params["region_ids"] = []int64{region.ID}
		}
	}
	if len(params) == 0 {
		return nil
	}
	return &domain.ViewAll{Type: "search", Params: params}
}

func (s *Service) serviceCard(service domain.Service, lang string) domain.ServiceCard {
	return domain.ServiceCard{
		ID:            service.ID,
		Title:         service.Title.In(lang),
		CoverURL:      serviceCover(service),
		Images:        serviceImages(service),
		CityTitle:     localizedName(service.City, lang),
		RegionTitle:   serviceRegionTitle(service, lang),
		CategoryTitle: categoryName(service.Category, lang),
		PriceText:     FormatPriceText(service.PriceMin, service.PriceMax),
		Rating:        service.Rating,
		ReviewsCount:  service.ReviewsCount,
		Tags:          tagNames(service.Tags, lang),
		HasDiscount:   service.DiscountText != "",
		DiscountText:  optional(service.DiscountText),
		IsFavorite:    service.IsFavorite,
		Open:          domain.OpenAction{Type: "service", ServiceID: service.ID},
	}
}

func (s *Service) serviceListItem(service domain.Service, lang string) domain.ServiceListItem {
	return domain.ServiceListItem{
		ID:            service.ID,
		Title:         service.Title.In(lang),
		CoverURL:      serviceCover(service),
		CityTitle:     localizedName(service.City, lang),
		RegionTitle:   serviceRegionTitle(service, lang),
		CategoryTitle: categoryName(service.Category, lang),
		PriceText:     FormatPriceText(service.PriceMin, service.PriceMax),
		Rating:        service.Rating,
		ReviewsCount:  service.ReviewsCount,
		HasDiscount:   service.DiscountText != "",
		DiscountText:  optional(service.DiscountText),
		IsFavorite:    service.IsFavorite,
		Open:          domain.OpenAction{Type: "service", ServiceID: service.ID},
	}
}

// serviceCover: аватар, затем фон, затем первое изображение галереи.
func serviceCover(service domain.Service) *string {
	if service.AvatarURL != "" {
		return optional(service.AvatarURL)
	}
	if service.BackgroundURL != "" {
		return optional(service.BackgroundURL)
	}
	if len(service.ImageURLs) > 0 {
		return optional(service.ImageURLs[0])
	}
	return nil
}

func serviceImages(service domain.Service) []string {
	if service.ImageURLs == nil {
		return []string{}
	}
	return service.ImageURLs
}

func serviceRegionTitle(service domain.Service, lang string) *string {
	if service.City == nil || service.City.Region == nil {
		return nil
	}
	return optional(service.City.Region.Name.In(lang))
}

func localizedName(city *domain.City, lang string) *string {
	if city == nil {
		return nil
	}
	return optional(city.Name.In(lang))
}

func categoryName(category *domain.Category, lang string) *string {
	if category == nil {
		return nil
	}
	return optional(category.Name.In(lang))
}

func tagNames(tags []domain.ServiceTag, lang string) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		if name := tag.Name.In(lang); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// dedupeServices страхует от умножения строк после склейки закреплённой
// и добранной частей, сохраняя первый встретившийся порядок.
func dedupeServices(services []domain.Service) []domain.Service {
	seen := make(map[int64]struct{}, len(services))
	result := services[:0]
	for _, service := range services {
		if _, ok := seen[service.ID]; ok {
			continue
		}
		seen[service.ID] = struct{}{}
		result = append(result, service)
	}
	return result
}
