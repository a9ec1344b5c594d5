package homefeed

import (
	"context"
	"fmt"
	"time"

	"kejebe-backend/internal/domain"
)

// buildBannerCarousel строит баннерную карусель. Ручной режим отдаёт
// прикреплённые баннеры в настроенном порядке; query-режим — активные в
// окне показа баннеры, суженные параметрами блока и, при включённом
// локационном фильтре, разрешённой локацией.
func (s *Service) buildBannerCarousel(ctx context.Context, block domain.HomeBlock, city *domain.City, region *domain.Region, lang string, req Request) ([]any, error) {
	var banners []domain.Banner
	if block.SourceMode == domain.SourceManual {
		manualItems, err := s.configs.ListManualItems(ctx, block.ID)
		if err != nil {
			return nil, fmt.Errorf("ручные элементы блока: %w", err)
		}
		banners, err = s.resolveManualBanners(ctx, manualItems)
		if err != nil {
			return nil, err
		}
		if block.Limit > 0 && len(banners) > block.Limit {
			banners = banners[:block.Limit]
		}
	} else {
		filter := domain.BannerFilter{
			Now:       time.Now().UTC(),
			CityIDs:   block.Params.CityIDs,
			RegionIDs: block.Params.RegionIDs,
			Limit:     block.Limit,
		}
		if shouldFilterByLocation(block, req) {
			if city != nil {
				filter.LocationCityID = &city.ID
				if city.RegionID != 0 {
					regionID := city.RegionID
					filter.LocationRegionID = &regionID
				}
			} else if region != nil {
				filter.LocationRegionID = &region.ID
			}
		}
		var err error
		banners, err = s.banners.ListActiveNow(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("активные баннеры: %w", err)
		}
		banners = dedupeBanners(banners)
		banners = filterBannersByLocation(banners, filter.LocationCityID, filter.LocationRegionID)
	}

	items := make([]any, 0, len(banners))
	for _, banner := range banners {
		items = append(items, domain.BannerItem{
			ID:       banner.ID,
			ImageURL: optional(banner.ImageURL),
			Title:    optional(banner.Title.In(lang)),
			Open:     bannerOpen(banner),
		})
	}
	return items, nil
}

func bannerOpen(banner domain.Banner) domain.OpenAction {
	if banner.ServiceID != nil {
		return domain.OpenAction{Type: "service", ServiceID: *banner.ServiceID}
	}
	if banner.LinkURL != "" {
		return domain.OpenAction{Type: "url", URL: banner.LinkURL}
	}
	return domain.OpenAction{Type: "navigate", Screen: "Home"}
}

// filterBannersByLocation оставляет баннеры, чей таргетинг совместим с
// разрешённой локацией: пустой список городов (регионов) подходит всем,
// непустой должен содержать локацию запроса.
func filterBannersByLocation(banners []domain.Banner, cityID, regionID *int64) []domain.Banner {
	if cityID == nil && regionID == nil {
		return banners
	}
	result := banners[:0]
	for _, banner := range banners {
		if banner.MatchesLocation(cityID, regionID) {
			result = append(result, banner)
		}
	}
	return result
}

// dedupeBanners убирает повторы после соединений по городам и регионам,
// сохраняя первый встретившийся порядок.
func dedupeBanners(banners []domain.Banner) []domain.Banner {
	seen := make(map[int64]struct{}, len(banners))
	result := banners[:0]
	for _, banner := range banners {
		if _, ok := seen[banner.ID]; ok {
			continue
		}
		seen[banner.ID] = struct{}{}
		result = append(result, banner)
	}
	return result
}
