package homefeed

import (
	"context"
	"fmt"

	"kejebe-backend/internal/domain"
)

// Ручные элементы блока — полиморфные ссылки. Разрешение идёт через
// явный выбор резолвера по типу цели; ссылки на отсутствующие записи и
// цели чужого типа отбрасываются здесь, а не в билдерах.

// manualIDs возвращает идентификаторы ручных элементов нужного типа в
// настроенном порядке.
func manualIDs(items []domain.HomeBlockItem, target domain.TargetType) []int64 {
	var ids []int64
	for _, item := range items {
		if item.TargetType != target {
			continue
		}
		ids = append(ids, item.TargetID)
	}
	return ids
}

func (s *Service) resolveManualBanners(ctx context.Context, items []domain.HomeBlockItem) ([]domain.Banner, error) {
	ids := manualIDs(items, domain.TargetBanner)
	if len(ids) == 0 {
		return nil, nil
	}
	banners, err := s.banners.ListBannersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("ручные баннеры: %w", err)
	}
	byID := make(map[int64]domain.Banner, len(banners))
	for _, banner := range banners {
		byID[banner.ID] = banner
	}
	ordered := make([]domain.Banner, 0, len(ids))
	for _, id := range ids {
		if banner, ok := byID[id]; ok {
			ordered = append(ordered, banner)
		}
	}
	return ordered, nil
}

func (s *Service) resolveManualCategories(ctx context.Context, items []domain.HomeBlockItem) ([]domain.Category, error) {
	ids := manualIDs(items, domain.TargetCategory)
	if len(ids) == 0 {
		return nil, nil
	}
	categories, err := s.categories.ListCategoriesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("ручные категории: %w", err)
	}
	byID := make(map[int64]domain.Category, len(categories))
	for _, category := range categories {
		byID[category.ID] = category
	}
	ordered := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		if category, ok := byID[id]; ok {
			ordered = append(ordered, category)
		}
	}
	return ordered, nil
}

func orderServicesByIDs(ids []int64, services []domain.Service) []domain.Service {
	byID := make(map[int64]domain.Service, len(services))
	for _, service := range services {
		byID[service.ID] = service
	}
	ordered := make([]domain.Service, 0, len(ids))
	for _, id := range ids {
		if service, ok := byID[id]; ok {
			ordered = append(ordered, service)
		}
	}
	return ordered
}
