package homefeed

import (
	"context"
	"fmt"

	"kejebe-backend/internal/domain"
)

// buildCategoryStrip строит ленту категорий. Возвращаемый total считается
// по полному отфильтрованному набору, а не по обрезанному срезу; view_all
// появляется только когда total превышает display limit, если style не
// задал (или явно не обнулил) собственный view_all.
func (s *Service) buildCategoryStrip(ctx context.Context, block domain.HomeBlock, lang string) ([]any, *domain.ViewAll, error) {
	displayLimit := s.categoryStripLimit(block)

	var categories []domain.Category
	var total int
	if block.SourceMode == domain.SourceManual {
		manualItems, err := s.configs.ListManualItems(ctx, block.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("ручные элементы блока: %w", err)
		}
		all, err := s.resolveManualCategories(ctx, manualItems)
		if err != nil {
			return nil, nil, err
		}
		total = len(all)
		categories = truncateCategories(all, displayLimit)
	} else {
		all, err := s.categories.ListTopLevel(ctx, block.Params.CategoryIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("корневые категории: %w", err)
		}
		total = len(all)
		categories = truncateCategories(all, displayLimit)
	}

	items := make([]any, 0, len(categories))
	for _, category := range categories {
		items = append(items, domain.CategoryItem{
			ID:       category.ID,
			Title:    optional(category.Name.In(lang)),
			IconURL:  optional(category.IconURL),
			ImageURL: optional(category.ImageURL),
			Open: domain.OpenAction{
				Type:   "search",
				Params: map[string]any{"category_ids": []int64{category.ID}},
			},
		})
	}

	var viewAll *domain.ViewAll
	switch {
	case block.Style.HasViewAll:
		viewAll = block.Style.ViewAll
	case total > displayLimit:
		viewAll = defaultCategoryViewAll()
	}
	return items, ensureViewAllLabel(viewAll), nil
}

// categoryStripLimit: лимит блока, если админ его перенастроил, иначе
// фиксированный запасной лимит ленты категорий.
func (s *Service) categoryStripLimit(block domain.HomeBlock) int {
	if block.Limit > 0 && block.Limit != domain.DefaultBlockLimit {
		return block.Limit
	}
	return s.cfg.CategoryStripLimit
}

func truncateCategories(categories []domain.Category, limit int) []domain.Category {
	if limit > 0 && len(categories) > limit {
		return categories[:limit]
	}
	return categories
}
