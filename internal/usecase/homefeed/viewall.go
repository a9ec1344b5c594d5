package homefeed

import "kejebe-backend/internal/domain"

// defaultViewAllLabel — двуязычная подпись «показать все» по умолчанию.
func defaultViewAllLabel() map[string]string {
	return map[string]string{
		domain.LangRU: "Показать все",
		domain.LangTM: "Hemmesini gör",
	}
}

// ensureViewAllLabel добавляет подпись по умолчанию, если у дескриптора
// нет собственной. Исходный дескриптор не мутирует: style-значение общее
// для всех запросов.
func ensureViewAllLabel(viewAll *domain.ViewAll) *domain.ViewAll {
	if viewAll == nil || viewAll.Label != nil {
		return viewAll
	}
	labeled := *viewAll
	labeled.Label = defaultViewAllLabel()
	return &labeled
}

func defaultCategoryViewAll() *domain.ViewAll {
	return &domain.ViewAll{
		Type:   "navigate",
		Screen: "AllCategories",
		Params: map[string]any{},
	}
}
