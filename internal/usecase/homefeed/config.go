package homefeed

import (
	"sort"

	"kejebe-backend/internal/domain"
)

// SelectConfig выбирает лучшую конфигурацию главной страницы для запроса.
//
// Кандидат подходит, если он активен и каждое из полей locale/city/region
// либо не задано, либо совпадает с запросом; конфигурация, привязанная к
// конкретному городу, не подходит запросу без известного города (и
// симметрично для региона). Ранжирование: точное совпадение locale, затем
// города, затем региона; далее предпочтение конфигурациям с заданным
// городом и регионом; последний ключ — настроенный priority по убыванию.
// Нет кандидатов — nil, это не ошибка.
func SelectConfig(candidates []domain.HomePageConfig, lang string, cityID, regionID *int64) *domain.HomePageConfig {
	matched := make([]rankedConfig, 0, len(candidates))
	for _, cfg := range candidates {
		if !cfg.IsActive {
			continue
		}
		if cfg.Locale != "" && cfg.Locale != lang {
			continue
		}
		if cfg.CityID != nil && (cityID == nil || *cfg.CityID != *cityID) {
			continue
		}
		if cfg.RegionID != nil && (regionID == nil || *cfg.RegionID != *regionID) {
			continue
		}
		matched = append(matched, rankedConfig{
			config:      cfg,
			localeMatch: cfg.Locale != "" && cfg.Locale == lang,
			cityMatch:   cfg.CityID != nil && cityID != nil && *cfg.CityID == *cityID,
			regionMatch: cfg.RegionID != nil && regionID != nil && *cfg.RegionID == *regionID,
			cityUnset:   cfg.CityID == nil,
			regionUnset: cfg.RegionID == nil,
		})
	}
	if len(matched) == 0 {
		return nil
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].before(matched[j]) })
	best := matched[0].config
	return &best
}

type rankedConfig struct {
	config      domain.HomePageConfig
	localeMatch bool
	cityMatch   bool
	regionMatch bool
	cityUnset   bool
	regionUnset bool
}

func (r rankedConfig) before(other rankedConfig) bool {
	if r.localeMatch != other.localeMatch {
		return r.localeMatch
	}
	if r.cityMatch != other.cityMatch {
		return r.cityMatch
	}
	if r.regionMatch != other.regionMatch {
		return r.regionMatch
	}
	if r.cityUnset != other.cityUnset {
		return !r.cityUnset
	}
	if r.regionUnset != other.regionUnset {
		return !r.regionUnset
	}
	return r.config.Priority > other.config.Priority
}
