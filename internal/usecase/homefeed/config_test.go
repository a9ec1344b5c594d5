package homefeed

import (
	"testing"

	"kejebe-backend/internal/domain"
)

func TestSelectConfigSpecificityBeatsPriority(t *testing.T) {
	candidates := []domain.HomePageConfig{
		{ID: 1, IsActive: true, Priority: 100},
		{ID: 2, IsActive: true, CityID: ptrInt64(10), Priority: 0},
	}
	cfg := SelectConfig(candidates, domain.LangTM, ptrInt64(10), ptrInt64(1))
	if cfg == nil || cfg.ID != 2 {
		t.Fatalf("ожидали городскую конфигурацию, получили %#v", cfg)
	}
}

func TestSelectConfigLocaleMatchFirst(t *testing.T) {
	candidates := []domain.HomePageConfig{
		{ID: 1, IsActive: true, CityID: ptrInt64(10)},
		{ID: 2, IsActive: true, Locale: domain.LangRU},
	}
	cfg := SelectConfig(candidates, domain.LangRU, ptrInt64(10), nil)
	if cfg == nil || cfg.ID != 2 {
		t.Fatalf("совпадение локали должно весить больше города, получили %#v", cfg)
	}
}

func TestSelectConfigCityScopedExcludedWithoutCity(t *testing.T) {
	candidates := []domain.HomePageConfig{
		{ID: 1, IsActive: true, CityID: ptrInt64(10), Priority: 100},
		{ID: 2, IsActive: true, Priority: 0},
	}
	cfg := SelectConfig(candidates, domain.LangTM, nil, nil)
	if cfg == nil || cfg.ID != 2 {
		t.Fatalf("без города подходят только глобальные конфигурации, получили %#v", cfg)
	}
}

func TestSelectConfigRegionFallback(t *testing.T) {
	candidates := []domain.HomePageConfig{
		{ID: 1, IsActive: true, CityID: ptrInt64(99)},
		{ID: 2, IsActive: true, RegionID: ptrInt64(1)},
		{ID: 3, IsActive: true},
	}
	cfg := SelectConfig(candidates, domain.LangTM, ptrInt64(10), ptrInt64(1))
	if cfg == nil || cfg.ID != 2 {
		t.Fatalf("ожидали региональную конфигурацию, получили %#v", cfg)
	}
}

func TestSelectConfigPriorityBreaksTies(t *testing.T) {
	candidates := []domain.HomePageConfig{
		{ID: 1, IsActive: true, Priority: 10},
		{ID: 2, IsActive: true, Priority: 50},
	}
	cfg := SelectConfig(candidates, domain.LangTM, nil, nil)
	if cfg == nil || cfg.ID != 2 {
		t.Fatalf("при прочих равных побеждает priority, получили %#v", cfg)
	}
}

func TestSelectConfigSkipsInactiveAndForeignLocale(t *testing.T) {
	candidates := []domain.HomePageConfig{
		{ID: 1, IsActive: false, Priority: 100},
		{ID: 2, IsActive: true, Locale: domain.LangEN},
	}
	if cfg := SelectConfig(candidates, domain.LangRU, nil, nil); cfg != nil {
		t.Fatalf("не ожидали кандидата, получили %#v", cfg)
	}
}

func TestSelectConfigNilWhenEmpty(t *testing.T) {
	if cfg := SelectConfig(nil, domain.LangTM, nil, nil); cfg != nil {
		t.Fatalf("для пустого списка ожидали nil")
	}
}
