package homefeed

import (
	"context"
	"testing"

	"kejebe-backend/internal/domain"
)

func TestBannerCarouselLocationTargeting(t *testing.T) {
	repos := &stubRepos{banners: []domain.Banner{
		{ID: 1, IsActive: true, Title: domain.LocalizedText{TM: "hemmelere"}},
		{ID: 2, IsActive: true, CityIDs: []int64{10}},
		{ID: 3, IsActive: true, CityIDs: []int64{20}},
		{ID: 4, IsActive: true, RegionIDs: []int64{1}},
		{ID: 5, IsActive: true, RegionIDs: []int64{2}},
	}}
	service := newTestService(repos)
	city := testCity(10, 1)
	block := domain.HomeBlock{
		ID:    3,
		Type:  domain.BlockBannerCarousel,
		Style: domain.BlockStyle{LocationFilter: ptrBool(true)},
	}

	items, err := service.buildBannerCarousel(context.Background(), block, &city, city.Region, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("ожидали баннеры без таргетинга и с совпавшей локацией, получили %d", len(items))
	}
	got := []int64{
		items[0].(domain.BannerItem).ID,
		items[1].(domain.BannerItem).ID,
		items[2].(domain.BannerItem).ID,
	}
	if got[0] != 1 || got[1] != 2 || got[2] != 4 {
		t.Fatalf("ожидали [1 2 4], получили %v", got)
	}

	filter := repos.bannerFilters[0]
	if filter.LocationCityID == nil || *filter.LocationCityID != 10 || filter.LocationRegionID == nil || *filter.LocationRegionID != 1 {
		t.Fatalf("локация должна уходить в выборку, получили %#v", filter)
	}
}

func TestBannerCarouselWithoutLocationFilter(t *testing.T) {
	repos := &stubRepos{banners: []domain.Banner{
		{ID: 1, IsActive: true},
		{ID: 2, IsActive: true, CityIDs: []int64{20}},
	}}
	service := newTestService(repos)
	city := testCity(10, 1)
	block := domain.HomeBlock{ID: 3, Type: domain.BlockBannerCarousel}

	items, err := service.buildBannerCarousel(context.Background(), block, &city, city.Region, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("без локационного фильтра таргетинг не применяется, получили %d", len(items))
	}
}

func TestBannerOpenActionPrecedence(t *testing.T) {
	serviceID := int64(42)
	cases := []struct {
		name   string
		banner domain.Banner
		want   string
	}{
		{name: "сервис важнее ссылки", banner: domain.Banner{ServiceID: &serviceID, LinkURL: "https://example.com"}, want: "service"},
		{name: "ссылка без сервиса", banner: domain.Banner{LinkURL: "https://example.com"}, want: "url"},
		{name: "пустой баннер ведёт на главную", banner: domain.Banner{}, want: "navigate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			open := bannerOpen(tc.banner)
			if open.Type != tc.want {
				t.Fatalf("ожидали %q, получили %q", tc.want, open.Type)
			}
		})
	}
}

func TestBannerCarouselManualOrder(t *testing.T) {
	repos := &stubRepos{
		banners: []domain.Banner{
			{ID: 1, IsActive: true},
			{ID: 2, IsActive: true},
			{ID: 3, IsActive: true},
		},
		manualItems: map[int64][]domain.HomeBlockItem{4: {
			{TargetType: domain.TargetBanner, TargetID: 3},
			{TargetType: domain.TargetBanner, TargetID: 1},
			{TargetType: domain.TargetBanner, TargetID: 777},
		}},
	}
	service := newTestService(repos)
	block := domain.HomeBlock{ID: 4, Type: domain.BlockBannerCarousel, SourceMode: domain.SourceManual, Limit: 10}

	items, err := service.buildBannerCarousel(context.Background(), block, nil, nil, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("битая ссылка отбрасывается, получили %d", len(items))
	}
	if items[0].(domain.BannerItem).ID != 3 || items[1].(domain.BannerItem).ID != 1 {
		t.Fatalf("ручной порядок должен сохраняться")
	}
}
