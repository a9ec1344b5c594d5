package homefeed

import (
	"context"
	"testing"

	"kejebe-backend/internal/domain"
)

func activeServices(ids ...int64) []domain.Service {
	services := make([]domain.Service, 0, len(ids))
	for _, id := range ids {
		services = append(services, domain.Service{ID: id, CategoryID: 1, IsActive: true, Title: domain.LocalizedText{TM: "hyzmat"}})
	}
	return services
}

func TestServiceBlockPinnedQuery(t *testing.T) {
	repos := &stubRepos{
		services: activeServices(101, 102, 103, 104, 105),
		manualItems: map[int64][]domain.HomeBlockItem{8: {
			{TargetType: domain.TargetService, TargetID: 101},
			{TargetType: domain.TargetService, TargetID: 102},
		}},
	}
	service := newTestService(repos)
	block := domain.HomeBlock{ID: 8, Type: domain.BlockServiceCarousel, SourceMode: domain.SourcePinnedQuery, Limit: 3}

	items, _, err := service.buildServiceBlock(context.Background(), block, nil, nil, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("ожидали 3 элемента, получили %d", len(items))
	}
	got := []int64{
		items[0].(domain.ServiceCard).ID,
		items[1].(domain.ServiceCard).ID,
		items[2].(domain.ServiceCard).ID,
	}
	if got[0] != 101 || got[1] != 102 || got[2] != 103 {
		t.Fatalf("ожидали [101 102 103], получили %v", got)
	}

	backfill := repos.serviceFilters[len(repos.serviceFilters)-1]
	if len(backfill.ExcludeIDs) != 2 || backfill.Limit != 1 {
		t.Fatalf("добор должен исключать закреплённые и брать остаток лимита, получили %#v", backfill)
	}
}

func TestServiceBlockPinnedQueryWithoutLimit(t *testing.T) {
	repos := &stubRepos{
		services: activeServices(101, 102, 103),
		manualItems: map[int64][]domain.HomeBlockItem{8: {
			{TargetType: domain.TargetService, TargetID: 102},
		}},
	}
	service := newTestService(repos)
	block := domain.HomeBlock{ID: 8, Type: domain.BlockServiceCarousel, SourceMode: domain.SourcePinnedQuery}

	items, _, err := service.buildServiceBlock(context.Background(), block, nil, nil, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 3 || items[0].(domain.ServiceCard).ID != 102 {
		t.Fatalf("без лимита добирается вся выборка после закреплённых, получили %d", len(items))
	}
}

func TestServiceBlockManualDanglingSkipped(t *testing.T) {
	repos := &stubRepos{
		services: activeServices(101),
		manualItems: map[int64][]domain.HomeBlockItem{8: {
			{TargetType: domain.TargetService, TargetID: 101},
			{TargetType: domain.TargetService, TargetID: 999},
			{TargetType: domain.TargetBanner, TargetID: 55},
		}},
	}
	service := newTestService(repos)
	block := domain.HomeBlock{ID: 8, Type: domain.BlockServiceCarousel, SourceMode: domain.SourceManual, Limit: 10}

	items, _, err := service.buildServiceBlock(context.Background(), block, nil, nil, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 1 || items[0].(domain.ServiceCard).ID != 101 {
		t.Fatalf("битые и чужетипные ссылки отбрасываются, получили %#v", items)
	}
}

func TestServiceBlockFavoriteAnnotation(t *testing.T) {
	repos := &stubRepos{
		services:  activeServices(101, 102),
		favorites: map[int64]map[int64]bool{7: {101: true}},
	}
	service := newTestService(repos)
	block := domain.HomeBlock{ID: 8, Type: domain.BlockServiceCarousel, SourceMode: domain.SourceQuery, Limit: 10}

	items, _, err := service.buildServiceBlock(context.Background(), block, nil, nil, domain.LangTM, Request{User: &domain.User{ID: 7}})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !items[0].(domain.ServiceCard).IsFavorite || items[1].(domain.ServiceCard).IsFavorite {
		t.Fatalf("избранное должно отражать профиль смотрящего")
	}

	items, _, err = service.buildServiceBlock(context.Background(), block, nil, nil, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if items[0].(domain.ServiceCard).IsFavorite {
		t.Fatalf("у анонима избранного нет")
	}
}

func TestServiceListOmitsMedia(t *testing.T) {
	repos := &stubRepos{services: activeServices(101)}
	service := newTestService(repos)
	block := domain.HomeBlock{ID: 8, Type: domain.BlockServiceList, SourceMode: domain.SourceQuery, Limit: 10}

	items, _, err := service.buildServiceBlock(context.Background(), block, nil, nil, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, ok := items[0].(domain.ServiceListItem); !ok {
		t.Fatalf("список должен отдавать облегчённые карточки, получили %T", items[0])
	}
	filter := repos.serviceFilters[0]
	if filter.WithImages || filter.WithTags {
		t.Fatalf("для списка галерея и теги не загружаются, получили %#v", filter)
	}
}

func TestServiceViewAllCarriesBlockAndLocation(t *testing.T) {
	repos := &stubRepos{services: activeServices(101)}
	service := newTestService(repos)
	city := testCity(10, 1)
	block := domain.HomeBlock{
		ID:         8,
		Type:       domain.BlockServiceCarousel,
		SourceMode: domain.SourceQuery,
		Limit:      10,
		Params:     domain.BlockParams{CategoryIDs: []int64{2}},
	}

	_, viewAll, err := service.buildServiceBlock(context.Background(), block, &city, city.Region, domain.LangTM, Request{LocationFilterParam: "1"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if viewAll == nil || viewAll.Type != "search" {
		t.Fatalf("ожидали поисковый view_all, получили %#v", viewAll)
	}
	cityIDs, ok := viewAll.Params["city_ids"].([]int64)
	if !ok || len(cityIDs) != 1 || cityIDs[0] != city.ID {
		t.Fatalf("активный локационный фильтр должен попадать в параметры, получили %#v", viewAll.Params)
	}
	if viewAll.Label == nil {
		t.Fatalf("view_all без подписи должен получать подпись по умолчанию")
	}

	filter := repos.serviceFilters[0]
	if filter.LocationCityID == nil || *filter.LocationCityID != city.ID {
		t.Fatalf("локация должна сужать выборку, получили %#v", filter)
	}
}

func TestServiceViewAllAbsentWithoutParams(t *testing.T) {
	repos := &stubRepos{services: activeServices(101)}
	service := newTestService(repos)
	block := domain.HomeBlock{ID: 8, Type: domain.BlockServiceCarousel, SourceMode: domain.SourceQuery, Limit: 10}

	_, viewAll, err := service.buildServiceBlock(context.Background(), block, nil, nil, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if viewAll != nil {
		t.Fatalf("без параметров view_all не отдаётся, получили %#v", viewAll)
	}
}
