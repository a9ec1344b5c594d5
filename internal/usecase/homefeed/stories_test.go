package homefeed

import (
	"context"
	"testing"
	"time"

	"kejebe-backend/internal/domain"
)

func storiesFixture() (*stubRepos, domain.Service, domain.Service) {
	cityID := int64(10)
	serviceA := domain.Service{
		ID:       100,
		VendorID: 9,
		IsActive: true,
		CityID:   &cityID,
		City:     &domain.City{ID: cityID, RegionID: 1},
		Title:    domain.LocalizedText{TM: "A"},
	}
	serviceB := domain.Service{
		ID:       200,
		VendorID: 5,
		IsActive: true,
		Title:    domain.LocalizedText{TM: "B"},
	}
	createdAt := time.Now().UTC()
	repos := &stubRepos{
		stories: []domain.ServiceStory{
			{ID: 1, ServiceID: 100, Service: &serviceA, IsActive: true, CreatedAt: createdAt},
			{ID: 2, ServiceID: 100, Service: &serviceA, IsActive: true, ImageURL: "cover.jpg", CreatedAt: createdAt},
			{ID: 3, ServiceID: 200, Service: &serviceB, IsActive: true, ImageURL: "b.jpg", CreatedAt: createdAt},
		},
	}
	return repos, serviceA, serviceB
}

func TestStoriesGroupedPerService(t *testing.T) {
	repos, _, _ := storiesFixture()
	service := newTestService(repos)

	items, err := service.buildStoriesRow(context.Background(), domain.HomeBlock{}, nil, nil, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("ожидали карточку на сервис, получили %d", len(items))
	}
	card := items[0].(domain.StoryCard)
	if card.ServiceID != 100 || card.StoriesCount != 2 {
		t.Fatalf("ожидали свёрнутую карточку сервиса 100 с 2 сторис, получили %#v", card)
	}
	if card.ID != 1 {
		t.Fatalf("карточка должна наследовать id первой сторис, получили %d", card.ID)
	}
	if card.StoryCoverURL == nil || *card.StoryCoverURL != "cover.jpg" {
		t.Fatalf("обложка должна добираться из следующей сторис группы")
	}
}

func TestStoriesOwnerFirst(t *testing.T) {
	repos, _, serviceB := storiesFixture()
	service := newTestService(repos)

	items, err := service.buildStoriesRow(context.Background(), domain.HomeBlock{}, nil, nil, domain.LangTM, Request{
		User: &domain.User{ID: serviceB.VendorID},
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	first := items[0].(domain.StoryCard)
	if first.ServiceID != 200 || !first.IsOwner {
		t.Fatalf("сервисы владельца должны идти первыми, получили %#v", first)
	}
}

func TestStoriesCityMatchOrdersButDoesNotFilter(t *testing.T) {
	repos, serviceA, _ := storiesFixture()
	service := newTestService(repos)
	city := testCity(*serviceA.CityID, 1)

	items, err := service.buildStoriesRow(context.Background(), domain.HomeBlock{}, &city, city.Region, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("совпадение города сортирует, а не фильтрует; получили %d карточек", len(items))
	}
	if items[0].(domain.StoryCard).ServiceID != 100 {
		t.Fatalf("совпавший по городу сервис должен идти первым")
	}
}

func TestStoriesRegionOnlyExcludesForeign(t *testing.T) {
	repos, _, _ := storiesFixture()
	service := newTestService(repos)
	region := domain.Region{ID: 1}

	items, err := service.buildStoriesRow(context.Background(), domain.HomeBlock{}, nil, &region, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 1 || items[0].(domain.StoryCard).ServiceID != 100 {
		t.Fatalf("при известном регионе без города чужие группы выбрасываются, получили %#v", items)
	}
}

func TestStoriesLimitAppliesToGroups(t *testing.T) {
	repos, _, _ := storiesFixture()
	service := newTestService(repos)

	items, err := service.buildStoriesRow(context.Background(), domain.HomeBlock{Limit: 1}, nil, nil, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("лимит режет группы, а не сторис; получили %d", len(items))
	}
}

func TestStoriesWithoutEndExpireAfterTTL(t *testing.T) {
	repos, serviceA, _ := storiesFixture()
	stale := time.Now().UTC().Add(-48 * time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	// Старая сторис без конца окна протухла, с явным окном — живёт.
	repos.stories = []domain.ServiceStory{
		{ID: 1, ServiceID: 100, Service: &serviceA, IsActive: true, CreatedAt: stale},
		{ID: 2, ServiceID: 100, Service: &serviceA, IsActive: true, CreatedAt: stale, EndsAt: &future},
	}
	service := newTestService(repos)

	items, err := service.buildStoriesRow(context.Background(), domain.HomeBlock{}, nil, nil, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("ожидали одну группу, получили %d", len(items))
	}
	card := items[0].(domain.StoryCard)
	if card.ID != 2 || card.StoriesCount != 1 {
		t.Fatalf("просроченная сторис не должна попадать в группу, получили %#v", card)
	}
}

func TestStoriesGroupingStableUnderReorder(t *testing.T) {
	repos, _, _ := storiesFixture()
	service := newTestService(repos)

	base, err := service.buildStoriesRow(context.Background(), domain.HomeBlock{}, nil, nil, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	// Репозиторий возвращает сторис в фиксированном порядке, но группировка
	// не должна зависеть от порядка внутри одного сервиса.
	repos.stories[0], repos.stories[1] = repos.stories[1], repos.stories[0]
	shuffled, err := service.buildStoriesRow(context.Background(), domain.HomeBlock{}, nil, nil, domain.LangTM, Request{})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	if len(base) != len(shuffled) {
		t.Fatalf("число групп разошлось: %d и %d", len(base), len(shuffled))
	}
	for i := range base {
		a := base[i].(domain.StoryCard)
		b := shuffled[i].(domain.StoryCard)
		if a.ServiceID != b.ServiceID || a.StoriesCount != b.StoriesCount {
			t.Fatalf("группы зависят от порядка сторис: %#v и %#v", a, b)
		}
		aCover := a.StoryCoverURL != nil
		bCover := b.StoryCoverURL != nil
		if aCover != bCover {
			t.Fatalf("обложка группы зависит от порядка сторис")
		}
	}
}
