package domain

import (
	"testing"
	"time"
)

func TestLocalizedTextFallback(t *testing.T) {
	text := LocalizedText{TM: "tm", RU: "ru"}
	if text.In(LangRU) != "ru" {
		t.Fatalf("ожидали русский вариант")
	}
	if text.In(LangEN) != "tm" {
		t.Fatalf("пустой английский должен откатываться на туркменский")
	}
	if text.In("fr") != "tm" {
		t.Fatalf("неизвестный язык должен откатываться на туркменский")
	}
}

func TestServiceStoryActiveAt(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name  string
		story ServiceStory
		want  bool
	}{
		{name: "без окна", story: ServiceStory{IsActive: true}, want: true},
		{name: "в окне", story: ServiceStory{IsActive: true, StartsAt: &past, EndsAt: &future}, want: true},
		{name: "ещё не началась", story: ServiceStory{IsActive: true, StartsAt: &future}, want: false},
		{name: "уже закончилась", story: ServiceStory{IsActive: true, EndsAt: &past}, want: false},
		{name: "выключена", story: ServiceStory{IsActive: false}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.story.ActiveAt(now); got != tc.want {
				t.Fatalf("ожидали %v, получили %v", tc.want, got)
			}
		})
	}
}

func TestBannerMatchesLocation(t *testing.T) {
	city := int64(10)
	region := int64(1)

	cases := []struct {
		name   string
		banner Banner
		want   bool
	}{
		{name: "без таргетинга", banner: Banner{}, want: true},
		{name: "город совпал", banner: Banner{CityIDs: []int64{10, 20}}, want: true},
		{name: "чужой город", banner: Banner{CityIDs: []int64{20}}, want: false},
		{name: "регион совпал", banner: Banner{RegionIDs: []int64{1}}, want: true},
		{name: "чужой регион", banner: Banner{RegionIDs: []int64{2}}, want: false},
		{name: "город совпал, регион чужой", banner: Banner{CityIDs: []int64{10}, RegionIDs: []int64{2}}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.banner.MatchesLocation(&city, &region); got != tc.want {
				t.Fatalf("ожидали %v, получили %v", tc.want, got)
			}
		})
	}

	targeted := Banner{CityIDs: []int64{10}}
	if targeted.MatchesLocation(nil, nil) {
		t.Fatalf("таргетированный баннер не подходит запросу без локации")
	}
}
