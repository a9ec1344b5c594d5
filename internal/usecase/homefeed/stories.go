package homefeed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"kejebe-backend/internal/domain"
)

type storyGroup struct {
	card      domain.StoryCard
	order     int
	cityMatch bool
}

// buildStoriesRow строит ряд сторис: активные в окне показа сторис
// активных сервисов, свёрнутые в одну карточку на сервис.
//
// Совпадение по городу — признак сортировки, не фильтр. Исключение:
// когда регион известен, а город нет, группы без совпадения по региону
// выбрасываются целиком. Порядок: сначала сервисы владельца запроса,
// затем совпавшие по городу, затем порядок первого появления.
func (s *Service) buildStoriesRow(ctx context.Context, block domain.HomeBlock, city *domain.City, region *domain.Region, lang string, req Request) ([]any, error) {
	now := time.Now().UTC()
	stories, err := s.stories.ListStoriesActiveNow(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("активные сторис: %w", err)
	}

	groups := make(map[int64]*storyGroup, len(stories))
	var sequence []*storyGroup
	order := 0
	for _, story := range stories {
		service := story.Service
		if service == nil || !service.IsActive {
			continue
		}
		// Сторис без явного окна показа живёт StoryTTL с момента создания.
		if story.EndsAt == nil && now.Sub(story.CreatedAt) > s.cfg.StoryTTL {
			continue
		}
		isOwner := req.User != nil && service.VendorID == req.User.ID
		cityMatch := false
		if region != nil && city == nil && !serviceMatchesRegion(*service, region.ID) {
			continue
		}
		if city != nil {
			cityMatch = serviceMatchesCity(*service, city.ID)
		}

		group, ok := groups[service.ID]
		if !ok {
			order++
			group = &storyGroup{
				card: domain.StoryCard{
					ID:            story.ID,
					ServiceID:     service.ID,
					Title:         service.Title.In(lang),
					AvatarURL:     optional(service.AvatarURL),
					StoryCoverURL: optional(story.ImageURL),
					HasUnseen:     true,
					IsOwner:       isOwner,
					Open:          domain.OpenAction{Type: "story", ServiceID: service.ID},
				},
				order:     order,
				cityMatch: cityMatch,
			}
			groups[service.ID] = group
			sequence = append(sequence, group)
		} else {
			group.cityMatch = group.cityMatch || cityMatch
			group.card.IsOwner = group.card.IsOwner || isOwner
		}
		group.card.StoriesCount++
		if group.card.StoryCoverURL == nil && story.ImageURL != "" {
			group.card.StoryCoverURL = optional(story.ImageURL)
		}
	}

	sort.SliceStable(sequence, func(i, j int) bool {
		a, b := sequence[i], sequence[j]
		if a.card.IsOwner != b.card.IsOwner {
			return a.card.IsOwner
		}
		if a.cityMatch != b.cityMatch {
			return a.cityMatch
		}
		return a.order < b.order
	})

	if block.Limit > 0 && len(sequence) > block.Limit {
		sequence = sequence[:block.Limit]
	}

	items := make([]any, 0, len(sequence))
	for _, group := range sequence {
		items = append(items, group.card)
	}
	return items, nil
}

func serviceMatchesCity(service domain.Service, cityID int64) bool {
	if service.CityID != nil && *service.CityID == cityID {
		return true
	}
	for _, available := range service.AvailableCities {
		if available.ID == cityID {
			return true
		}
	}
	return false
}

func serviceMatchesRegion(service domain.Service, regionID int64) bool {
	if service.City != nil && service.City.RegionID == regionID {
		return true
	}
	for _, available := range service.AvailableCities {
		if available.RegionID == regionID {
			return true
		}
	}
	return false
}
