package domain

// Feed — итоговый ответ главной страницы.
type Feed struct {
	Version int64        `json:"version"`
	City    *CityPayload `json:"city"`
	Blocks  []FeedBlock  `json:"blocks"`
}

// RegionPayload — представление региона в ответе.
type RegionPayload struct {
	ID        int64  `json:"id"`
	NameTM    string `json:"name_tm"`
	NameRU    string `json:"name_ru"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// CityPayload — представление города в ответе.
type CityPayload struct {
	ID            int64          `json:"id"`
	NameTM        string         `json:"name_tm"`
	NameRU        string         `json:"name_ru"`
	Name          string         `json:"name"`
	IsRegionLevel bool           `json:"is_region_level"`
	Region        *RegionPayload `json:"region"`
}

// FeedBlock — собранный блок главной страницы.
type FeedBlock struct {
	ID      string         `json:"id"`
	Type    HomeBlockType  `json:"type"`
	Title   *string        `json:"title"`
	Limit   *int           `json:"limit"`
	Style   map[string]any `json:"style"`
	Items   []any          `json:"items"`
	ViewAll *ViewAll       `json:"view_all"`
}

// ViewAll описывает действие «показать все» у блока.
type ViewAll struct {
	Type   string            `json:"type,omitempty"`
	Screen string            `json:"screen,omitempty"`
	Params map[string]any    `json:"params,omitempty"`
	Label  map[string]string `json:"label,omitempty"`
}

// OpenAction описывает навигационное действие элемента.
type OpenAction struct {
	Type      string         `json:"type"`
	ServiceID int64          `json:"service_id,omitempty"`
	URL       string         `json:"url,omitempty"`
	Screen    string         `json:"screen,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

// StoryCard — карточка сторис: несколько сторис одного сервиса,
// свёрнутые в один элемент ряда.
type StoryCard struct {
	ID            int64      `json:"id"`
	ServiceID     int64      `json:"service_id"`
	Title         string     `json:"title"`
	AvatarURL     *string    `json:"avatar_url"`
	StoryCoverURL *string    `json:"story_cover_url"`
	HasUnseen     bool       `json:"has_unseen"`
	StoriesCount  int        `json:"stories_count"`
	IsOwner       bool       `json:"is_owner"`
	Open          OpenAction `json:"open"`
}

// BannerItem — элемент баннерной карусели.
type BannerItem struct {
	ID       int64      `json:"id"`
	ImageURL *string    `json:"image_url"`
	Title    *string    `json:"title"`
	Subtitle *string    `json:"subtitle"`
	CTA      *string    `json:"cta"`
	Open     OpenAction `json:"open"`
}

// CategoryItem — элемент ленты категорий.
type CategoryItem struct {
	ID       int64      `json:"id"`
	Title    *string    `json:"title"`
	IconURL  *string    `json:"icon_url"`
	ImageURL *string    `json:"image_url"`
	Open     OpenAction `json:"open"`
}

// ServiceCard — карточка сервиса для карусели (полный набор полей).
type ServiceCard struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	CoverURL      *string    `json:"cover_url"`
	Images        []string   `json:"images"`
	CityTitle     *string    `json:"city_title"`
	RegionTitle   *string    `json:"region_title"`
	CategoryTitle *string    `json:"category_title"`
	PriceText     string     `json:"price_text"`
	Rating        *float64   `json:"rating"`
	ReviewsCount  int        `json:"reviews_count"`
	Tags          []string   `json:"tags"`
	HasDiscount   bool       `json:"has_discount"`
	DiscountText  *string    `json:"discount_text"`
	IsFavorite    bool       `json:"is_favorite"`
	Open          OpenAction `json:"open"`
}

// ServiceListItem — карточка сервиса для списка: без галереи и тегов.
type ServiceListItem struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	CoverURL      *string    `json:"cover_url"`
	CityTitle     *string    `json:"city_title"`
	RegionTitle   *string    `json:"region_title"`
	CategoryTitle *string    `json:"category_title"`
	PriceText     string     `json:"price_text"`
	Rating        *float64   `json:"rating"`
	ReviewsCount  int        `json:"reviews_count"`
	HasDiscount   bool       `json:"has_discount"`
	DiscountText  *string    `json:"discount_text"`
	IsFavorite    bool       `json:"is_favorite"`
	Open          OpenAction `json:"open"`
}
