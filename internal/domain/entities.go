package domain

import "time"

// Поддерживаемые языки интерфейса.
const (
	LangTM = "tm"
	LangRU = "ru"
	LangEN = "en"
)

// DefaultLang используется, когда язык запроса не распознан.
const DefaultLang = LangTM

// LocalizedText хранит локализованные варианты строки.
type LocalizedText struct {
	TM string
	RU string
	EN string
}

// In возвращает текст на указанном языке с откатом на туркменский.
func (t LocalizedText) In(lang string) string {
	switch lang {
	case LangRU:
		if t.RU != "" {
			return t.RU
		}
	case LangEN:
		if t.EN != "" {
			return t.EN
		}
	}
	return t.TM
}

// Region описывает велаят или приравненную к нему территорию.
type Region struct {
	ID   int64
	Name LocalizedText
}

// City описывает город, привязанный к региону.
type City struct {
	ID            int64
	RegionID      int64
	Region        *Region
	Name          LocalizedText
	IsRegionLevel bool
}

// Device описывает установленное приложение и его привязку к локации.
type Device struct {
	ID         int64
	DeviceID   string
	Platform   string
	UserID     *int64
	CityID     *int64
	City       *City
	RegionID   *int64
	CreatedAt  time.Time
	LastSeenAt *time.Time
}

// User описывает покупателя или вендора маркетплейса.
type User struct {
	ID        int64
	Phone     string
	CityID    *int64
	City      *City
	IsVendor  bool
	CreatedAt time.Time
}

// Category — узел дерева категорий. ParentID == nil у корневых.
type Category struct {
	ID       int64
	ParentID *int64
	Slug     string
	Name     LocalizedText
	IconURL  string
	ImageURL string
	Priority int
}

// ServiceTag — тег сервиса.
type ServiceTag struct {
	ID   int64
	Name LocalizedText
}

// Service описывает услугу вендора вместе с аннотациями запроса.
type Service struct {
	ID              int64
	VendorID        int64
	CategoryID      int64
	Category        *Category
	CityID          *int64
	City            *City
	AvailableCities []City
	Title           LocalizedText
	AvatarURL       string
	BackgroundURL   string
	ImageURLs       []string
	PriceMin        *float64
	PriceMax        *float64
	DiscountText    string
	Tags            []ServiceTag
	IsActive        bool
	Priority        int
	CreatedAt       time.Time

	// Аннотации, вычисляемые слоем данных под конкретный запрос.
	Rating       *float64
	ReviewsCount int
	IsFavorite   bool
}

// Banner описывает рекламный баннер с окном показа и таргетингом.
type Banner struct {
	ID        int64
	Title     LocalizedText
	ImageURL  string
	ServiceID *int64
	LinkURL   string
	CityIDs   []int64
	RegionIDs []int64
	IsActive  bool
	StartsAt  *time.Time
	EndsAt    *time.Time
	Priority  int
	CreatedAt time.Time
}

// MatchesLocation сообщает, совместим ли таргетинг баннера с локацией:
// пустой список городов (регионов) подходит любой локации, непустой
// должен содержать город (регион) запроса.
func (b Banner) MatchesLocation(cityID, regionID *int64) bool {
	if len(b.CityIDs) > 0 {
		if cityID == nil || !containsID(b.CityIDs, *cityID) {
			return false
		}
	}
	if len(b.RegionIDs) > 0 {
		if regionID == nil || !containsID(b.RegionIDs, *regionID) {
			return false
		}
	}
	return true
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// ServiceStory — сторис сервиса с окном активности.
type ServiceStory struct {
	ID        int64
	ServiceID int64
	Service   *Service
	Title     string
	ImageURL  string
	IsActive  bool
	StartsAt  *time.Time
	EndsAt    *time.Time
	Priority  int
	CreatedAt time.Time
}

// ActiveAt сообщает, попадает ли момент в окно показа сторис.
func (s ServiceStory) ActiveAt(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.StartsAt != nil && s.StartsAt.After(now) {
		return false
	}
	if s.EndsAt != nil && s.EndsAt.Before(now) {
		return false
	}
	return true
}

// HomeBlockType перечисляет типы блоков главной страницы.
type HomeBlockType string

const (
	BlockStoriesRow      HomeBlockType = "stories_row"
	BlockBannerCarousel  HomeBlockType = "banner_carousel"
	BlockCategoryStrip   HomeBlockType = "category_strip"
	BlockServiceCarousel HomeBlockType = "service_carousel"
	BlockServiceList     HomeBlockType = "service_list"
)

// HomeBlockSourceMode определяет, как блок выбирает контент.
type HomeBlockSourceMode string

const (
	SourceManual      HomeBlockSourceMode = "manual"
	SourceQuery       HomeBlockSourceMode = "query"
	SourcePinnedQuery HomeBlockSourceMode = "pinned_query"
)

// DefaultBlockLimit — значение limit, которое админка ставит по умолчанию.
const DefaultBlockLimit = 10

// HomePageConfig — именованная конфигурация главной страницы.
// Locale, CityID и RegionID пустые/nil означают «подходит всем».
type HomePageConfig struct {
	ID       int64
	Slug     string
	Title    string
	CityID   *int64
	RegionID *int64
	Locale   string
	IsActive bool
	Priority int
}

// HomeBlock — один настроенный блок конфигурации.
type HomeBlock struct {
	ID         int64
	ConfigID   int64
	Type       HomeBlockType
	Title      LocalizedText
	Position   int
	IsActive   bool
	SourceMode HomeBlockSourceMode
	Params     BlockParams
	Style      BlockStyle
	Limit      int
}

// TargetType — тип целевой сущности ручного элемента блока.
type TargetType string

const (
	TargetService  TargetType = "service"
	TargetBanner   TargetType = "banner"
	TargetCategory TargetType = "category"
)

// HomeBlockItem — ручная ссылка блока на сервис, баннер или категорию.
type HomeBlockItem struct {
	ID         int64
	BlockID    int64
	TargetType TargetType
	TargetID   int64
	Position   int
}
