package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// BlockParams — типизированные параметры выборки блока. Некорректные
// значения отбрасываются по-полево при загрузке, а не валят запрос.
type BlockParams struct {
	CategoryIDs []int64
	TagIDs      []int64
	CityIDs     []int64
	RegionIDs   []int64
	Ordering    string
}

// IsZero сообщает, что параметры выборки не заданы.
func (p BlockParams) IsZero() bool {
	return len(p.CategoryIDs) == 0 && len(p.TagIDs) == 0 && len(p.CityIDs) == 0 &&
		len(p.RegionIDs) == 0 && p.Ordering == ""
}

// BlockStyle — типизированная часть style-настроек блока. Исходный JSON
// отдаётся клиенту как есть через Raw.
type BlockStyle struct {
	Raw            map[string]any
	LocationFilter *bool
	// HasViewAll отмечает, что ключ view_all присутствовал в style,
	// в том числе с явным null (это отключает авто-генерацию view_all).
	HasViewAll bool
	ViewAll    *ViewAll
}

// ParseBlockParams разбирает JSON query_params блока.
func ParseBlockParams(raw []byte) BlockParams {
	var params BlockParams
	if len(raw) == 0 {
		return params
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return params
	}
	params.CategoryIDs = ParamIDList(m, "category_ids", "categories")
	params.TagIDs = ParamIDList(m, "tag_ids", "tags")
	params.CityIDs = ParamIDList(m, "city_ids", "cities")
	params.RegionIDs = ParamIDList(m, "region_ids", "regions")
	if ordering, ok := m["ordering"].(string); ok {
		params.Ordering = strings.TrimSpace(ordering)
	}
	return params
}

// ParseBlockStyle разбирает JSON style блока.
func ParseBlockStyle(raw []byte) BlockStyle {
	style := BlockStyle{Raw: map[string]any{}}
	if len(raw) == 0 {
		return style
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return style
	}
	style.Raw = m
	if v, ok := m["location_filter"]; ok {
		flag := ParamBool(v)
		style.LocationFilter = &flag
	}
	if v, ok := m["view_all"]; ok {
		style.HasViewAll = true
		style.ViewAll = parseViewAll(v)
	}
	return style
}

func parseViewAll(v any) *ViewAll {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	va := ViewAll{}
	if t, ok := m["type"].(string); ok {
		va.Type = t
	}
	if s, ok := m["screen"].(string); ok {
		va.Screen = s
	}
	if p, ok := m["params"].(map[string]any); ok {
		va.Params = p
	}
	if l, ok := m["label"].(map[string]any); ok {
		va.Label = map[string]string{}
		for lang, text := range l {
			if s, ok := text.(string); ok {
				va.Label[lang] = s
			}
		}
	}
	return &va
}

// ParamIDList вытаскивает список числовых идентификаторов по первому из
// подходящих ключей. Строка с запятыми, число и массив равноправны,
// нечисловые элементы молча пропускаются.
func ParamIDList(params map[string]any, keys ...string) []int64 {
	var raw any
	found := false
	for _, key := range keys {
		if v, ok := params[key]; ok {
			raw = v
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	var parts []any
	switch v := raw.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
	case float64, int, int64:
		parts = []any{v}
	case []any:
		parts = v
	default:
		return nil
	}

	var ids []int64
	for _, part := range parts {
		switch v := part.(type) {
		case string:
			if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				ids = append(ids, id)
			}
		case float64:
			ids = append(ids, int64(v))
		case int:
			ids = append(ids, int64(v))
		case int64:
			ids = append(ids, v)
		}
	}
	return ids
}

// ParamBool трактует значение как флаг в духе "1/true/yes/y/on".
func ParamBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return boolString(val)
	case float64:
		return val != 0
	default:
		return false
	}
}

func boolString(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// ParamBoolString — строковый вариант ParamBool для query-параметров.
func ParamBoolString(raw string) bool {
	return boolString(raw)
}
