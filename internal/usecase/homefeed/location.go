package homefeed

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"kejebe-backend/internal/domain"
)

// resolveCity определяет город запроса: явный city_id, затем привязка
// устройства, затем профиль пользователя. Явный, но некорректный или
// несуществующий идентификатор гасит город целиком, без отката к
// привязкам.
func (s *Service) resolveCity(ctx context.Context, req Request) (*domain.City, error) {
	if raw := strings.TrimSpace(req.CityIDParam); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, nil
		}
		return s.lookupCity(ctx, id)
	}
	if req.Device != nil && req.Device.CityID != nil {
		if req.Device.City != nil {
			city := *req.Device.City
			return &city, nil
		}
		return s.lookupCity(ctx, *req.Device.CityID)
	}
	if req.User != nil && req.User.CityID != nil {
		if req.User.City != nil {
			city := *req.User.City
			return &city, nil
		}
		return s.lookupCity(ctx, *req.User.CityID)
	}
	return nil, nil
}

// resolveRegion определяет регион запроса: явный region_id, регион
// устройства, регион города устройства, регион города пользователя.
// Итоговый откат «регион города запроса» применяет Build, а не резолвер.
func (s *Service) resolveRegion(ctx context.Context, req Request) (*domain.Region, error) {
	if raw := strings.TrimSpace(req.RegionIDParam); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, nil
		}
		return s.lookupRegion(ctx, id)
	}
	if req.Device != nil {
		if req.Device.RegionID != nil {
			return s.lookupRegion(ctx, *req.Device.RegionID)
		}
		if req.Device.CityID != nil {
			return s.regionOfCityID(ctx, req.Device.City, *req.Device.CityID)
		}
	}
	if req.User != nil && req.User.CityID != nil {
		return s.regionOfCityID(ctx, req.User.City, *req.User.CityID)
	}
	return nil, nil
}

func (s *Service) lookupCity(ctx context.Context, id int64) (*domain.City, error) {
	city, err := s.locations.GetCity(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("город %d: %w", id, err)
	}
	return &city, nil
}

func (s *Service) lookupRegion(ctx context.Context, id int64) (*domain.Region, error) {
	region, err := s.locations.GetRegion(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("регион %d: %w", id, err)
	}
	return &region, nil
}

func (s *Service) regionOfCityID(ctx context.Context, city *domain.City, cityID int64) (*domain.Region, error) {
	if city != nil {
		return s.regionOfCity(city), nil
	}
	resolved, err := s.lookupCity(ctx, cityID)
	if err != nil || resolved == nil {
		return nil, err
	}
	return s.regionOfCity(resolved), nil
}
