package homefeed

import (
	"context"
	"testing"

	"kejebe-backend/internal/domain"
)

func TestResolveCityExplicitParam(t *testing.T) {
	repos := &stubRepos{cities: map[int64]domain.City{10: testCity(10, 1)}}
	service := newTestService(repos)

	city, err := service.resolveCity(context.Background(), Request{CityIDParam: "10"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if city == nil || city.ID != 10 {
		t.Fatalf("ожидали город 10, получили %#v", city)
	}
}

func TestResolveCityInvalidParamWithoutFallback(t *testing.T) {
	repos := &stubRepos{cities: map[int64]domain.City{10: testCity(10, 1)}}
	service := newTestService(repos)
	device := &domain.Device{CityID: ptrInt64(10)}

	for _, param := range []string{"abc", "999"} {
		city, err := service.resolveCity(context.Background(), Request{CityIDParam: param, Device: device})
		if err != nil {
			t.Fatalf("не ожидали ошибку для %q: %v", param, err)
		}
		if city != nil {
			t.Fatalf("явный некорректный city_id %q не должен откатываться к устройству", param)
		}
	}
}

func TestResolveCityFallbackChain(t *testing.T) {
	repos := &stubRepos{cities: map[int64]domain.City{10: testCity(10, 1), 20: testCity(20, 2)}}
	service := newTestService(repos)

	city, err := service.resolveCity(context.Background(), Request{
		Device: &domain.Device{CityID: ptrInt64(10)},
		User:   &domain.User{ID: 1, CityID: ptrInt64(20)},
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if city == nil || city.ID != 10 {
		t.Fatalf("устройство должно побеждать профиль, получили %#v", city)
	}

	city, err = service.resolveCity(context.Background(), Request{User: &domain.User{ID: 1, CityID: ptrInt64(20)}})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if city == nil || city.ID != 20 {
		t.Fatalf("без устройства город берётся из профиля, получили %#v", city)
	}
}

func TestResolveRegionFromDeviceCity(t *testing.T) {
	repos := &stubRepos{
		cities:  map[int64]domain.City{10: testCity(10, 3)},
		regions: map[int64]domain.Region{3: {ID: 3}},
	}
	service := newTestService(repos)

	region, err := service.resolveRegion(context.Background(), Request{Device: &domain.Device{CityID: ptrInt64(10)}})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if region == nil || region.ID != 3 {
		t.Fatalf("ожидали регион города устройства, получили %#v", region)
	}
}

func TestResolveRegionExplicitParamBeatsDevice(t *testing.T) {
	repos := &stubRepos{
		cities:  map[int64]domain.City{10: testCity(10, 3)},
		regions: map[int64]domain.Region{2: {ID: 2}},
	}
	service := newTestService(repos)

	region, err := service.resolveRegion(context.Background(), Request{
		RegionIDParam: "2",
		Device:        &domain.Device{RegionID: ptrInt64(3), CityID: ptrInt64(10)},
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if region == nil || region.ID != 2 {
		t.Fatalf("явный region_id должен побеждать устройство, получили %#v", region)
	}
}
