package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"kejebe-backend/internal/domain"
)

type contextKey string

const (
	userContextKey   contextKey = "identity.user"
	deviceContextKey contextKey = "identity.device"
)

// Заголовки идентификации мобильного клиента.
const (
	HeaderDeviceID = "X-Device-ID"
	HeaderPlatform = "X-Platform"
)

// IdentityMiddleware привязывает к запросу опционального пользователя по
// bearer-токену и устройство по X-Device-ID. Устройство без заголовка
// регистрируется с новым идентификатором, который возвращается клиенту
// тем же заголовком. Выдача токенов — вне этого сервиса.
func IdentityMiddleware(users domain.UserRepo, devices domain.DeviceRepo, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := bearerToken(r); token != "" {
				user, err := users.GetByToken(ctx, token)
				switch {
				case err == nil:
					ctx = context.WithValue(ctx, userContextKey, &user)
				case errors.Is(err, domain.ErrNotFound):
					// Протухший токен равносилен анонимному запросу.
				default:
					logger.Error().Err(err).Msg("identity: не удалось разрешить пользователя")
					WriteError(w, http.StatusInternalServerError, "internal error")
					return
				}
			}

			deviceID := strings.TrimSpace(r.Header.Get(HeaderDeviceID))
			if deviceID == "" {
				deviceID = uuid.NewString()
			}
			platform := strings.TrimSpace(r.Header.Get(HeaderPlatform))
			if platform == "" {
				platform = "unknown"
			}
			device, err := devices.UpsertDevice(ctx, deviceID, platform)
			if err != nil {
				logger.Error().Err(err).Str("device_id", deviceID).Msg("identity: не удалось разрешить устройство")
				WriteError(w, http.StatusInternalServerError, "internal error")
				return
			}
			w.Header().Set(HeaderDeviceID, device.DeviceID)
			ctx = context.WithValue(ctx, deviceContextKey, &device)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom возвращает пользователя запроса, если он аутентифицирован.
func UserFrom(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// DeviceFrom возвращает устройство запроса, если оно разрешено.
func DeviceFrom(ctx context.Context) *domain.Device {
	device, _ := ctx.Value(deviceContextKey).(*domain.Device)
	return device
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
