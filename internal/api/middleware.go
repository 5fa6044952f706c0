package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/planmarket/auth-service/internal/csrf"
	"github.com/planmarket/auth-service/internal/models"
	"github.com/planmarket/auth-service/internal/ratelimit"
	"github.com/planmarket/auth-service/internal/sanitize"
	"github.com/planmarket/auth-service/internal/service"
	"github.com/planmarket/auth-service/internal/storage"
)

const (
	CSRFHeader        = "X-CSRF-Token"
	CSRFBodyField     = "_csrf"
	RefreshCookieName = "refresh_token"

	RateLimitLimitHeader     = "X-RateLimit-Limit"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
)

// SanitizeMiddleware escapes every string in the query parameters and in a
// JSON body before any handler runs. It never rejects a request: input it
// cannot parse is passed through untouched for the handler's own Bind to
// deal with.
func SanitizeMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if req.URL.RawQuery != "" {
				query := req.URL.Query()
				for key, values := range query {
					for i, v := range values {
						values[i] = sanitize.String(v)
					}
					query[key] = values
				}
				req.URL.RawQuery = query.Encode()
			}

			if req.Body != nil && strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
				raw, err := io.ReadAll(req.Body)
				req.Body.Close()
				if err != nil {
					return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
				}

				var decoded any
				if json.Unmarshal(raw, &decoded) == nil {
					if clean, err := json.Marshal(sanitize.Object(decoded)); err == nil {
						raw = clean
					}
				}
				req.Body = io.NopCloser(bytes.NewReader(raw))
				req.ContentLength = int64(len(raw))
			}

			return next(c)
		}
	}
}

// RateLimitMiddleware enforces a sliding window per client IP. The prefix
// keeps the auth-route counters separate from the general API counters even
// though both share one limiter instance.
func RateLimitMiddleware(limiter *ratelimit.Limiter, prefix string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := prefix + ":" + c.RealIP()

			header := c.Response().Header()
			header.Set(RateLimitLimitHeader, strconv.Itoa(limit))

			if limiter.IsLimited(key, limit, window) {
				header.Set(RateLimitRemainingHeader, "0")
				header.Set(echo.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
				return ratelimit.ErrRateLimited
			}

			header.Set(RateLimitRemainingHeader, strconv.Itoa(limiter.Remaining(key, limit, window)))
			return next(c)
		}
	}
}

//nolint:gochecknoglobals // fixed method set
var safeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// CSRFMiddleware validates the anti-forgery token on state-mutating requests
// once a session cookie is present. Safe methods bypass the check; so do
// requests without a live session, which the bearer check still guards.
func CSRFMiddleware(sessions storage.SessionRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if safeMethods[c.Request().Method] {
				return next(c)
			}

			cookie, err := c.Cookie(RefreshCookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			session, err := sessions.FindValidSession(c.Request().Context(), cookie.Value)
			if err != nil {
				return next(c)
			}

			submitted := c.Request().Header.Get(CSRFHeader)
			if submitted == "" {
				submitted = c.FormValue(CSRFBodyField)
			}

			if !csrf.ValidateToken(submitted, session.CSRFToken) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}

			return next(c)
		}
	}
}

// BearerAuthMiddleware verifies the access token on protected routes. All
// failure kinds collapse to one 401; the kind is only logged.
func BearerAuthMiddleware(tokens *service.TokenService, log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			claims, err := tokens.VerifyAccessToken(c.Request().Context(), token)
			if err != nil {
				log.Infow("token rejected", "error", err, "uri", c.Request().RequestURI)
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			c.Set(models.MwClaimsKey, claims)
			c.Set(models.MwUserIDKey, claims.UserID)
			c.Set(models.MwTokenKey, token)

			return next(c)
		}
	}
}

func GetLoggerMiddlewareConfig(a *API) echomiddleware.RequestLoggerConfig {
	return echomiddleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,

		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", c.Request().Method,
				"uri", v.URI,
				"status", v.Status,
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				a.log.Errorw("Request", fields...)
			} else {
				a.log.Infow("Request", fields...)
			}
			return nil
		},
	}
}
