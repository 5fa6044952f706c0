package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/planmarket/auth-service/internal/models"
	"github.com/planmarket/auth-service/internal/service"
)

const refreshCookieName = "refresh_token"

type Controller struct {
	zapLogger     *zap.SugaredLogger
	authService   *service.AuthService
	secureCookies bool
}

func NewController(logger *zap.SugaredLogger, authService *service.AuthService, secureCookies bool) *Controller {
	return &Controller{
		zapLogger:     logger,
		authService:   authService,
		secureCookies: secureCookies,
	}
}

// RouteMiddlewares carries the route-scoped stages the api package builds:
// the stricter auth-group rate limit and the bearer check for protected
// routes.
type RouteMiddlewares struct {
	AuthRateLimit echo.MiddlewareFunc
	Bearer        echo.MiddlewareFunc
}

func RegisterRoutes(g *echo.Group, c *Controller, mw RouteMiddlewares) {
	g.GET("/ping", c.CheckServer)
	g.GET("/me", c.Me, mw.Bearer)

	auth := g.Group("/auth", mw.AuthRateLimit)
	auth.POST("/register", c.Register)
	auth.POST("/login", c.Login)
	auth.POST("/refresh", c.Refresh)
	auth.POST("/logout", c.Logout, mw.Bearer)
	auth.POST("/logout-all", c.LogoutAll, mw.Bearer)
	auth.POST("/password", c.ChangePassword, mw.Bearer)
	auth.GET("/csrf", c.CSRFToken)
}

// (GET /api/ping).
func (c *Controller) CheckServer(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, "ok")
}

// (POST /api/auth/register).
func (c *Controller) Register(ctx echo.Context) error {
	var req models.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := c.authService.Register(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, models.RegisterResponse{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
}

// (POST /api/auth/login).
func (c *Controller) Login(ctx echo.Context) error {
	var req models.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	client := models.ClientInfo{
		UserAgent: ctx.Request().UserAgent(),
		IPAddress: ctx.RealIP(),
	}

	result, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password, client)
	if err != nil {
		return err
	}

	c.setRefreshCookie(ctx, result.RefreshToken, result.ExpiresAt)

	return ctx.JSON(http.StatusOK, models.LoginResponse{
		AccessToken: result.AccessToken,
		CSRFToken:   result.CSRFToken,
	})
}

// (POST /api/auth/refresh).
func (c *Controller) Refresh(ctx echo.Context) error {
	refreshToken, err := c.refreshTokenFromCookie(ctx)
	if err != nil {
		return err
	}

	accessToken, err := c.authService.Refresh(ctx.Request().Context(), refreshToken)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, models.RefreshResponse{AccessToken: accessToken})
}

// (POST /api/auth/logout).
func (c *Controller) Logout(ctx echo.Context) error {
	accessToken, _ := ctx.Get(models.MwTokenKey).(string)

	refreshToken := ""
	if cookie, err := ctx.Cookie(refreshCookieName); err == nil {
		refreshToken = cookie.Value
	}

	if err := c.authService.Logout(ctx.Request().Context(), refreshToken, accessToken); err != nil {
		return err
	}

	c.clearRefreshCookie(ctx)
	return ctx.NoContent(http.StatusNoContent)
}

// (POST /api/auth/logout-all).
func (c *Controller) LogoutAll(ctx echo.Context) error {
	refreshToken, err := c.refreshTokenFromCookie(ctx)
	if err != nil {
		return err
	}

	count, err := c.authService.LogoutAll(ctx.Request().Context(), refreshToken)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, models.LogoutAllResponse{Invalidated: count})
}

// (POST /api/auth/password).
func (c *Controller) ChangePassword(ctx echo.Context) error {
	var req models.ChangePasswordRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	userID, _ := ctx.Get(models.MwUserIDKey).(string)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	refreshToken := ""
	if cookie, err := ctx.Cookie(refreshCookieName); err == nil {
		refreshToken = cookie.Value
	}

	err := c.authService.ChangePassword(ctx.Request().Context(), userID, req.CurrentPassword, req.NewPassword, refreshToken)
	if err != nil {
		return err
	}

	return ctx.NoContent(http.StatusNoContent)
}

// (GET /api/auth/csrf).
func (c *Controller) CSRFToken(ctx echo.Context) error {
	refreshToken, err := c.refreshTokenFromCookie(ctx)
	if err != nil {
		return err
	}

	token, err := c.authService.CSRFToken(ctx.Request().Context(), refreshToken)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, models.CSRFTokenResponse{CSRFToken: token})
}

// (GET /api/me).
func (c *Controller) Me(ctx echo.Context) error {
	claims, ok := ctx.Get(models.MwClaimsKey).(*service.Claims)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"user_id": claims.UserID,
		"email":   claims.Email,
		"role":    claims.Role,
	})
}

func (c *Controller) refreshTokenFromCookie(ctx echo.Context) (string, error) {
	cookie, err := ctx.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return cookie.Value, nil
}

func (c *Controller) setRefreshCookie(ctx echo.Context, token string, expires time.Time) {
	ctx.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c *Controller) clearRefreshCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
