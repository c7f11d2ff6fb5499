package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/domain"
	"github.com/rishithkoduri/web-translator/domain/entities"
	"github.com/rishithkoduri/web-translator/internal/auth"
	"github.com/rishithkoduri/web-translator/internal/websocket"
)

// Translations serves translation requests and their history
type Translations interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
	RecentTranslations(ctx context.Context, limit int) ([]*entities.TranslationRecord, error)
}

// Tokens issues and validates client tokens
type Tokens interface {
	GenerateClientToken(clientID string) (string, time.Time, error)
	ValidateToken(tokenString string) (*auth.JWTClaims, error)
}

// Options tunes route behaviour
type Options struct {
	// TranslateRateLimit is the number of translate requests allowed per IP
	// per minute. Zero disables the limit.
	TranslateRateLimit int
}

// InitRoutes initializes all API routes
func InitRoutes(
	e *echo.Echo,
	hub *websocket.Hub,
	translations Translations,
	tokens Tokens,
	opts Options,
	logger *zap.Logger,
) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "web-translator",
		})
	})

	// Translation service
	var translateMiddleware []echo.MiddlewareFunc
	if opts.TranslateRateLimit > 0 {
		translateMiddleware = append(translateMiddleware, rateLimit(opts.TranslateRateLimit, logger))
	}
	e.POST("/api/translate", func(c echo.Context) error {
		return translate(c, translations, logger)
	}, translateMiddleware...)

	e.GET("/api/languages", listLanguages)

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/session/token", func(c echo.Context) error {
		return issueToken(c, tokens, logger)
	})

	v1.GET("/translations", func(c echo.Context) error {
		return listTranslations(c, translations, logger)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(hub, tokens, c, logger)
	})
}

// rateLimit limits requests per client IP over a one minute window
func rateLimit(limit int, logger *zap.Logger) echo.MiddlewareFunc {
	return echo.WrapMiddleware(httprate.Limit(
		limit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("Translate rate limit exceeded", zap.String("remote", r.RemoteAddr))
			w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too many requests"}`))
		}),
	))
}

func translate(c echo.Context, translations Translations, logger *zap.Logger) error {
	var req TranslateRequest
	if err := c.Bind(&req); err != nil {
		logger.Warn("Failed to bind translate request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No text provided"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No text provided"})
	}

	translated, err := translations.Translate(c.Request().Context(), req.Text, req.TargetLang)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyText) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No text provided"})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, TranslateResponse{TranslatedText: translated})
}

func listLanguages(c echo.Context) error {
	return c.JSON(http.StatusOK, LanguagesResponse{
		Default: entities.DefaultLanguage,
		Groups:  entities.LanguageGroups(),
	})
}

func issueToken(c echo.Context, tokens Tokens, logger *zap.Logger) error {
	var req TokenRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			logger.Warn("Failed to bind token request", zap.Error(err))
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid request format",
			})
		}
	}

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		clientID = uuid.New().String()
	}

	token, expiresAt, err := tokens.GenerateClientToken(clientID)
	if err != nil {
		logger.Error("Failed to generate client token",
			zap.String("client_id", clientID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	logger.Info("Session token issued", zap.String("client_id", clientID))

	return c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		ClientID:  clientID,
	})
}

func listTranslations(c echo.Context, translations Translations, logger *zap.Logger) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_limit",
				Message: "limit must be a non-negative integer",
			})
		}
		limit = n
	}

	records, err := translations.RecentTranslations(c.Request().Context(), limit)
	if err != nil {
		logger.Error("Failed to list translations", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load translation history",
		})
	}

	return c.JSON(http.StatusOK, TranslationsResponse{
		Translations: records,
		Count:        len(records),
	})
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(hub *websocket.Hub, tokens Tokens, c echo.Context, logger *zap.Logger) error {
	// Browsers cannot set headers on websocket requests, so the query
	// parameter is accepted as well
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token == "" {
		token = c.QueryParam("token")
	}

	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header or token query parameter",
		})
	}

	claims, err := tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRole) {
			logger.Warn("WebSocket connection rejected: invalid role", zap.Error(err))
			return c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "invalid_role",
				Message: "Only client tokens are allowed for WebSocket connections",
			})
		}
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	logger.Info("WebSocket connection authenticated",
		zap.String("client_id", claims.ClientID),
		zap.String("role", claims.Role))

	return websocket.HandleWebSocketWithAuth(hub, c, claims.ClientID)
}
