package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"socialpay/internal/auth"
	"socialpay/internal/models"
)

const credentialsKey = "credentials"

// APIAuth validates the Token header against the operator API key. An empty
// key closes the route.
func APIAuth(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get("Token")
			if token == "" {
				return c.JSON(http.StatusUnauthorized, models.APIResponse{Status: false, Msg: "Token is required"})
			}
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				return c.JSON(http.StatusUnauthorized, models.APIResponse{Status: false, Msg: "Invalid token"})
			}
			return next(c)
		}
	}
}

// SessionAuth reads the payer's bearer token and language so they can be
// handed to the payment backend. Requests without a token pass through as
// anonymous; expired or malformed tokens are rejected.
func SessionAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			creds, err := auth.Inspect(auth.BearerToken(req.Header.Get("Authorization")), time.Now())
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, auth.ErrTokenExpired) {
					msg = "Token expired"
				}
				return c.JSON(http.StatusUnauthorized, models.APIResponse{Status: false, Msg: msg})
			}
			creds.Locale = auth.Locale(req.Header.Get("Accept-Language"))
			c.Set(credentialsKey, creds)
			return next(c)
		}
	}
}

// Credentials returns what SessionAuth stored on the context.
func Credentials(c echo.Context) auth.Credentials {
	creds, _ := c.Get(credentialsKey).(auth.Credentials)
	if creds.Locale == "" {
		creds.Locale = "en"
	}
	return creds
}

// RequestLogger logs every API request once it has been served.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			log.Info("API request",
				zap.String("method", req.Method),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.String("ip", c.RealIP()),
				zap.Duration("latency", time.Since(start)),
			)
			return nil
		}
	}
}

// CORS configures CORS headers.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Access-Control-Allow-Origin", "*")
			c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Token, Authorization, Accept-Language, Idempotency-Key")
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
