package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

const (
	csrfCookieName      = "solarsite_csrf"
	csrfFieldName       = "csrf_token"
	csrfKeyLength       = 32
	csrfRejectedMessage = "Your form expired. Please reload the page and try again."
	logEventCSRFReject  = "csrf_rejected"
)

// ErrInvalidCSRFKey indicates a CSRF key of the wrong length.
var ErrInvalidCSRFKey = errors.New("httpapi: csrf key must be 32 bytes")

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(context *gin.Context) {
		start := time.Now()
		context.Next()
		logger.Info("http",
			zap.String("method", context.Request.Method),
			zap.String("path", context.Request.URL.Path),
			zap.Int("status", context.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", context.ClientIP()),
			zap.String("ua", context.Request.UserAgent()),
		)
	}
}

// SecurityHeaders sets the response headers shared by every HTML page.
func SecurityHeaders() gin.HandlerFunc {
	return func(context *gin.Context) {
		header := context.Writer.Header()
		header.Set("X-Frame-Options", "DENY")
		header.Set("X-Content-Type-Options", "nosniff")
		header.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		context.Next()
	}
}

// CSRFConfig configures form token protection.
type CSRFConfig struct {
	AuthKey        []byte
	Secure         bool
	TrustedOrigins []string
}

// CSRFMiddleware guards unsafe form submissions with gorilla/csrf. Pages read the token through csrfField.
func CSRFMiddleware(config CSRFConfig, logger *zap.Logger) (gin.HandlerFunc, error) {
	if len(config.AuthKey) != csrfKeyLength {
		return nil, ErrInvalidCSRFKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	protect := csrf.Protect(
		config.AuthKey,
		csrf.Secure(config.Secure),
		csrf.Path("/"),
		csrf.CookieName(csrfCookieName),
		csrf.FieldName(csrfFieldName),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(config.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			logger.Warn(logEventCSRFReject,
				zap.String("path", request.URL.Path),
				zap.Error(csrf.FailureReason(request)),
			)
			http.Error(writer, csrfRejectedMessage, http.StatusForbidden)
		})),
	)

	return func(context *gin.Context) {
		if !config.Secure {
			context.Request = csrf.PlaintextHTTPRequest(context.Request)
		}
		passed := false
		protect(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
			passed = true
			context.Request = request
			context.Next()
		})).ServeHTTP(context.Writer, context.Request)
		if !passed {
			context.Abort()
		}
	}, nil
}

// TrustedOriginHosts extracts host[:port] values from absolute URLs for the CSRF origin check.
func TrustedOriginHosts(urls ...string) []string {
	hosts := make([]string, 0, len(urls))
	for _, rawURL := range urls {
		trimmed := strings.TrimSpace(rawURL)
		if trimmed == "" {
			continue
		}
		if schemeIndex := strings.Index(trimmed, "://"); schemeIndex >= 0 {
			trimmed = trimmed[schemeIndex+3:]
		}
		if slashIndex := strings.Index(trimmed, "/"); slashIndex >= 0 {
			trimmed = trimmed[:slashIndex]
		}
		if trimmed != "" {
			hosts = append(hosts, trimmed)
		}
	}
	return hosts
}
