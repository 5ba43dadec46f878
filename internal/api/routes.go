package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Inquiry API routes.
const (
	RouteLogin         = "/api/auth/login"
	RouteInquiries     = "/api/inquiries"
	RouteInquiryByID   = "/api/inquiries/:id"
	RouteInquiryNotes  = "/api/inquiries/:id/notes"
	corsMaxAge         = 12 * time.Hour
	corsOriginWildcard = "*"
)

var (
	// DefaultTrustedProxies lets a web tier in the same host report the visitor address.
	DefaultTrustedProxies = []string{"127.0.0.1", "::1"}

	corsAllowedMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsAllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
)

// Handlers bundles every inquiry API handler.
type Handlers struct {
	Issuer    *TokenIssuer
	Auth      *AuthHandlers
	Inquiries *InquiryHandlers
	Public    *PublicHandlers
	// AllowedOrigins limits cross-origin callers; empty allows any origin without credentials.
	AllowedOrigins []string
}

// RegisterRoutes mounts the inquiry API on router.
func RegisterRoutes(router gin.IRouter, handlers Handlers) {
	allowedOrigins := handlers.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{corsOriginWildcard}
	}
	apiCORS := cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     corsAllowedMethods,
		AllowHeaders:     corsAllowedHeaders,
		AllowCredentials: false,
		MaxAge:           corsMaxAge,
	})

	preflightGroup := router.Group("/")
	preflightGroup.Use(apiCORS)
	for _, route := range []string{RouteLogin, RouteInquiries, RouteInquiryByID, RouteInquiryNotes} {
		preflightGroup.OPTIONS(route, respondNoContent)
	}

	publicGroup := router.Group("/")
	publicGroup.Use(apiCORS)
	publicGroup.POST(RouteLogin, handlers.Auth.Login)
	publicGroup.POST(RouteInquiries, handlers.Public.CreateInquiry)

	operatorGroup := router.Group("/")
	operatorGroup.Use(apiCORS, RequireBearerToken(handlers.Issuer))
	operatorGroup.GET(RouteInquiries, handlers.Inquiries.ListInquiries)
	operatorGroup.GET(RouteInquiryByID, handlers.Inquiries.GetInquiry)
	operatorGroup.PATCH(RouteInquiryByID, handlers.Inquiries.UpdateInquiryStatus)
	operatorGroup.DELETE(RouteInquiryByID, handlers.Inquiries.DeleteInquiry)
	operatorGroup.POST(RouteInquiryNotes, handlers.Inquiries.AddInquiryNote)
}

// TrustForwardedFor limits which peers may set X-Forwarded-For, so the public
// rate limit keys on the real caller. Empty proxies fall back to loopback.
func TrustForwardedFor(engine *gin.Engine, proxies []string) error {
	if len(proxies) == 0 {
		proxies = DefaultTrustedProxies
	}
	return engine.SetTrustedProxies(proxies)
}

func respondNoContent(context *gin.Context) {
	context.Status(http.StatusNoContent)
}
