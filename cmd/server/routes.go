package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smarthomesolar/solarsite/internal/httpapi"
)

type frontendRoutes struct {
	csrfMiddleware  gin.HandlerFunc
	authManager     *httpapi.AuthManager
	landingHandlers *httpapi.LandingPageHandlers
	privacyHandlers *httpapi.PrivacyPageHandlers
	sitemapHandlers *httpapi.SitemapHandlers
	adminHandlers   *httpapi.AdminHandlers
}

func registerFrontendRoutes(router *gin.Engine, routes frontendRoutes) {
	router.GET(httpapi.SitemapRoutePath, routes.sitemapHandlers.RenderSitemap)

	webGroup := router.Group("/")
	if routes.csrfMiddleware != nil {
		webGroup.Use(routes.csrfMiddleware)
	}
	webGroup.GET(httpapi.LandingPagePath, routes.landingHandlers.RenderLandingPage)
	webGroup.POST(httpapi.ContactFormPath, routes.landingHandlers.SubmitContact)
	webGroup.GET(httpapi.PrivacyPagePath, routes.privacyHandlers.RenderPrivacyPage)

	webGroup.GET(httpapi.AdminRootPath, func(context *gin.Context) {
		context.Redirect(http.StatusFound, httpapi.AdminLoginPath)
	})
	webGroup.GET(httpapi.AdminLoginPath, routes.adminHandlers.RenderLogin)
	webGroup.POST(httpapi.AdminLoginPath, routes.adminHandlers.Login)

	adminGroup := webGroup.Group("/")
	adminGroup.Use(routes.authManager.RequireAuthenticatedWeb())
	adminGroup.GET(httpapi.AdminDashboardPath, routes.adminHandlers.RenderDashboard)
	adminGroup.GET(httpapi.AdminExportPath, routes.adminHandlers.ExportCSV)
	adminGroup.POST(httpapi.AdminLogoutPath, routes.adminHandlers.Logout)
	adminGroup.POST(httpapi.AdminInquiryStatusPath, routes.adminHandlers.UpdateStatus)
	adminGroup.POST(httpapi.AdminInquiryNotesPath, routes.adminHandlers.AddNote)
	adminGroup.POST(httpapi.AdminInquiryDeletePath, routes.adminHandlers.DeleteInquiry)
}
