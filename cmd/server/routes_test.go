package main

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smarthomesolar/solarsite/internal/api"
	"github.com/smarthomesolar/solarsite/internal/content"
	"github.com/smarthomesolar/solarsite/internal/httpapi"
	"github.com/smarthomesolar/solarsite/internal/leads"
	"github.com/smarthomesolar/solarsite/internal/storage"
	"github.com/smarthomesolar/solarsite/internal/testutil"
)

const (
	testOperatorUsername = "admin"
	testOperatorPassword = "correct-horse-battery"
	testSessionSecret    = "0123456789abcdef0123456789abcdef"
	testJWTSecret        = "jwt-secret-for-tests"
)

type siteHarness struct {
	webServer *httptest.Server
	client    *http.Client
}

func newSiteHarness(testingT *testing.T, csrfMiddleware gin.HandlerFunc) siteHarness {
	testingT.Helper()
	gin.SetMode(gin.TestMode)

	database := testutil.NewOperatorDatabase(testingT, testOperatorUsername, testOperatorPassword)

	issuer, issuerErr := api.NewTokenIssuer(testJWTSecret, time.Hour)
	require.NoError(testingT, issuerErr)
	inquiryStore := storage.NewInquiryStore(database)
	apiRouter := gin.New()
	api.RegisterRoutes(apiRouter, api.Handlers{
		Issuer:    issuer,
		Auth:      api.NewAuthHandlers(database, issuer, zap.NewNop()),
		Inquiries: api.NewInquiryHandlers(inquiryStore, zap.NewNop()),
		Public:    api.NewPublicHandlers(inquiryStore, zap.NewNop(), nil),
	})
	apiServer := httptest.NewServer(apiRouter)
	testingT.Cleanup(apiServer.Close)

	leadsClient, clientErr := leads.NewClient(apiServer.URL, apiServer.Client())
	require.NoError(testingT, clientErr)

	authManager, authErr := httpapi.NewAuthManager(zap.NewNop(), httpapi.SessionConfig{Secret: testSessionSecret})
	require.NoError(testingT, authErr)

	site, siteErr := content.Load("")
	require.NoError(testingT, siteErr)
	contentStore := content.StaticStore(site)
	webRouter := gin.New()
	registerFrontendRoutes(webRouter, frontendRoutes{
		csrfMiddleware:  csrfMiddleware,
		authManager:     authManager,
		landingHandlers: httpapi.NewLandingPageHandlers(zap.NewNop(), contentStore, leadsClient),
		privacyHandlers: httpapi.NewPrivacyPageHandlers(zap.NewNop(), contentStore),
		sitemapHandlers: httpapi.NewSitemapHandlers("https://solar.example.com"),
		adminHandlers:   httpapi.NewAdminHandlers(zap.NewNop(), authManager, leadsClient, time.UTC),
	})
	webServer := httptest.NewServer(webRouter)
	testingT.Cleanup(webServer.Close)

	jar, jarErr := cookiejar.New(nil)
	require.NoError(testingT, jarErr)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return siteHarness{webServer: webServer, client: client}
}

func (harness siteHarness) get(testingT *testing.T, path string) (*http.Response, string) {
	testingT.Helper()
	response, requestErr := harness.client.Get(harness.webServer.URL + path)
	require.NoError(testingT, requestErr)
	defer response.Body.Close()
	body, readErr := io.ReadAll(response.Body)
	require.NoError(testingT, readErr)
	return response, string(body)
}

func (harness siteHarness) postForm(testingT *testing.T, path string, values url.Values) (*http.Response, string) {
	testingT.Helper()
	response, requestErr := harness.client.PostForm(harness.webServer.URL+path, values)
	require.NoError(testingT, requestErr)
	defer response.Body.Close()
	body, readErr := io.ReadAll(response.Body)
	require.NoError(testingT, readErr)
	return response, string(body)
}

func TestFrontendRoutesRunTheLeadLifecycle(testingT *testing.T) {
	harness := newSiteHarness(testingT, nil)

	unauthenticated, _ := harness.get(testingT, httpapi.AdminDashboardPath)
	require.Equal(testingT, http.StatusFound, unauthenticated.StatusCode)
	require.Equal(testingT, httpapi.AdminLoginPath, unauthenticated.Header.Get("Location"))

	contactResponse, _ := harness.postForm(testingT, httpapi.ContactFormPath, url.Values{
		"firstName":   {"Jane"},
		"lastName":    {"Solar"},
		"email":       {"Jane@Example.com"},
		"phone":       {"+1 555 0100"},
		"service":     {"Residential Solar"},
		"monthlyBill": {"$150-250"},
		"message":     {"Please call after 5pm"},
	})
	require.Equal(testingT, http.StatusSeeOther, contactResponse.StatusCode)
	require.Equal(testingT, "/?submitted=1#contact", contactResponse.Header.Get("Location"))

	failedLogin, failedBody := harness.postForm(testingT, httpapi.AdminLoginPath, url.Values{
		"username": {testOperatorUsername},
		"password": {"wrong-password"},
	})
	require.Equal(testingT, http.StatusUnauthorized, failedLogin.StatusCode)
	require.Contains(testingT, failedBody, "Invalid username or password")

	loginResponse, _ := harness.postForm(testingT, httpapi.AdminLoginPath, url.Values{
		"username": {testOperatorUsername},
		"password": {testOperatorPassword},
	})
	require.Equal(testingT, http.StatusSeeOther, loginResponse.StatusCode)
	require.Equal(testingT, httpapi.AdminDashboardPath, loginResponse.Header.Get("Location"))

	dashboard, dashboardBody := harness.get(testingT, httpapi.AdminDashboardPath)
	require.Equal(testingT, http.StatusOK, dashboard.StatusCode)
	require.Contains(testingT, dashboardBody, "jane@example.com")
	require.Contains(testingT, dashboardBody, `id="stat-total"`)

	filtered, filteredBody := harness.get(testingT, httpapi.AdminDashboardPath+"?status=Closed")
	require.Equal(testingT, http.StatusOK, filtered.StatusCode)
	require.Contains(testingT, filteredBody, "No inquiries found matching your filters.")

	export, exportBody := harness.get(testingT, httpapi.AdminExportPath)
	require.Equal(testingT, http.StatusOK, export.StatusCode)
	require.Equal(testingT, leads.ExportContentType, export.Header.Get("Content-Type"))
	require.Contains(testingT, export.Header.Get("Content-Disposition"), "solar_leads.csv")
	require.True(testingT, strings.HasPrefix(exportBody, "Date,First Name,Last Name,Email,Phone,Service,Status,Address,Message"))
	require.Contains(testingT, exportBody, "jane@example.com")

	logout, _ := harness.postForm(testingT, httpapi.AdminLogoutPath, url.Values{})
	require.Equal(testingT, http.StatusSeeOther, logout.StatusCode)

	afterLogout, _ := harness.get(testingT, httpapi.AdminDashboardPath)
	require.Equal(testingT, http.StatusFound, afterLogout.StatusCode)
}

func TestFrontendRoutesServePublicPages(testingT *testing.T) {
	harness := newSiteHarness(testingT, nil)

	landing, landingBody := harness.get(testingT, httpapi.LandingPagePath)
	require.Equal(testingT, http.StatusOK, landing.StatusCode)
	require.Contains(testingT, landingBody, `id="contact-form"`)
	require.Contains(testingT, landingBody, "data-reveal")

	privacy, privacyBody := harness.get(testingT, httpapi.PrivacyPagePath)
	require.Equal(testingT, http.StatusOK, privacy.StatusCode)
	require.Contains(testingT, privacyBody, "Privacy Policy")

	sitemap, sitemapBody := harness.get(testingT, httpapi.SitemapRoutePath)
	require.Equal(testingT, http.StatusOK, sitemap.StatusCode)
	require.Contains(testingT, sitemapBody, "<loc>https://solar.example.com/privacy</loc>")

	adminRoot, _ := harness.get(testingT, httpapi.AdminRootPath)
	require.Equal(testingT, http.StatusFound, adminRoot.StatusCode)
	require.Equal(testingT, httpapi.AdminLoginPath, adminRoot.Header.Get("Location"))
}

func TestFrontendRoutesRejectFormsWithoutCSRFToken(testingT *testing.T) {
	csrfMiddleware, csrfErr := httpapi.CSRFMiddleware(httpapi.CSRFConfig{
		AuthKey: []byte("0123456789abcdef0123456789abcdef"),
	}, zap.NewNop())
	require.NoError(testingT, csrfErr)
	harness := newSiteHarness(testingT, csrfMiddleware)

	response, _ := harness.postForm(testingT, httpapi.AdminLoginPath, url.Values{
		"username": {testOperatorUsername},
		"password": {testOperatorPassword},
	})
	require.Equal(testingT, http.StatusForbidden, response.StatusCode)

	loginPage, loginBody := harness.get(testingT, httpapi.AdminLoginPath)
	require.Equal(testingT, http.StatusOK, loginPage.StatusCode)
	require.Contains(testingT, loginBody, `name="csrf_token"`)
}
