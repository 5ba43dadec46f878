package httpapi

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smarthomesolar/solarsite/internal/content"
)

const (
	PrivacyPagePath        = "/privacy"
	privacyTemplateName    = "privacy"
	privacyRenderFailure   = "privacy_render_failed"
	privacyEffectiveDate   = "2025-01-15"
	privacyPageTitleSuffix = " | Privacy Policy"
)

type PrivacyPageHandlers struct {
	logger          *zap.Logger
	template        *template.Template
	contentProvider SiteContentProvider
}

type privacyTemplateData struct {
	PageTitle     string
	NoIndex       bool
	Site          content.Site
	EffectiveDate string
	FooterHTML    template.HTML
}

func NewPrivacyPageHandlers(logger *zap.Logger, contentProvider SiteContentProvider) *PrivacyPageHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrivacyPageHandlers{
		logger:          logger,
		template:        mustParsePage(privacyTemplateName),
		contentProvider: contentProvider,
	}
}

func (handlers *PrivacyPageHandlers) RenderPrivacyPage(context *gin.Context) {
	site := handlers.contentProvider.Site()
	footerHTML, footerErr := RenderSiteFooter(site)
	if footerErr != nil {
		handlers.logger.Error(logEventRenderFooter, zap.Error(footerErr))
		footerHTML = template.HTML("")
	}

	payload := privacyTemplateData{
		PageTitle:     site.Brand.Name + privacyPageTitleSuffix,
		Site:          site,
		EffectiveDate: privacyEffectiveDate,
		FooterHTML:    footerHTML,
	}

	var buffer bytes.Buffer
	if err := handlers.template.Execute(&buffer, payload); err != nil {
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": privacyRenderFailure})
		return
	}
	context.Data(http.StatusOK, htmlContentType, buffer.Bytes())
}
