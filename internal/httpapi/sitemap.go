package httpapi

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	SitemapRoutePath     = "/sitemap.xml"
	sitemapContentType   = "application/xml; charset=utf-8"
	sitemapXMLNamespace  = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapRenderFailure = "sitemap_render_failed"
	sitemapDefaultBase   = "http://localhost:8080"
)

// sitemapPage is one public page advertised to crawlers.
type sitemapPage struct {
	path            string
	changeFrequency string
	priority        string
}

// Only marketing pages are listed; the admin panel stays out of the index.
var publicSitemapPages = []sitemapPage{
	{path: LandingPagePath, changeFrequency: "weekly", priority: "1.0"},
	{path: PrivacyPagePath, changeFrequency: "yearly", priority: "0.3"},
}

// SitemapHandlers serves the crawler sitemap for the public site.
type SitemapHandlers struct {
	publicBaseURL string
	pages         []sitemapPage
}

type sitemapURL struct {
	Location        string `xml:"loc"`
	ChangeFrequency string `xml:"changefreq,omitempty"`
	Priority        string `xml:"priority,omitempty"`
}

type sitemapDocument struct {
	XMLName   xml.Name     `xml:"urlset"`
	Namespace string       `xml:"xmlns,attr"`
	URLs      []sitemapURL `xml:"url"`
}

// NewSitemapHandlers builds sitemap handlers rooted at the public base URL, falling back to localhost.
func NewSitemapHandlers(publicBaseURL string) *SitemapHandlers {
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if base == "" {
		base = sitemapDefaultBase
	}
	return &SitemapHandlers{
		publicBaseURL: base,
		pages:         append([]sitemapPage(nil), publicSitemapPages...),
	}
}

func (handlers *SitemapHandlers) RenderSitemap(context *gin.Context) {
	document, err := handlers.Document()
	if err != nil {
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": sitemapRenderFailure})
		return
	}
	context.Data(http.StatusOK, sitemapContentType, document)
}

// Document returns the sitemap XML, also used by the static site export.
func (handlers *SitemapHandlers) Document() ([]byte, error) {
	document := sitemapDocument{
		Namespace: sitemapXMLNamespace,
		URLs:      make([]sitemapURL, 0, len(handlers.pages)),
	}
	for _, page := range handlers.pages {
		document.URLs = append(document.URLs, sitemapURL{
			Location:        handlers.publicBaseURL + "/" + strings.TrimLeft(page.path, "/"),
			ChangeFrequency: page.changeFrequency,
			Priority:        page.priority,
		})
	}

	encoded, err := xml.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), encoded...), nil
}
