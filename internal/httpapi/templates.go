package httpapi

import (
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/smarthomesolar/solarsite/internal/model"
)

const (
	htmlContentType        = "text/html; charset=utf-8"
	partialsTemplatePath   = "templates/partials.tmpl"
	templateDirectory      = "templates/"
	templateFileExtension  = ".tmpl"
	displayDateLayout      = "Jan 2, 2006"
	displayDateTimeLayout  = "Jan 2, 2006 3:04 PM"
	statusBadgeClassPrefix = "status-badge status-"
	revealDelayStepMS      = 100
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

var templateFunctions = template.FuncMap{
	"formatDate": func(value time.Time) string {
		if value.IsZero() {
			return ""
		}
		return value.Format(displayDateLayout)
	},
	"formatDateTime": func(value time.Time) string {
		if value.IsZero() {
			return ""
		}
		return value.Format(displayDateTimeLayout)
	},
	"statusClass": statusBadgeClass,
	"statuses":    model.InquiryStatuses,
	"siteHref":    siteHref,
	"revealDelay": func(index int) int {
		return index * revealDelayStepMS
	},
}

// mustParsePage compiles templates/<pageName>.tmpl together with the shared partials.
func mustParsePage(pageName string) *template.Template {
	fileName := pageName + templateFileExtension
	return template.Must(template.New(fileName).Funcs(templateFunctions).ParseFS(templateFiles, partialsTemplatePath, templateDirectory+fileName))
}

func statusBadgeClass(status string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(status), " ", "-"))
	if slug == "" {
		slug = "unknown"
	}
	return statusBadgeClassPrefix + slug
}

// siteHref roots in-page anchors at the landing page so navigation works from every page.
func siteHref(href string) string {
	if strings.HasPrefix(href, "#") {
		return "/" + href
	}
	return href
}
