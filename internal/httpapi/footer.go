package httpapi

import (
	"html/template"

	"github.com/smarthomesolar/solarsite/internal/content"
	"github.com/smarthomesolar/solarsite/pkg/footer"
)

const (
	siteFooterElementID   = "site-footer"
	siteFooterBaseClass   = "site-footer"
	siteFooterInnerClass  = "container site-footer__inner"
	siteFooterColumnClass = "site-footer__column"
	siteFooterSocialClass = "site-footer__socials"
)

func footerConfigForSite(site content.Site) footer.Config {
	columns := make([]footer.Column, 0, len(site.Footer.Columns))
	for _, column := range site.Footer.Columns {
		columns = append(columns, footer.Column{
			Title: column.Title,
			Links: footerLinks(column.Links),
		})
	}
	return footer.Config{
		ElementID:      siteFooterElementID,
		BaseClass:      siteFooterBaseClass,
		InnerClass:     siteFooterInnerClass,
		BrandName:      site.Brand.Tagline,
		BrandHighlight: site.Brand.Highlight,
		Blurb:          site.Footer.Blurb,
		ColumnClass:    siteFooterColumnClass,
		Columns:        columns,
		SocialClass:    siteFooterSocialClass,
		Socials:        footerLinks(site.Footer.Socials),
		MapHeading:     site.Footer.MapHeading,
		MapTitle:       site.Footer.MapTitle,
		MapEmbedURL:    site.Footer.MapEmbed,
		Copyright:      site.Footer.Copyright,
	}
}

// RenderSiteFooter renders the footer shared by the public pages.
func RenderSiteFooter(site content.Site) (template.HTML, error) {
	return footer.Render(footerConfigForSite(site))
}

func footerLinks(links []content.Link) []footer.Link {
	converted := make([]footer.Link, 0, len(links))
	for _, link := range links {
		converted = append(converted, footer.Link{Label: link.Label, URL: siteHref(link.Href)})
	}
	return converted
}
