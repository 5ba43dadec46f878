package footer

import (
	"bytes"
	"html/template"
)

// Link describes one footer anchor.
type Link struct {
	Label string
	URL   string
}

// Column is a titled group of links.
type Column struct {
	Title string
	Links []Link
}

// Config captures the content and style hooks required to render the footer.
type Config struct {
	ElementID      string
	BaseClass      string
	InnerClass     string
	BrandName      string
	BrandHighlight string
	Blurb          string
	ColumnClass    string
	Columns        []Column
	SocialClass    string
	Socials        []Link
	MapHeading     string
	MapTitle       string
	MapEmbedURL    string
	Copyright      string
}

var (
	footerTemplate = template.Must(template.New("footer").Parse(`<footer id="{{.ElementID}}" class="{{.BaseClass}}">
  <div class="{{.InnerClass}}">
    <div class="site-footer__brand">
      <span class="site-footer__name">{{.BrandName}}{{if .BrandHighlight}} <span class="accent">{{.BrandHighlight}}</span>{{end}}</span>
      {{if .Blurb}}<p class="site-footer__blurb">{{.Blurb}}</p>{{end}}
      {{if .Socials}}
      <ul class="{{.SocialClass}}">
        {{range .Socials}}
        <li><a href="{{.URL}}" aria-label="{{.Label}}" rel="noopener noreferrer">{{.Label}}</a></li>
        {{end}}
      </ul>
      {{end}}
    </div>
    {{range .Columns}}
    <div class="{{$.ColumnClass}}">
      <h4>{{.Title}}</h4>
      <ul>
        {{range .Links}}
        <li><a href="{{.URL}}">{{.Label}}</a></li>
        {{end}}
      </ul>
    </div>
    {{end}}
    {{if .MapEmbedURL}}
    <div class="site-footer__map">
      {{if .MapHeading}}<h4>{{.MapHeading}}</h4>{{end}}
      <iframe title="{{.MapTitle}}" src="{{.MapEmbedURL}}" loading="lazy" referrerpolicy="no-referrer-when-downgrade"></iframe>
    </div>
    {{end}}
  </div>
  {{if .Copyright}}<p class="site-footer__copyright">{{.Copyright}}</p>{{end}}
</footer>`))
)

// Render returns the footer HTML for the provided configuration.
func Render(config Config) (template.HTML, error) {
	var buffer bytes.Buffer
	if err := footerTemplate.Execute(&buffer, config); err != nil {
		return "", err
	}
	return template.HTML(buffer.String()), nil
}
