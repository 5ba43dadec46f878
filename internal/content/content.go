package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

const testimonialsPerSlide = 2

var (
	// ErrMissingBrandName indicates the content carries no business name.
	ErrMissingBrandName = errors.New("content: missing brand name")
	// ErrMissingServices indicates the content lists no services.
	ErrMissingServices = errors.New("content: missing services")
	// ErrMissingBillOptions indicates the contact form has no monthly bill options.
	ErrMissingBillOptions = errors.New("content: missing monthly bill options")
)

// Raw HTML in markdown input is dropped because WithUnsafe is not set.
var markdownRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Site holds every piece of copy shown on the public site.
type Site struct {
	Brand        Brand        `yaml:"brand"`
	Navigation   []Link       `yaml:"navigation"`
	Hero         Hero         `yaml:"hero"`
	Stats        []Stat       `yaml:"stats"`
	About        About        `yaml:"about"`
	Services     ServiceGroup `yaml:"services"`
	Testimonials Testimonials `yaml:"testimonials"`
	Contact      Contact      `yaml:"contact"`
	Footer       Footer       `yaml:"footer"`
}

// Brand names the business.
type Brand struct {
	Name      string `yaml:"name"`
	Highlight string `yaml:"highlight"`
	Suffix    string `yaml:"suffix"`
	Tagline   string `yaml:"tagline"`
}

// Link is a labeled anchor or URL.
type Link struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// Hero is the first screen of the landing page.
type Hero struct {
	Eyebrow        string `yaml:"eyebrow"`
	Headline       string `yaml:"headline"`
	HeadlineAccent string `yaml:"headline_accent"`
	Lead           string `yaml:"lead"`
	PrimaryAction  Link   `yaml:"primary_action"`
	SecondaryLink  Link   `yaml:"secondary_action"`
	ImageURL       string `yaml:"image_url"`
	ImageAlt       string `yaml:"image_alt"`
}

// Stat is one figure of the stats strip.
type Stat struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// About is the company story section.
type About struct {
	Eyebrow        string        `yaml:"eyebrow"`
	Headline       string        `yaml:"headline"`
	HeadlineAccent string        `yaml:"headline_accent"`
	Body           string        `yaml:"body"`
	BodyHTML       template.HTML `yaml:"-"`
	Badge          string        `yaml:"badge"`
	ImageURL       string        `yaml:"image_url"`
	ImageAlt       string        `yaml:"image_alt"`
	Features       []Feature     `yaml:"features"`
}

// Feature is a titled selling point.
type Feature struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// ServiceGroup is the services section.
type ServiceGroup struct {
	Eyebrow  string    `yaml:"eyebrow"`
	Headline string    `yaml:"headline"`
	Lead     string    `yaml:"lead"`
	Items    []Service `yaml:"items"`
}

// Service is one offering. Description is Markdown.
type Service struct {
	Title           string        `yaml:"title"`
	Icon            string        `yaml:"icon"`
	Description     string        `yaml:"description"`
	DescriptionHTML template.HTML `yaml:"-"`
}

// Testimonials is the review slider.
type Testimonials struct {
	Eyebrow       string   `yaml:"eyebrow"`
	Headline      string   `yaml:"headline"`
	Rating        string   `yaml:"rating"`
	RatingCaption string   `yaml:"rating_caption"`
	Images        []string `yaml:"images"`
	IntervalMS    int      `yaml:"interval_ms"`
}

// TestimonialSlide shows up to two review images side by side.
type TestimonialSlide struct {
	Index int
	Left  string
	Right string
}

// Contact is the quote request section.
type Contact struct {
	Headline           string   `yaml:"headline"`
	Lead               string   `yaml:"lead"`
	PersonName         string   `yaml:"person_name"`
	PersonRole         string   `yaml:"person_role"`
	Phone              string   `yaml:"phone"`
	Email              string   `yaml:"email"`
	Address            string   `yaml:"address"`
	MonthlyBillOptions []string `yaml:"monthly_bill_options"`
	SubmitLabel        string   `yaml:"submit_label"`
	Disclaimer         string   `yaml:"disclaimer"`
	SuccessMessage     string   `yaml:"success_message"`
}

// Footer is the site footer.
type Footer struct {
	Blurb      string     `yaml:"blurb"`
	Columns    []LinkList `yaml:"columns"`
	Socials    []Link     `yaml:"socials"`
	MapTitle   string     `yaml:"map_title"`
	MapEmbed   string     `yaml:"map_embed_url"`
	MapHeading string     `yaml:"map_heading"`
	Copyright  string     `yaml:"copyright"`
}

// LinkList is a titled column of links.
type LinkList struct {
	Title string `yaml:"title"`
	Links []Link `yaml:"links"`
}

// Load reads a YAML override file on top of the defaults. An empty path returns the defaults.
func Load(path string) (Site, error) {
	site := Default()
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return site, site.prepare()
	}
	contents, err := os.ReadFile(trimmedPath)
	if err != nil {
		return Site{}, fmt.Errorf("content: read %s: %w", trimmedPath, err)
	}
	return Parse(contents)
}

// Parse decodes YAML content on top of the defaults.
func Parse(contents []byte) (Site, error) {
	site := Default()
	if err := yaml.Unmarshal(contents, &site); err != nil {
		return Site{}, fmt.Errorf("content: decode: %w", err)
	}
	if err := site.prepare(); err != nil {
		return Site{}, err
	}
	return site, nil
}

// TestimonialSlides pairs the review images; an odd count leaves the last slide with one image.
func (site Site) TestimonialSlides() []TestimonialSlide {
	images := site.Testimonials.Images
	slides := make([]TestimonialSlide, 0, (len(images)+testimonialsPerSlide-1)/testimonialsPerSlide)
	for index := 0; index < len(images); index += testimonialsPerSlide {
		slide := TestimonialSlide{Index: index / testimonialsPerSlide, Left: images[index]}
		if index+1 < len(images) {
			slide.Right = images[index+1]
		}
		slides = append(slides, slide)
	}
	return slides
}

func (site *Site) prepare() error {
	if strings.TrimSpace(site.Brand.Name) == "" {
		return ErrMissingBrandName
	}
	if len(site.Services.Items) == 0 {
		return ErrMissingServices
	}
	if len(site.Contact.MonthlyBillOptions) == 0 {
		return ErrMissingBillOptions
	}
	if site.Testimonials.IntervalMS <= 0 {
		site.Testimonials.IntervalMS = defaultTestimonialIntervalMS
	}

	bodyHTML, err := RenderMarkdown(site.About.Body)
	if err != nil {
		return err
	}
	site.About.BodyHTML = bodyHTML
	for index := range site.Services.Items {
		descriptionHTML, renderErr := RenderMarkdown(site.Services.Items[index].Description)
		if renderErr != nil {
			return renderErr
		}
		site.Services.Items[index].DescriptionHTML = descriptionHTML
	}
	return nil
}

// RenderMarkdown converts Markdown to HTML, dropping raw HTML.
func RenderMarkdown(source string) (template.HTML, error) {
	var buffer bytes.Buffer
	if err := markdownRenderer.Convert([]byte(source), &buffer); err != nil {
		return "", fmt.Errorf("content: render markdown: %w", err)
	}
	return template.HTML(buffer.String()), nil
}
