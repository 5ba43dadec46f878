package httpapi

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"github.com/smarthomesolar/solarsite/internal/content"
	"github.com/smarthomesolar/solarsite/internal/leads"
	"github.com/smarthomesolar/solarsite/internal/model"
)

const (
	LandingPagePath            = "/"
	ContactFormPath            = "/contact"
	landingTemplateName        = "landing"
	landingSubmittedQueryKey   = "submitted"
	landingSubmittedQueryValue = "1"
	contactSuccessRedirectPath = "/?submitted=1#contact"
	contactUnavailableMessage  = "We could not send your request right now. Please call us or try again in a few minutes."
	logEventContactSubmitted   = "contact_submitted"
	logEventContactRejected    = "contact_rejected"
	logEventContactFailed      = "contact_submit_failed"
	logEventRenderLanding      = "render_landing_page"
	logEventRenderFooter       = "render_site_footer"
)

// SiteContentProvider supplies the current site copy.
type SiteContentProvider interface {
	Site() content.Site
}

// InquirySubmitter forwards contact form submissions to the inquiry API.
type InquirySubmitter interface {
	CreateInquiry(ctx context.Context, input model.InquiryInput) (model.Inquiry, error)
}

type contactFormView struct {
	Values       model.InquiryInput
	ErrorField   string
	ErrorMessage string
}

type landingTemplateData struct {
	PageTitle  string
	NoIndex    bool
	Site       content.Site
	Slides     []content.TestimonialSlide
	Form       contactFormView
	Submitted  bool
	CSRFField  template.HTML
	FooterHTML template.HTML
}

// LandingPageHandlers renders the public landing page and accepts the quote request form.
type LandingPageHandlers struct {
	logger          *zap.Logger
	template        *template.Template
	contentProvider SiteContentProvider
	submitter       InquirySubmitter
}

// NewLandingPageHandlers constructs handlers that render the landing template.
func NewLandingPageHandlers(logger *zap.Logger, contentProvider SiteContentProvider, submitter InquirySubmitter) *LandingPageHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LandingPageHandlers{
		logger:          logger,
		template:        mustParsePage(landingTemplateName),
		contentProvider: contentProvider,
		submitter:       submitter,
	}
}

// RenderLandingPage writes the landing page response.
func (handlers *LandingPageHandlers) RenderLandingPage(context *gin.Context) {
	submitted := context.Query(landingSubmittedQueryKey) == landingSubmittedQueryValue
	handlers.render(context, http.StatusOK, contactFormView{}, submitted)
}

// SubmitContact validates the quote request and forwards it to the inquiry API.
func (handlers *LandingPageHandlers) SubmitContact(context *gin.Context) {
	var input model.InquiryInput
	if bindErr := context.ShouldBindWith(&input, binding.Form); bindErr != nil {
		handlers.render(context, http.StatusBadRequest, contactFormView{ErrorMessage: model.InquiryErrorMessage(bindErr)}, false)
		return
	}

	normalized, validationErr := input.Normalize()
	if validationErr != nil {
		handlers.logger.Info(logEventContactRejected, zap.Error(validationErr))
		handlers.render(context, http.StatusUnprocessableEntity, contactFormView{
			Values:       input,
			ErrorField:   model.InquiryErrorField(validationErr),
			ErrorMessage: model.InquiryErrorMessage(validationErr),
		}, false)
		return
	}

	if handlers.submitter == nil {
		handlers.render(context, http.StatusServiceUnavailable, contactFormView{Values: input, ErrorMessage: contactUnavailableMessage}, false)
		return
	}

	requestContext := leads.WithClientIP(context.Request.Context(), context.ClientIP())
	inquiry, submitErr := handlers.submitter.CreateInquiry(requestContext, normalized)
	if submitErr != nil {
		status, message := contactSubmitFailure(submitErr)
		handlers.logger.Warn(logEventContactFailed, zap.Error(submitErr), zap.Int("status", status))
		handlers.render(context, status, contactFormView{Values: input, ErrorMessage: message}, false)
		return
	}

	handlers.logger.Info(logEventContactSubmitted, zap.String("inquiry_id", inquiry.ID))
	context.Redirect(http.StatusSeeOther, contactSuccessRedirectPath)
}

func (handlers *LandingPageHandlers) render(context *gin.Context, status int, form contactFormView, submitted bool) {
	site := handlers.contentProvider.Site()
	footerHTML, footerErr := RenderSiteFooter(site)
	if footerErr != nil {
		handlers.logger.Error(logEventRenderFooter, zap.Error(footerErr))
		footerHTML = template.HTML("")
	}

	data := landingTemplateData{
		PageTitle:  site.Brand.Name,
		Site:       site,
		Slides:     site.TestimonialSlides(),
		Form:       form,
		Submitted:  submitted,
		CSRFField:  csrf.TemplateField(context.Request),
		FooterHTML: footerHTML,
	}

	var buffer bytes.Buffer
	if executeErr := handlers.template.Execute(&buffer, data); executeErr != nil {
		handlers.logger.Error(logEventRenderLanding, zap.Error(executeErr))
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "landing_render_failed"})
		return
	}
	context.Data(status, htmlContentType, buffer.Bytes())
}

// contactSubmitFailure maps an API failure to the response status and visitor-facing message.
func contactSubmitFailure(err error) (int, string) {
	var apiError *leads.APIError
	if errors.As(err, &apiError) && apiError.StatusCode >= http.StatusBadRequest && apiError.StatusCode < http.StatusInternalServerError {
		return apiError.StatusCode, apiError.Message
	}
	return http.StatusBadGateway, contactUnavailableMessage
}
