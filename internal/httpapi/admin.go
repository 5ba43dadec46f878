package httpapi

import (
	"bytes"
	stdcontext "context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"github.com/smarthomesolar/solarsite/internal/leads"
	"github.com/smarthomesolar/solarsite/internal/model"
)

// Admin panel routes.
const (
	AdminRootPath          = "/admin"
	AdminLoginPath         = "/admin/login"
	AdminLogoutPath        = "/admin/logout"
	AdminDashboardPath     = "/admin/dashboard"
	AdminExportPath        = "/admin/export.csv"
	AdminInquiryStatusPath = "/admin/inquiries/:id/status"
	AdminInquiryNotesPath  = "/admin/inquiries/:id/notes"
	AdminInquiryDeletePath = "/admin/inquiries/:id/delete"
)

const (
	loginTemplateName       = "login"
	dashboardTemplateName   = "dashboard"
	loginPageTitle          = "Admin Login"
	dashboardPageTitle      = "Lead Dashboard"
	adminInquiryPathPrefix  = "/admin/inquiries/"
	queryKeyStatus          = "status"
	queryKeySearch          = "q"
	queryKeySelected        = "selected"
	queryKeyTimeZone        = "tz"
	queryKeyExpired         = "expired"
	queryKeyLoggedOut       = "logged_out"
	formKeyUsername         = "username"
	formKeyPassword         = "password"
	formKeyStatus           = "status"
	formKeyContent          = "content"
	formKeyFilterStatus     = "filter_status"
	formKeyFilterSearch     = "filter_q"
	loginMissingCredentials = "Username and password are required."
	loginExpiredNotice      = "Your session expired. Please log in again."
	loggedOutNotice         = "You have been logged out."
	inquiryNotFoundMessage  = "Inquiry not found"
	loadFailedPrefix        = "Could not load inquiries: "
	statusUpdatedFormat     = "Status updated to %s."
	noteAddedNotice         = "Note added."
	leadDeletedNotice       = "Lead deleted."
	exportDispositionFormat = `attachment; filename="%s"`
	logEventAdminLogin      = "admin_login"
	logEventAdminLoginFail  = "admin_login_failed"
	logEventAdminLogout     = "admin_logout"
	logEventSessionRejected = "admin_session_rejected"
	logEventLeadsLoad       = "admin_leads_load_failed"
	logEventLeadMutation    = "admin_lead_mutation_failed"
	logEventRenderAdmin     = "render_admin_page"
	logEventExportFailed    = "admin_export_failed"
)

// LeadsAPI is the inquiry API as seen by the admin panel. *leads.Client implements it.
type LeadsAPI interface {
	Login(ctx stdcontext.Context, username string, password string) (leads.Session, error)
	leads.API
}

type loginTemplateData struct {
	PageTitle    string
	NoIndex      bool
	Username     string
	Notice       string
	ErrorMessage string
	CSRFField    template.HTML
}

type dashboardRow struct {
	Inquiry   model.Inquiry
	ViewURL   string
	DeleteURL string
}

type dashboardSelection struct {
	Inquiry   model.Inquiry
	StatusURL string
	NotesURL  string
	DeleteURL string
}

type dashboardTemplateData struct {
	PageTitle string
	NoIndex   bool
	Username  string
	Stats     leads.Stats
	Filter    leads.Filter
	Rows      []dashboardRow
	Selected  *dashboardSelection
	CloseURL  string
	Notices   []string
	Errors    []string
	Location  *time.Location
	CSRFField template.HTML
}

// AdminHandlers serves the lead-management panel on top of the inquiry API.
type AdminHandlers struct {
	logger            *zap.Logger
	authManager       *AuthManager
	api               LeadsAPI
	location          *time.Location
	loginTemplate     *template.Template
	dashboardTemplate *template.Template
}

// NewAdminHandlers builds AdminHandlers. Dates are shown in location unless the export request names a zone; nil means UTC.
func NewAdminHandlers(logger *zap.Logger, authManager *AuthManager, api LeadsAPI, location *time.Location) *AdminHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &AdminHandlers{
		logger:            logger,
		authManager:       authManager,
		api:               api,
		location:          location,
		loginTemplate:     mustParsePage(loginTemplateName),
		dashboardTemplate: mustParsePage(dashboardTemplateName),
	}
}

// RenderLogin shows the login form, or forwards an operator who is already signed in.
func (handlers *AdminHandlers) RenderLogin(context *gin.Context) {
	if _, ok := handlers.authManager.CurrentSession(context); ok {
		context.Redirect(http.StatusFound, AdminDashboardPath)
		return
	}
	data := loginTemplateData{}
	switch {
	case context.Query(queryKeyExpired) != "":
		data.Notice = loginExpiredNotice
	case context.Query(queryKeyLoggedOut) != "":
		data.Notice = loggedOutNotice
	}
	handlers.renderLogin(context, http.StatusOK, data)
}

// Login exchanges the submitted credentials for an API session.
func (handlers *AdminHandlers) Login(context *gin.Context) {
	username := strings.TrimSpace(context.PostForm(formKeyUsername))
	password := context.PostForm(formKeyPassword)
	if username == "" || password == "" {
		handlers.renderLogin(context, http.StatusBadRequest, loginTemplateData{Username: username, ErrorMessage: loginMissingCredentials})
		return
	}

	session, loginErr := handlers.api.Login(context.Request.Context(), username, password)
	if loginErr != nil {
		handlers.logger.Info(logEventAdminLoginFail, zap.String("username", username), zap.Error(loginErr))
		status := http.StatusBadGateway
		var apiError *leads.APIError
		if errors.As(loginErr, &apiError) && apiError.StatusCode < http.StatusInternalServerError {
			status = apiError.StatusCode
		}
		handlers.renderLogin(context, status, loginTemplateData{Username: username, ErrorMessage: leads.ErrorMessage(loginErr)})
		return
	}

	if saveErr := handlers.authManager.SaveSession(context, session); saveErr != nil {
		handlers.renderLogin(context, http.StatusInternalServerError, loginTemplateData{Username: username, ErrorMessage: leads.ErrorMessage(saveErr)})
		return
	}
	handlers.logger.Info(logEventAdminLogin, zap.String("username", session.Username))
	context.Redirect(http.StatusSeeOther, AdminDashboardPath)
}

// Logout discards the stored session.
func (handlers *AdminHandlers) Logout(context *gin.Context) {
	session, _ := handlers.authManager.CurrentSession(context)
	handlers.authManager.ClearSession(context)
	handlers.logger.Info(logEventAdminLogout, zap.String("username", session.Username))
	context.Redirect(http.StatusSeeOther, AdminLoginPath+"?"+queryKeyLoggedOut+"=1")
}

// RenderDashboard lists the filtered inquiries with stats and the selected lead's details.
func (handlers *AdminHandlers) RenderDashboard(context *gin.Context) {
	session, _ := handlers.authManager.CurrentSession(context)
	filter := leads.NewFilter(context.Query(queryKeyStatus), context.Query(queryKeySearch))

	service, openErr := leads.Open(context.Request.Context(), handlers.api, session.Token)
	if openErr != nil {
		if handlers.rejectSession(context, openErr) {
			return
		}
		handlers.logger.Error(logEventLeadsLoad, zap.Error(openErr))
		board := leads.NewBoard(nil)
		handlers.renderDashboard(context, http.StatusBadGateway, session, board, filter, []string{loadFailedPrefix + leads.ErrorMessage(openErr)})
		return
	}

	board := service.Board()
	board.Select(context.Query(queryKeySelected))
	handlers.renderDashboard(context, http.StatusOK, session, board, filter, nil)
}

// UpdateStatus changes a lead's status and returns to the dashboard.
func (handlers *AdminHandlers) UpdateStatus(context *gin.Context) {
	inquiryID := context.Param("id")
	filter := filterFromForm(context)
	status := context.PostForm(formKeyStatus)
	handlers.mutate(context, filter, inquiryID, func(requestContext stdcontext.Context, service *leads.Service) (string, error) {
		if err := service.UpdateStatus(requestContext, inquiryID, status); err != nil {
			return "", err
		}
		parsedStatus, _ := model.ParseInquiryStatus(status)
		return fmt.Sprintf(statusUpdatedFormat, parsedStatus), nil
	})
}

// AddNote attaches a private note to a lead.
func (handlers *AdminHandlers) AddNote(context *gin.Context) {
	inquiryID := context.Param("id")
	filter := filterFromForm(context)
	noteContent := context.PostForm(formKeyContent)
	handlers.mutate(context, filter, inquiryID, func(requestContext stdcontext.Context, service *leads.Service) (string, error) {
		if _, err := service.AddNote(requestContext, inquiryID, noteContent); err != nil {
			return "", err
		}
		return noteAddedNotice, nil
	})
}

// DeleteInquiry removes a lead. The confirmation happens in the browser.
func (handlers *AdminHandlers) DeleteInquiry(context *gin.Context) {
	inquiryID := context.Param("id")
	filter := filterFromForm(context)
	handlers.mutate(context, filter, "", func(requestContext stdcontext.Context, service *leads.Service) (string, error) {
		if err := service.Delete(requestContext, inquiryID); err != nil {
			return "", err
		}
		return leadDeletedNotice, nil
	})
}

// ExportCSV downloads the filtered view as solar_leads.csv.
func (handlers *AdminHandlers) ExportCSV(context *gin.Context) {
	session, _ := handlers.authManager.CurrentSession(context)
	filter := leads.NewFilter(context.Query(queryKeyStatus), context.Query(queryKeySearch))
	location := handlers.resolveLocation(context.Query(queryKeyTimeZone))

	service, openErr := leads.Open(context.Request.Context(), handlers.api, session.Token)
	if openErr != nil {
		if handlers.rejectSession(context, openErr) {
			return
		}
		handlers.logger.Error(logEventExportFailed, zap.Error(openErr))
		context.String(http.StatusBadGateway, loadFailedPrefix+leads.ErrorMessage(openErr))
		return
	}

	var buffer bytes.Buffer
	if writeErr := leads.WriteCSV(&buffer, service.Board().Filtered(filter), location); writeErr != nil {
		handlers.logger.Error(logEventExportFailed, zap.Error(writeErr))
		context.String(http.StatusInternalServerError, writeErr.Error())
		return
	}
	context.Header("Content-Disposition", fmt.Sprintf(exportDispositionFormat, leads.ExportFileName))
	context.Header("Cache-Control", "no-store")
	context.Data(http.StatusOK, leads.ExportContentType, buffer.Bytes())
}

type leadMutation func(requestContext stdcontext.Context, service *leads.Service) (string, error)

// mutate loads the board, applies one change through the service and redirects back to the dashboard with a flash.
func (handlers *AdminHandlers) mutate(context *gin.Context, filter leads.Filter, selectedID string, apply leadMutation) {
	session, _ := handlers.authManager.CurrentSession(context)
	requestContext := context.Request.Context()

	service, err := leads.Open(requestContext, handlers.api, session.Token)
	if err == nil {
		var notice string
		if notice, err = apply(requestContext, service); err == nil {
			handlers.authManager.AddFlash(context, FlashKindNotice, notice)
			context.Redirect(http.StatusSeeOther, dashboardURL(filter, selectedID))
			return
		}
	}

	if handlers.rejectSession(context, err) {
		return
	}
	handlers.logger.Warn(logEventLeadMutation, zap.String("path", context.FullPath()), zap.Error(err))
	handlers.authManager.AddFlash(context, FlashKindError, mutationErrorMessage(err))
	redirectSelection := selectedID
	if errors.Is(err, leads.ErrUnknownInquiry) {
		redirectSelection = ""
	}
	context.Redirect(http.StatusSeeOther, dashboardURL(filter, redirectSelection))
}

// rejectSession clears the session and sends the operator to the login page when the API refused the token.
func (handlers *AdminHandlers) rejectSession(context *gin.Context, err error) bool {
	if !errors.Is(err, leads.ErrUnauthorized) {
		return false
	}
	handlers.logger.Info(logEventSessionRejected, zap.String("path", context.Request.URL.Path))
	handlers.authManager.ClearSession(context)
	redirectStatus := http.StatusFound
	if context.Request.Method != http.MethodGet {
		redirectStatus = http.StatusSeeOther
	}
	context.Redirect(redirectStatus, AdminLoginPath+"?"+queryKeyExpired+"=1")
	context.Abort()
	return true
}

func (handlers *AdminHandlers) renderLogin(context *gin.Context, status int, data loginTemplateData) {
	data.PageTitle = loginPageTitle
	data.NoIndex = true
	data.CSRFField = csrf.TemplateField(context.Request)
	handlers.renderPage(context, handlers.loginTemplate, status, data)
}

func (handlers *AdminHandlers) renderDashboard(context *gin.Context, status int, session leads.Session, board *leads.Board, filter leads.Filter, errorMessages []string) {
	filtered := board.Filtered(filter)
	rows := make([]dashboardRow, 0, len(filtered))
	for _, inquiry := range filtered {
		rows = append(rows, dashboardRow{
			Inquiry:   inquiry,
			ViewURL:   dashboardURL(filter, inquiry.ID),
			DeleteURL: inquiryActionURL(inquiry.ID, "delete"),
		})
	}

	data := dashboardTemplateData{
		PageTitle: dashboardPageTitle,
		NoIndex:   true,
		Username:  session.Username,
		Stats:     board.Stats(),
		Filter:    filter,
		Rows:      rows,
		CloseURL:  dashboardURL(filter, ""),
		Notices:   handlers.authManager.Flashes(context, FlashKindNotice),
		Errors:    append(handlers.authManager.Flashes(context, FlashKindError), errorMessages...),
		Location:  handlers.location,
		CSRFField: csrf.TemplateField(context.Request),
	}
	if selected, ok := board.Selected(); ok {
		data.Selected = &dashboardSelection{
			Inquiry:   selected,
			StatusURL: inquiryActionURL(selected.ID, "status"),
			NotesURL:  inquiryActionURL(selected.ID, "notes"),
			DeleteURL: inquiryActionURL(selected.ID, "delete"),
		}
	}
	handlers.renderPage(context, handlers.dashboardTemplate, status, data)
}

func (handlers *AdminHandlers) renderPage(context *gin.Context, compiled *template.Template, status int, data any) {
	var buffer bytes.Buffer
	if err := compiled.Execute(&buffer, data); err != nil {
		handlers.logger.Error(logEventRenderAdmin, zap.String("template", compiled.Name()), zap.Error(err))
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "admin_render_failed"})
		return
	}
	context.Header("Cache-Control", "no-store")
	context.Data(status, htmlContentType, buffer.Bytes())
}

// resolveLocation returns the named IANA zone, falling back to the configured one.
func (handlers *AdminHandlers) resolveLocation(timeZone string) *time.Location {
	trimmed := strings.TrimSpace(timeZone)
	if trimmed == "" {
		return handlers.location
	}
	location, err := time.LoadLocation(trimmed)
	if err != nil {
		return handlers.location
	}
	return location
}

func filterFromForm(context *gin.Context) leads.Filter {
	return leads.NewFilter(context.PostForm(formKeyFilterStatus), context.PostForm(formKeyFilterSearch))
}

// dashboardURL builds the dashboard address preserving the filter and selection.
func dashboardURL(filter leads.Filter, selectedID string) string {
	values := url.Values{}
	if filter.Status != "" && filter.Status != leads.StatusAll {
		values.Set(queryKeyStatus, filter.Status)
	}
	if filter.Search != "" {
		values.Set(queryKeySearch, filter.Search)
	}
	if trimmedID := strings.TrimSpace(selectedID); trimmedID != "" {
		values.Set(queryKeySelected, trimmedID)
	}
	if len(values) == 0 {
		return AdminDashboardPath
	}
	return AdminDashboardPath + "?" + values.Encode()
}

func inquiryActionURL(inquiryID string, action string) string {
	return adminInquiryPathPrefix + url.PathEscape(inquiryID) + "/" + action
}

func mutationErrorMessage(err error) string {
	switch {
	case model.IsInquiryValidationError(err):
		return model.InquiryErrorMessage(err)
	case errors.Is(err, leads.ErrUnknownInquiry):
		return inquiryNotFoundMessage
	default:
		return leads.ErrorMessage(err)
	}
}
