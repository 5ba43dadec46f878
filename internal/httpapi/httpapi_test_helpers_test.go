package httpapi_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smarthomesolar/solarsite/internal/content"
	"github.com/smarthomesolar/solarsite/internal/httpapi"
	"github.com/smarthomesolar/solarsite/internal/leads"
	"github.com/smarthomesolar/solarsite/internal/model"
)

const (
	testSessionSecret    = "0123456789abcdef0123456789abcdef"
	testOperatorUsername = "admin"
	testOperatorPassword = "correct-horse-battery"
	testOperatorToken    = "operator-token"
)

type stubContentProvider struct {
	site content.Site
}

func (provider stubContentProvider) Site() content.Site {
	return provider.site
}

func defaultContentProvider(testingT *testing.T) stubContentProvider {
	testingT.Helper()
	site, loadErr := content.Load("")
	require.NoError(testingT, loadErr)
	return stubContentProvider{site: site}
}

type stubInquirySubmitter struct {
	mutex    sync.Mutex
	inquiry  model.Inquiry
	err      error
	received []model.InquiryInput
}

func (submitter *stubInquirySubmitter) CreateInquiry(_ context.Context, input model.InquiryInput) (model.Inquiry, error) {
	submitter.mutex.Lock()
	defer submitter.mutex.Unlock()
	submitter.received = append(submitter.received, input)
	return submitter.inquiry, submitter.err
}

type fakeLeadsAPI struct {
	mutex         sync.Mutex
	session       leads.Session
	loginErr      error
	listErr       error
	mutationErr   error
	inquiries     []model.Inquiry
	statusUpdates map[string]string
	notesAdded    map[string][]string
	deletedIDs    []string
	tokens        []string
}

func newFakeLeadsAPI(inquiries ...model.Inquiry) *fakeLeadsAPI {
	return &fakeLeadsAPI{
		session: leads.Session{
			Token:     testOperatorToken,
			Username:  testOperatorUsername,
			ExpiresAt: time.Now().Add(time.Hour),
		},
		inquiries:     inquiries,
		statusUpdates: make(map[string]string),
		notesAdded:    make(map[string][]string),
	}
}

func (api *fakeLeadsAPI) Login(_ context.Context, username string, password string) (leads.Session, error) {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	if api.loginErr != nil {
		return leads.Session{}, api.loginErr
	}
	if username != testOperatorUsername || password != testOperatorPassword {
		return leads.Session{}, &leads.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid username or password"}
	}
	return api.session, nil
}

func (api *fakeLeadsAPI) ListInquiries(_ context.Context, token string) ([]model.Inquiry, error) {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	api.tokens = append(api.tokens, token)
	if api.listErr != nil {
		return nil, api.listErr
	}
	return append([]model.Inquiry(nil), api.inquiries...), nil
}

func (api *fakeLeadsAPI) UpdateStatus(_ context.Context, _ string, inquiryID string, status string) error {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	if api.mutationErr != nil {
		return api.mutationErr
	}
	api.statusUpdates[inquiryID] = status
	for index := range api.inquiries {
		if api.inquiries[index].ID == inquiryID {
			api.inquiries[index].Status = status
		}
	}
	return nil
}

func (api *fakeLeadsAPI) AddNote(_ context.Context, _ string, inquiryID string, noteContent string) (model.Inquiry, error) {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	if api.mutationErr != nil {
		return model.Inquiry{}, api.mutationErr
	}
	api.notesAdded[inquiryID] = append(api.notesAdded[inquiryID], noteContent)
	for index := range api.inquiries {
		if api.inquiries[index].ID == inquiryID {
			api.inquiries[index].Notes = append(api.inquiries[index].Notes, model.Note{ID: "note-" + inquiryID, Content: noteContent, CreatedAt: time.Now()})
			return api.inquiries[index], nil
		}
	}
	return model.Inquiry{}, &leads.APIError{StatusCode: http.StatusNotFound, Message: "Inquiry not found"}
}

func (api *fakeLeadsAPI) DeleteInquiry(_ context.Context, _ string, inquiryID string) error {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	if api.mutationErr != nil {
		return api.mutationErr
	}
	api.deletedIDs = append(api.deletedIDs, inquiryID)
	remaining := api.inquiries[:0]
	for _, inquiry := range api.inquiries {
		if inquiry.ID != inquiryID {
			remaining = append(remaining, inquiry)
		}
	}
	api.inquiries = remaining
	return nil
}

func (api *fakeLeadsAPI) setListError(err error) {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	api.listErr = err
}

func sampleInquiries() []model.Inquiry {
	return []model.Inquiry{
		{
			ID:          "inq-1",
			FirstName:   "Jane",
			LastName:    "Sunshine",
			Email:       "jane@example.com",
			Phone:       "555-0100",
			Address:     "12 Solar Way",
			Service:     "Residential Solar",
			MonthlyBill: "$150-250",
			Message:     "Please call after 5pm",
			Status:      model.InquiryStatusNew,
			CreatedAt:   time.Date(2025, time.March, 1, 20, 0, 0, 0, time.UTC),
		},
		{
			ID:        "inq-2",
			FirstName: "Bob",
			LastName:  "Builder",
			Email:     "bob@example.com",
			Phone:     "555-0200",
			Service:   "Commercial Solar",
			Status:    model.InquiryStatusInProgress,
			CreatedAt: time.Date(2025, time.February, 20, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:        "inq-3",
			FirstName: "Carla",
			LastName:  "Closer",
			Email:     "carla@example.com",
			Phone:     "555-0300",
			Service:   "Battery Storage",
			Status:    model.InquiryStatusClosed,
			CreatedAt: time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC),
		},
	}
}

func newTestAuthManager(testingT *testing.T) *httpapi.AuthManager {
	testingT.Helper()
	authManager, authErr := httpapi.NewAuthManager(zap.NewNop(), httpapi.SessionConfig{Secret: testSessionSecret})
	require.NoError(testingT, authErr)
	return authManager
}

// adminHarness serves the admin panel over a real listener so session cookies round-trip.
type adminHarness struct {
	server *httptest.Server
	client *http.Client
	api    *fakeLeadsAPI
}

func newAdminHarness(testingT *testing.T, api *fakeLeadsAPI) adminHarness {
	testingT.Helper()
	gin.SetMode(gin.TestMode)

	authManager := newTestAuthManager(testingT)
	handlers := httpapi.NewAdminHandlers(zap.NewNop(), authManager, api, time.UTC)

	router := gin.New()
	router.GET(httpapi.AdminLoginPath, handlers.RenderLogin)
	router.POST(httpapi.AdminLoginPath, handlers.Login)
	adminGroup := router.Group("/")
	adminGroup.Use(authManager.RequireAuthenticatedWeb())
	adminGroup.GET(httpapi.AdminDashboardPath, handlers.RenderDashboard)
	adminGroup.GET(httpapi.AdminExportPath, handlers.ExportCSV)
	adminGroup.POST(httpapi.AdminLogoutPath, handlers.Logout)
	adminGroup.POST(httpapi.AdminInquiryStatusPath, handlers.UpdateStatus)
	adminGroup.POST(httpapi.AdminInquiryNotesPath, handlers.AddNote)
	adminGroup.POST(httpapi.AdminInquiryDeletePath, handlers.DeleteInquiry)

	server := httptest.NewServer(router)
	testingT.Cleanup(server.Close)

	return adminHarness{server: server, client: newCookieClient(testingT), api: api}
}

func newCookieClient(testingT *testing.T) *http.Client {
	testingT.Helper()
	jar, jarErr := cookiejar.New(nil)
	require.NoError(testingT, jarErr)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (harness adminHarness) get(testingT *testing.T, path string) (*http.Response, string) {
	testingT.Helper()
	return readResponse(testingT, harness.client, http.MethodGet, harness.server.URL+path, nil)
}

func (harness adminHarness) post(testingT *testing.T, path string, values url.Values) (*http.Response, string) {
	testingT.Helper()
	return readResponse(testingT, harness.client, http.MethodPost, harness.server.URL+path, values)
}

func (harness adminHarness) login(testingT *testing.T) {
	testingT.Helper()
	response, _ := harness.post(testingT, httpapi.AdminLoginPath, url.Values{
		"username": {testOperatorUsername},
		"password": {testOperatorPassword},
	})
	require.Equal(testingT, http.StatusSeeOther, response.StatusCode)
	require.Equal(testingT, httpapi.AdminDashboardPath, response.Header.Get("Location"))
}

func readResponse(testingT *testing.T, client *http.Client, method string, target string, values url.Values) (*http.Response, string) {
	testingT.Helper()
	var body io.Reader
	if values != nil {
		body = strings.NewReader(values.Encode())
	}
	request, requestErr := http.NewRequest(method, target, body)
	require.NoError(testingT, requestErr)
	if values != nil {
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	response, responseErr := client.Do(request)
	require.NoError(testingT, responseErr)
	defer response.Body.Close()
	payload, readErr := io.ReadAll(response.Body)
	require.NoError(testingT, readErr)
	return response, string(payload)
}

func (api *fakeLeadsAPI) recordedStatus(inquiryID string) string {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return api.statusUpdates[inquiryID]
}

func (api *fakeLeadsAPI) recordedStatusCount() int {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return len(api.statusUpdates)
}

func (api *fakeLeadsAPI) recordedNotes(inquiryID string) []string {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return append([]string(nil), api.notesAdded[inquiryID]...)
}

func (api *fakeLeadsAPI) recordedDeletes() []string {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return append([]string(nil), api.deletedIDs...)
}

func (api *fakeLeadsAPI) recordedTokens() []string {
	api.mutex.Lock()
	defer api.mutex.Unlock()
	return append([]string(nil), api.tokens...)
}
