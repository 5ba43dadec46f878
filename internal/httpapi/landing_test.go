package httpapi_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smarthomesolar/solarsite/internal/httpapi"
	"github.com/smarthomesolar/solarsite/internal/leads"
	"github.com/smarthomesolar/solarsite/internal/model"
)

func validContactForm() url.Values {
	return url.Values{
		"firstName":   {"  Jane "},
		"lastName":    {"Sunshine"},
		"email":       {"Jane@Example.com"},
		"phone":       {"555-0100"},
		"address":     {"12 Solar Way"},
		"service":     {"Hybrid Solar System"},
		"monthlyBill": {"$150-250"},
		"message":     {"Please call after 5pm"},
	}
}

func newContactContext(form url.Values) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	context, _ := gin.CreateTestContext(recorder)
	request := httptest.NewRequest(http.MethodPost, httpapi.ContactFormPath, strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	context.Request = request
	return context, recorder
}

func TestLandingPageRendersEverySection(testingT *testing.T) {
	gin.SetMode(gin.TestMode)
	handlers := httpapi.NewLandingPageHandlers(zap.NewNop(), defaultContentProvider(testingT), &stubInquirySubmitter{})

	recorder := httptest.NewRecorder()
	context, _ := gin.CreateTestContext(recorder)
	context.Request = httptest.NewRequest(http.MethodGet, httpapi.LandingPagePath, nil)

	handlers.RenderLandingPage(context)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Equal(testingT, "text/html; charset=utf-8", recorder.Header().Get("Content-Type"))
	body := recorder.Body.String()
	for _, sectionID := range []string{`id="hero"`, `id="about"`, `id="services"`, `id="testimonials"`, `id="contact"`} {
		require.Contains(testingT, body, sectionID)
	}
	require.Contains(testingT, body, "Smart Home Solar System")
	require.Contains(testingT, body, "Solar Water Pump System")
	require.Contains(testingT, body, `data-reveal-delay="100"`)
	require.Contains(testingT, body, "IntersectionObserver")
	require.NotContains(testingT, body, "Thank you! Our team will contact you shortly.")
}

func TestLandingPageShowsSubmittedNotice(testingT *testing.T) {
	gin.SetMode(gin.TestMode)
	handlers := httpapi.NewLandingPageHandlers(zap.NewNop(), defaultContentProvider(testingT), &stubInquirySubmitter{})

	recorder := httptest.NewRecorder()
	context, _ := gin.CreateTestContext(recorder)
	context.Request = httptest.NewRequest(http.MethodGet, "/?submitted=1", nil)

	handlers.RenderLandingPage(context)

	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Contains(testingT, recorder.Body.String(), "Thank you! Our team will contact you shortly.")
}

func TestSubmitContactForwardsNormalizedInquiry(testingT *testing.T) {
	submitter := &stubInquirySubmitter{inquiry: model.Inquiry{ID: "inq-42"}}
	handlers := httpapi.NewLandingPageHandlers(zap.NewNop(), defaultContentProvider(testingT), submitter)

	context, recorder := newContactContext(validContactForm())
	handlers.SubmitContact(context)

	require.Equal(testingT, http.StatusSeeOther, recorder.Code)
	require.Equal(testingT, "/?submitted=1#contact", recorder.Header().Get("Location"))
	require.Len(testingT, submitter.received, 1)
	require.Equal(testingT, "Jane", submitter.received[0].FirstName)
	require.Equal(testingT, "jane@example.com", submitter.received[0].Email)
	require.Equal(testingT, "Hybrid Solar System", submitter.received[0].Service)
}

func TestSubmitContactRejectsInvalidFields(testingT *testing.T) {
	testCases := []struct {
		name          string
		field         string
		value         string
		expectedError string
	}{
		{name: "missing first name", field: "firstName", value: "  ", expectedError: "First and last name are required."},
		{name: "invalid email", field: "email", value: "not-an-email", expectedError: "Please enter a valid email address."},
		{name: "missing phone", field: "phone", value: "", expectedError: "Please enter a phone number."},
	}

	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(testingT *testing.T) {
			submitter := &stubInquirySubmitter{}
			handlers := httpapi.NewLandingPageHandlers(zap.NewNop(), defaultContentProvider(testingT), submitter)

			form := validContactForm()
			form.Set(testCase.field, testCase.value)
			context, recorder := newContactContext(form)
			handlers.SubmitContact(context)

			require.Equal(testingT, http.StatusUnprocessableEntity, recorder.Code)
			body := recorder.Body.String()
			require.Contains(testingT, body, testCase.expectedError)
			require.Contains(testingT, body, `class="field field--invalid"`)
			require.Contains(testingT, body, "Please call after 5pm")
			require.Empty(testingT, submitter.received)
		})
	}
}

func TestSubmitContactReportsAPIFailures(testingT *testing.T) {
	testCases := []struct {
		name            string
		submitErr       error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:            "api validation message",
			submitErr:       &leads.APIError{StatusCode: http.StatusUnprocessableEntity, Message: "Please enter a valid email address."},
			expectedStatus:  http.StatusUnprocessableEntity,
			expectedMessage: "Please enter a valid email address.",
		},
		{
			name:            "api server error",
			submitErr:       &leads.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"},
			expectedStatus:  http.StatusBadGateway,
			expectedMessage: "We could not send your request right now.",
		},
		{
			name:            "transport error",
			submitErr:       errors.New("connection refused"),
			expectedStatus:  http.StatusBadGateway,
			expectedMessage: "We could not send your request right now.",
		},
	}

	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(testingT *testing.T) {
			submitter := &stubInquirySubmitter{err: testCase.submitErr}
			handlers := httpapi.NewLandingPageHandlers(zap.NewNop(), defaultContentProvider(testingT), submitter)

			context, recorder := newContactContext(validContactForm())
			handlers.SubmitContact(context)

			require.Equal(testingT, testCase.expectedStatus, recorder.Code)
			require.Contains(testingT, recorder.Body.String(), testCase.expectedMessage)
			require.Contains(testingT, recorder.Body.String(), `value="Sunshine"`)
		})
	}
}

func TestSubmitContactWithoutSubmitterIsUnavailable(testingT *testing.T) {
	handlers := httpapi.NewLandingPageHandlers(zap.NewNop(), defaultContentProvider(testingT), nil)

	context, recorder := newContactContext(validContactForm())
	handlers.SubmitContact(context)

	require.Equal(testingT, http.StatusServiceUnavailable, recorder.Code)
	require.Contains(testingT, recorder.Body.String(), "We could not send your request right now.")
}
