package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smarthomesolar/solarsite/internal/model"
)

const (
	routeLogin         = "/api/auth/login"
	routeInquiries     = "/api/inquiries"
	routeInquiryByID   = "/api/inquiries/%s"
	routeInquiryNotes  = "/api/inquiries/%s/notes"
	headerContentType  = "Content-Type"
	headerAuthorize    = "Authorization"
	headerAccept       = "Accept"
	headerForwardedFor = "X-Forwarded-For"
	contentTypeJSON    = "application/json"
	bearerPrefix       = "Bearer "
	defaultTimeout     = 15 * time.Second
	maxErrorBodyBytes  = 64 << 10
	maxResultBodyBytes = 16 << 20
)

var (
	// ErrUnauthorized reports a 401 from the inquiry API; the session token must be discarded.
	ErrUnauthorized = errors.New("leads: unauthorized")
	// ErrMissingBaseURL indicates the client was built without an API address.
	ErrMissingBaseURL = errors.New("leads: missing api base url")
	// ErrMissingToken indicates an authenticated call was attempted without a session token.
	ErrMissingToken = errors.New("leads: missing session token")
	// ErrMissingInquiryID indicates an empty inquiry identifier.
	ErrMissingInquiryID = errors.New("leads: missing inquiry id")
)

type clientIPContextKey struct{}

// WithClientIP records the visitor address forwarded to the API so per-visitor limits apply to the visitor, not the web tier.
func WithClientIP(ctx context.Context, clientIP string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, strings.TrimSpace(clientIP))
}

// HTTPClient executes outbound HTTP requests.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// APIError is a non-2xx, non-401 response from the inquiry API.
type APIError struct {
	StatusCode int
	Message    string
}

func (apiError *APIError) Error() string {
	return fmt.Sprintf("leads: api status %d: %s", apiError.StatusCode, apiError.Message)
}

// Session is the login response persisted by the admin panel.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session carries an expiry that has passed.
func (session Session) Expired(now time.Time) bool {
	return !session.ExpiresAt.IsZero() && !now.Before(session.ExpiresAt)
}

// Client calls the inquiry API.
type Client struct {
	baseURL    string
	httpClient HTTPClient
}

// NewClient constructs a Client for the API at baseURL. A nil httpClient uses a client with a default timeout.
func NewClient(baseURL string, httpClient HTTPClient) (*Client, error) {
	normalizedBaseURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if normalizedBaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if _, parseErr := url.ParseRequestURI(normalizedBaseURL); parseErr != nil {
		return nil, fmt.Errorf("leads: invalid api base url: %w", parseErr)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: normalizedBaseURL, httpClient: httpClient}, nil
}

// BaseURL returns the normalized API address.
func (client *Client) BaseURL() string {
	return client.baseURL
}

// Login exchanges operator credentials for a session token.
func (client *Client) Login(ctx context.Context, username string, password string) (Session, error) {
	payload := map[string]string{"username": username, "password": password}
	var session Session
	if err := client.do(ctx, http.MethodPost, routeLogin, "", payload, &session); err != nil {
		return Session{}, err
	}
	if session.Token == "" {
		return Session{}, &APIError{StatusCode: http.StatusBadGateway, Message: "login response carried no token"}
	}
	if session.Username == "" {
		session.Username = model.NormalizeOperatorUsername(username)
	}
	return session, nil
}

// ListInquiries fetches every inquiry visible to the session.
func (client *Client) ListInquiries(ctx context.Context, token string) ([]model.Inquiry, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	var inquiries []model.Inquiry
	if err := client.do(ctx, http.MethodGet, routeInquiries, token, nil, &inquiries); err != nil {
		return nil, err
	}
	if inquiries == nil {
		inquiries = []model.Inquiry{}
	}
	return inquiries, nil
}

// CreateInquiry submits a contact form. It needs no session.
func (client *Client) CreateInquiry(ctx context.Context, input model.InquiryInput) (model.Inquiry, error) {
	var inquiry model.Inquiry
	if err := client.do(ctx, http.MethodPost, routeInquiries, "", input, &inquiry); err != nil {
		return model.Inquiry{}, err
	}
	return inquiry, nil
}

// UpdateStatus sets the status of one inquiry.
func (client *Client) UpdateStatus(ctx context.Context, token string, inquiryID string, status string) error {
	escapedID, err := client.authorizedPath(token, inquiryID)
	if err != nil {
		return err
	}
	payload := map[string]string{"status": status}
	return client.do(ctx, http.MethodPatch, fmt.Sprintf(routeInquiryByID, escapedID), token, payload, nil)
}

// AddNote appends a note and returns the server's updated inquiry.
func (client *Client) AddNote(ctx context.Context, token string, inquiryID string, content string) (model.Inquiry, error) {
	escapedID, err := client.authorizedPath(token, inquiryID)
	if err != nil {
		return model.Inquiry{}, err
	}
	payload := map[string]string{"content": content}
	var inquiry model.Inquiry
	if err := client.do(ctx, http.MethodPost, fmt.Sprintf(routeInquiryNotes, escapedID), token, payload, &inquiry); err != nil {
		return model.Inquiry{}, err
	}
	return inquiry, nil
}

// DeleteInquiry removes one inquiry.
func (client *Client) DeleteInquiry(ctx context.Context, token string, inquiryID string) error {
	escapedID, err := client.authorizedPath(token, inquiryID)
	if err != nil {
		return err
	}
	return client.do(ctx, http.MethodDelete, fmt.Sprintf(routeInquiryByID, escapedID), token, nil, nil)
}

func (client *Client) authorizedPath(token string, inquiryID string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	trimmedID := strings.TrimSpace(inquiryID)
	if trimmedID == "" {
		return "", ErrMissingInquiryID
	}
	return url.PathEscape(trimmedID), nil
}

func (client *Client) do(ctx context.Context, method string, path string, token string, payload any, result any) error {
	var body io.Reader
	if payload != nil {
		encoded, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return fmt.Errorf("leads: encode request: %w", marshalErr)
		}
		body = bytes.NewReader(encoded)
	}

	request, requestErr := http.NewRequestWithContext(ctx, method, client.baseURL+path, body)
	if requestErr != nil {
		return fmt.Errorf("leads: build request: %w", requestErr)
	}
	request.Header.Set(headerAccept, contentTypeJSON)
	if payload != nil {
		request.Header.Set(headerContentType, contentTypeJSON)
	}
	if token != "" {
		request.Header.Set(headerAuthorize, bearerPrefix+token)
	}
	if clientIP, ok := ctx.Value(clientIPContextKey{}).(string); ok && clientIP != "" {
		request.Header.Set(headerForwardedFor, clientIP)
	}

	response, responseErr := client.httpClient.Do(request)
	if responseErr != nil {
		return fmt.Errorf("leads: %s %s: %w", method, path, responseErr)
	}
	defer response.Body.Close()

	// A 401 only invalidates the session when one was presented; login failures carry a message instead.
	if response.StatusCode == http.StatusUnauthorized && token != "" {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxErrorBodyBytes))
		return ErrUnauthorized
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return decodeAPIError(response)
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxErrorBodyBytes))
		return nil
	}
	if decodeErr := json.NewDecoder(io.LimitReader(response.Body, maxResultBodyBytes)).Decode(result); decodeErr != nil {
		return fmt.Errorf("leads: decode response: %w", decodeErr)
	}
	return nil
}

func decodeAPIError(response *http.Response) error {
	apiError := &APIError{StatusCode: response.StatusCode, Message: http.StatusText(response.StatusCode)}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	rawBody, readErr := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
	if readErr != nil || len(rawBody) == 0 {
		return apiError
	}
	if json.Unmarshal(rawBody, &payload) != nil {
		return apiError
	}
	if message := strings.TrimSpace(payload.Message); message != "" {
		apiError.Message = message
	} else if code := strings.TrimSpace(payload.Error); code != "" {
		apiError.Message = code
	}
	return apiError
}

// ErrorMessage returns the text shown to an operator for err: the API message when present, otherwise the error text.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiError *APIError
	if errors.As(err, &apiError) {
		return apiError.Message
	}
	return err.Error()
}
