package httpapi

import (
	"crypto/sha256"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"

	"github.com/smarthomesolar/solarsite/internal/leads"
)

const (
	sessionCookieName        = "solarsite_admin"
	sessionKeyToken          = "token"
	sessionKeyUsername       = "username"
	sessionKeyExpiresAt      = "expires_at"
	sessionSecretMinLength   = 32
	sessionDefaultMaxAge     = 12 * 60 * 60
	contextKeyAdminSession   = "httpapi_admin_session"
	logEventLoadSession      = "load_session"
	logEventSaveSession      = "save_session"
	sessionHashKeyInfo       = "solarsite session hash"
	sessionEncryptionKeyInfo = "solarsite session encryption"
	sessionKeyBytes          = 32
	FlashKindNotice          = "notice"
	FlashKindError           = "error"
)

// ErrWeakSessionSecret indicates a session secret shorter than 32 bytes.
var ErrWeakSessionSecret = errors.New("httpapi: session secret must be at least 32 bytes")

// SessionConfig configures the admin session cookie.
type SessionConfig struct {
	Secret string
	Secure bool
}

// AuthManager keeps the operator's inquiry API session in an encrypted cookie.
type AuthManager struct {
	logger       *zap.Logger
	sessionStore *sessions.CookieStore
	now          func() time.Time
}

func NewAuthManager(logger *zap.Logger, config SessionConfig) (*AuthManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(config.Secret) < sessionSecretMinLength {
		return nil, ErrWeakSessionSecret
	}
	hashKey, hashErr := deriveSessionKey(config.Secret, sessionHashKeyInfo)
	if hashErr != nil {
		return nil, hashErr
	}
	encryptionKey, encryptionErr := deriveSessionKey(config.Secret, sessionEncryptionKeyInfo)
	if encryptionErr != nil {
		return nil, encryptionErr
	}

	store := sessions.NewCookieStore(hashKey, encryptionKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionDefaultMaxAge,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &AuthManager{
		logger:       logger,
		sessionStore: store,
		now:          time.Now,
	}, nil
}

// RequireAuthenticatedWeb redirects visitors without a live session to the login page.
func (authManager *AuthManager) RequireAuthenticatedWeb() gin.HandlerFunc {
	return func(context *gin.Context) {
		_, state := authManager.loadSession(context)
		switch state {
		case sessionStateLive:
			context.Next()
		case sessionStateExpired:
			authManager.ClearSession(context)
			context.Redirect(http.StatusFound, AdminLoginPath+"?"+queryKeyExpired+"=1")
			context.Abort()
		default:
			context.Redirect(http.StatusFound, AdminLoginPath)
			context.Abort()
		}
	}
}

// CurrentSession returns the stored API session when it is present and unexpired.
func (authManager *AuthManager) CurrentSession(context *gin.Context) (leads.Session, bool) {
	session, state := authManager.loadSession(context)
	return session, state == sessionStateLive
}

// SaveSession stores the API session returned by login.
func (authManager *AuthManager) SaveSession(context *gin.Context, session leads.Session) error {
	sessionInstance, _ := authManager.sessionStore.Get(context.Request, sessionCookieName)
	sessionInstance.Values[sessionKeyToken] = session.Token
	sessionInstance.Values[sessionKeyUsername] = session.Username
	sessionInstance.Values[sessionKeyExpiresAt] = int64(0)
	if !session.ExpiresAt.IsZero() {
		sessionInstance.Values[sessionKeyExpiresAt] = session.ExpiresAt.Unix()
		if remaining := int(session.ExpiresAt.Sub(authManager.now()).Seconds()); remaining > 0 {
			sessionInstance.Options.MaxAge = remaining
		}
	}
	if saveErr := sessionInstance.Save(context.Request, context.Writer); saveErr != nil {
		authManager.logger.Error(logEventSaveSession, zap.Error(saveErr))
		return saveErr
	}
	context.Set(contextKeyAdminSession, session)
	return nil
}

// ClearSession drops the stored token. It is called on logout and whenever the API rejects the token.
func (authManager *AuthManager) ClearSession(context *gin.Context) {
	sessionInstance, _ := authManager.sessionStore.Get(context.Request, sessionCookieName)
	sessionInstance.Values = map[interface{}]interface{}{}
	sessionInstance.Options.MaxAge = -1
	if saveErr := sessionInstance.Save(context.Request, context.Writer); saveErr != nil {
		authManager.logger.Warn(logEventSaveSession, zap.Error(saveErr))
	}
	context.Set(contextKeyAdminSession, leads.Session{})
}

// AddFlash queues a one-time message of the given kind for the next dashboard render.
func (authManager *AuthManager) AddFlash(context *gin.Context, kind string, message string) {
	sessionInstance, _ := authManager.sessionStore.Get(context.Request, sessionCookieName)
	sessionInstance.AddFlash(message, kind)
	if saveErr := sessionInstance.Save(context.Request, context.Writer); saveErr != nil {
		authManager.logger.Warn(logEventSaveSession, zap.Error(saveErr))
	}
}

// Flashes returns and consumes the queued messages of one kind.
func (authManager *AuthManager) Flashes(context *gin.Context, kind string) []string {
	sessionInstance, getErr := authManager.sessionStore.Get(context.Request, sessionCookieName)
	if getErr != nil {
		return nil
	}
	rawFlashes := sessionInstance.Flashes(kind)
	if len(rawFlashes) == 0 {
		return nil
	}
	if saveErr := sessionInstance.Save(context.Request, context.Writer); saveErr != nil {
		authManager.logger.Warn(logEventSaveSession, zap.Error(saveErr))
	}
	messages := make([]string, 0, len(rawFlashes))
	for _, rawFlash := range rawFlashes {
		if message := extractString(rawFlash); message != "" {
			messages = append(messages, message)
		}
	}
	return messages
}

type sessionState int

const (
	sessionStateMissing sessionState = iota
	sessionStateExpired
	sessionStateLive
)

func (authManager *AuthManager) loadSession(context *gin.Context) (leads.Session, sessionState) {
	if value, exists := context.Get(contextKeyAdminSession); exists {
		if session, ok := value.(leads.Session); ok {
			if session.Token == "" {
				return leads.Session{}, sessionStateMissing
			}
			return session, sessionStateLive
		}
	}

	sessionInstance, sessionErr := authManager.sessionStore.Get(context.Request, sessionCookieName)
	if sessionErr != nil {
		authManager.logger.Warn(logEventLoadSession, zap.Error(sessionErr))
		return leads.Session{}, sessionStateMissing
	}

	token := extractString(sessionInstance.Values[sessionKeyToken])
	if token == "" {
		return leads.Session{}, sessionStateMissing
	}
	session := leads.Session{
		Token:    token,
		Username: extractString(sessionInstance.Values[sessionKeyUsername]),
	}
	if expiresAt, ok := sessionInstance.Values[sessionKeyExpiresAt].(int64); ok && expiresAt > 0 {
		session.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	}
	if session.Expired(authManager.now()) {
		return leads.Session{}, sessionStateExpired
	}

	context.Set(contextKeyAdminSession, session)
	return session, sessionStateLive
}

func deriveSessionKey(secret string, info string) ([]byte, error) {
	key := make([]byte, sessionKeyBytes)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, err
	}
	return key, nil
}

func extractString(value interface{}) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}
