package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smarthomesolar/solarsite/internal/model"
	"github.com/smarthomesolar/solarsite/internal/storage"
)

const (
	contextKeyOperator  = "api_current_operator"
	headerAuthorization = "Authorization"
	bearerScheme        = "bearer"
	logEventLogin       = "operator_login"
	logEventLoginFailed = "operator_login_failed"
)

// ErrMissingOperator reports a request that passed no authentication middleware.
var ErrMissingOperator = errors.New("api: missing current operator")

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthHandlers exchanges operator credentials for bearer tokens.
type AuthHandlers struct {
	database *gorm.DB
	issuer   *TokenIssuer
	logger   *zap.Logger
}

// NewAuthHandlers builds AuthHandlers.
func NewAuthHandlers(database *gorm.DB, issuer *TokenIssuer, logger *zap.Logger) *AuthHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandlers{database: database, issuer: issuer, logger: logger}
}

// Login checks the password against the stored bcrypt hash and returns a signed token.
func (handlers *AuthHandlers) Login(context *gin.Context) {
	var payload loginRequest
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyMessage: messageInvalidJSON})
		return
	}

	operator, lookupErr := storage.FindOperator(handlers.database, payload.Username)
	if lookupErr != nil && !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
		handlers.logger.Error(logEventLoginFailed, zap.Error(lookupErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyMessage: messageQueryFailed})
		return
	}
	if lookupErr != nil || operator.CheckPassword(payload.Password) != nil {
		handlers.logger.Info(logEventLoginFailed, zap.String("username", model.NormalizeOperatorUsername(payload.Username)), zap.String("client_ip", context.ClientIP()))
		context.JSON(http.StatusUnauthorized, gin.H{jsonKeyMessage: messageInvalidCredentials})
		return
	}

	issued, issueErr := handlers.issuer.Issue(operator.Username)
	if issueErr != nil {
		handlers.logger.Error(logEventLoginFailed, zap.Error(issueErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyMessage: messageNotAuthorized})
		return
	}
	handlers.logger.Info(logEventLogin, zap.String("username", operator.Username))
	context.JSON(http.StatusOK, loginResponse{
		Token:     issued.Value,
		Username:  operator.Username,
		ExpiresAt: issued.ExpiresAt,
	})
}

// RequireBearerToken rejects requests without a valid operator token.
func RequireBearerToken(issuer *TokenIssuer) gin.HandlerFunc {
	return func(context *gin.Context) {
		token := bearerToken(context.GetHeader(headerAuthorization))
		if token == "" {
			context.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{jsonKeyMessage: messageNotAuthorized})
			return
		}
		username, verifyErr := issuer.Verify(token)
		if errors.Is(verifyErr, ErrExpiredToken) {
			context.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{jsonKeyMessage: messageTokenExpired})
			return
		}
		if verifyErr != nil {
			context.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{jsonKeyMessage: messageNotAuthorized})
			return
		}
		context.Set(contextKeyOperator, username)
		context.Next()
	}
}

// CurrentOperator returns the username attached by RequireBearerToken.
func CurrentOperator(context *gin.Context) (string, error) {
	if context == nil {
		return "", ErrMissingOperator
	}
	value, exists := context.Get(contextKeyOperator)
	if !exists {
		return "", ErrMissingOperator
	}
	username, ok := value.(string)
	if !ok || username == "" {
		return "", ErrMissingOperator
	}
	return username, nil
}

func bearerToken(headerValue string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(headerValue), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}
