package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smarthomesolar/solarsite/internal/model"
	"github.com/smarthomesolar/solarsite/internal/notifications"
	"github.com/smarthomesolar/solarsite/internal/storage"
)

const (
	defaultRateWindow             = 30 * time.Second
	defaultMaxRequestsPerIPWindow = 6
)

// PublicHandlers accepts contact form submissions.
type PublicHandlers struct {
	store    *storage.InquiryStore
	logger   *zap.Logger
	notifier notifications.InquiryNotifier

	rateWindow                time.Duration
	maxRequestsPerIPPerWindow int
	rateCountersByIP          map[string]int
	rateBucket                int64
	rateCountersMutex         sync.Mutex
}

// NewPublicHandlers builds PublicHandlers. A nil notifier sends nothing.
func NewPublicHandlers(store *storage.InquiryStore, logger *zap.Logger, notifier notifications.InquiryNotifier) *PublicHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicHandlers{
		store:                     store,
		logger:                    logger,
		notifier:                  notifications.Resolve(notifier),
		rateWindow:                defaultRateWindow,
		maxRequestsPerIPPerWindow: defaultMaxRequestsPerIPWindow,
		rateCountersByIP:          make(map[string]int),
	}
}

// CreateInquiry stores a contact form submission and notifies the sales inbox.
func (handlers *PublicHandlers) CreateInquiry(context *gin.Context) {
	if handlers.isRateLimited(context.ClientIP()) {
		context.JSON(http.StatusTooManyRequests, gin.H{jsonKeyMessage: messageRateLimited})
		return
	}

	var payload model.InquiryInput
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyMessage: messageInvalidJSON})
		return
	}
	inquiry, validationErr := model.NewInquiry(payload)
	if validationErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyMessage: model.InquiryErrorMessage(validationErr)})
		return
	}

	if err := handlers.store.Create(context.Request.Context(), &inquiry); err != nil {
		handlers.logger.Error("save_inquiry", zap.Error(err))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyMessage: messageSaveFailed})
		return
	}
	handlers.logger.Info("inquiry_created", zap.String("inquiry_id", inquiry.ID), zap.String("service", inquiry.Service))

	if notifyErr := handlers.notifier.NotifyInquiry(context.Request.Context(), inquiry); notifyErr != nil {
		handlers.logger.Warn("inquiry_notification_failed", zap.Error(notifyErr), zap.String("inquiry_id", inquiry.ID))
	}
	context.JSON(http.StatusCreated, inquiry)
}

// isRateLimited counts requests per IP in fixed windows. Counters from earlier windows are discarded.
func (handlers *PublicHandlers) isRateLimited(ip string) bool {
	nowBucket := time.Now().Unix() / int64(handlers.rateWindow.Seconds())
	key := fmt.Sprintf("%s:%d", ip, nowBucket)

	handlers.rateCountersMutex.Lock()
	defer handlers.rateCountersMutex.Unlock()

	if nowBucket != handlers.rateBucket {
		handlers.rateCountersByIP = make(map[string]int)
		handlers.rateBucket = nowBucket
	}
	handlers.rateCountersByIP[key]++
	return handlers.rateCountersByIP[key] > handlers.maxRequestsPerIPPerWindow
}
