package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smarthomesolar/solarsite/internal/model"
	"github.com/smarthomesolar/solarsite/internal/storage"
)

const routeParamInquiryID = "id"

type updateStatusRequest struct {
	Status string `json:"status"`
}

type addNoteRequest struct {
	Content string `json:"content"`
}

// InquiryHandlers serves the authenticated inquiry endpoints.
type InquiryHandlers struct {
	store  *storage.InquiryStore
	logger *zap.Logger
}

// NewInquiryHandlers builds InquiryHandlers.
func NewInquiryHandlers(store *storage.InquiryStore, logger *zap.Logger) *InquiryHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InquiryHandlers{store: store, logger: logger}
}

// ListInquiries returns every inquiry, newest first.
func (handlers *InquiryHandlers) ListInquiries(context *gin.Context) {
	inquiries, err := handlers.store.List(context.Request.Context())
	if err != nil {
		handlers.logger.Error("list_inquiries", zap.Error(err))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyMessage: messageQueryFailed})
		return
	}
	context.JSON(http.StatusOK, inquiries)
}

// GetInquiry returns one inquiry with its notes.
func (handlers *InquiryHandlers) GetInquiry(context *gin.Context) {
	inquiry, err := handlers.store.Get(context.Request.Context(), inquiryIDParam(context))
	if handlers.respondStoreError(context, "get_inquiry", err, messageQueryFailed) {
		return
	}
	context.JSON(http.StatusOK, inquiry)
}

// UpdateInquiryStatus applies a status transition.
func (handlers *InquiryHandlers) UpdateInquiryStatus(context *gin.Context) {
	var payload updateStatusRequest
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyMessage: messageInvalidJSON})
		return
	}
	status, statusErr := model.ParseInquiryStatus(payload.Status)
	if statusErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyMessage: model.InquiryErrorMessage(statusErr)})
		return
	}

	inquiry, err := handlers.store.UpdateStatus(context.Request.Context(), inquiryIDParam(context), status)
	if handlers.respondStoreError(context, "update_inquiry_status", err, messageSaveFailed) {
		return
	}
	handlers.logger.Info("inquiry_status_updated", zap.String("inquiry_id", inquiry.ID), zap.String("status", status), zap.String("operator", operatorName(context)))
	context.JSON(http.StatusOK, inquiry)
}

// AddInquiryNote appends a note and returns the full inquiry.
func (handlers *InquiryHandlers) AddInquiryNote(context *gin.Context) {
	var payload addNoteRequest
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyMessage: messageInvalidJSON})
		return
	}
	note, noteErr := model.NewNote(inquiryIDParam(context), payload.Content)
	if noteErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyMessage: model.InquiryErrorMessage(noteErr)})
		return
	}

	inquiry, err := handlers.store.AddNote(context.Request.Context(), note)
	if handlers.respondStoreError(context, "add_inquiry_note", err, messageSaveFailed) {
		return
	}
	context.JSON(http.StatusCreated, inquiry)
}

// DeleteInquiry removes an inquiry and its notes.
func (handlers *InquiryHandlers) DeleteInquiry(context *gin.Context) {
	inquiryID := inquiryIDParam(context)
	err := handlers.store.Delete(context.Request.Context(), inquiryID)
	if handlers.respondStoreError(context, "delete_inquiry", err, messageDeleteFailed) {
		return
	}
	handlers.logger.Info("inquiry_deleted", zap.String("inquiry_id", inquiryID), zap.String("operator", operatorName(context)))
	context.Status(http.StatusNoContent)
}

func (handlers *InquiryHandlers) respondStoreError(context *gin.Context, event string, err error, failureMessage string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, storage.ErrInquiryNotFound):
		context.JSON(http.StatusNotFound, gin.H{jsonKeyMessage: messageInquiryNotFound})
	default:
		handlers.logger.Error(event, zap.Error(err))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyMessage: failureMessage})
	}
	return true
}

func inquiryIDParam(context *gin.Context) string {
	return strings.TrimSpace(context.Param(routeParamInquiryID))
}

func operatorName(context *gin.Context) string {
	username, _ := CurrentOperator(context)
	return username
}
