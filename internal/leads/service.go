package leads

import (
	"context"
	"errors"
	"strings"

	"github.com/smarthomesolar/solarsite/internal/model"
)

// ErrUnknownInquiry indicates the inquiry is not on the board.
var ErrUnknownInquiry = errors.New("leads: unknown inquiry")

// API is the subset of the inquiry API used to manage leads.
type API interface {
	ListInquiries(ctx context.Context, token string) ([]model.Inquiry, error)
	UpdateStatus(ctx context.Context, token string, inquiryID string, status string) error
	AddNote(ctx context.Context, token string, inquiryID string, content string) (model.Inquiry, error)
	DeleteInquiry(ctx context.Context, token string, inquiryID string) error
}

// Service performs remote mutations and applies them to a Board only after the server accepted them.
type Service struct {
	api   API
	token string
	board *Board
}

// Open fetches the collection for the session and returns a Service bound to it.
func Open(ctx context.Context, api API, token string) (*Service, error) {
	inquiries, err := api.ListInquiries(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Service{api: api, token: token, board: NewBoard(inquiries)}, nil
}

// Board exposes the local view.
func (service *Service) Board() *Board {
	return service.board
}

// Refresh replaces the local collection with the server's, keeping the selection when it still exists.
func (service *Service) Refresh(ctx context.Context) error {
	inquiries, err := service.api.ListInquiries(ctx, service.token)
	if err != nil {
		return err
	}
	selectedID := service.board.selectedID
	service.board = NewBoard(inquiries)
	service.board.Select(selectedID)
	return nil
}

// UpdateStatus changes an inquiry's status remotely, then locally.
func (service *Service) UpdateStatus(ctx context.Context, inquiryID string, rawStatus string) error {
	status, statusErr := model.ParseInquiryStatus(rawStatus)
	if statusErr != nil {
		return statusErr
	}
	if _, found := service.board.Find(inquiryID); !found {
		return ErrUnknownInquiry
	}
	if err := service.api.UpdateStatus(ctx, service.token, inquiryID, status); err != nil {
		return err
	}
	service.board.ApplyStatus(inquiryID, status)
	return nil
}

// AddNote appends a note remotely and adopts the server's copy of the inquiry.
func (service *Service) AddNote(ctx context.Context, inquiryID string, content string) (model.Inquiry, error) {
	if strings.TrimSpace(content) == "" {
		return model.Inquiry{}, model.ErrEmptyNote
	}
	if _, found := service.board.Find(inquiryID); !found {
		return model.Inquiry{}, ErrUnknownInquiry
	}
	updated, err := service.api.AddNote(ctx, service.token, inquiryID, content)
	if err != nil {
		return model.Inquiry{}, err
	}
	if updated.ID == "" {
		updated.ID = inquiryID
	}
	service.board.ReplaceInquiry(updated)
	return updated, nil
}

// Delete removes an inquiry remotely, then locally.
func (service *Service) Delete(ctx context.Context, inquiryID string) error {
	if _, found := service.board.Find(inquiryID); !found {
		return ErrUnknownInquiry
	}
	if err := service.api.DeleteInquiry(ctx, service.token, inquiryID); err != nil {
		return err
	}
	service.board.Remove(inquiryID)
	return nil
}
