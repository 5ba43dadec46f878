package model

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	InquiryStatusNew        = "New"
	InquiryStatusContacted  = "Contacted"
	InquiryStatusInProgress = "In Progress"
	InquiryStatusClosed     = "Closed"

	inquiryNameMaxLength        = 100
	inquiryEmailMaxLength       = 320
	inquiryPhoneMaxLength       = 32
	inquiryAddressMaxLength     = 500
	inquiryServiceMaxLength     = 120
	inquiryMonthlyBillMaxLength = 32
	inquiryMessageMaxLength     = 4000
	noteContentMaxLength        = 2000
)

var (
	ErrInvalidInquiryName    = errors.New("invalid_inquiry_name")
	ErrInvalidInquiryEmail   = errors.New("invalid_inquiry_email")
	ErrInvalidInquiryPhone   = errors.New("invalid_inquiry_phone")
	ErrInvalidInquiryStatus  = errors.New("invalid_inquiry_status")
	ErrInvalidInquiryContent = errors.New("invalid_inquiry_content")
	ErrEmptyNote             = errors.New("empty_note")
)

var inquiryStatuses = []string{
	InquiryStatusNew,
	InquiryStatusContacted,
	InquiryStatusInProgress,
	InquiryStatusClosed,
}

// Inquiry is a lead captured by the contact form. The JSON layout matches the inquiry API wire format.
type Inquiry struct {
	ID          string    `json:"_id" gorm:"primaryKey;size:36"`
	FirstName   string    `json:"firstName" gorm:"not null;size:100"`
	LastName    string    `json:"lastName" gorm:"not null;size:100"`
	Email       string    `json:"email" gorm:"not null;size:320;index"`
	Phone       string    `json:"phone" gorm:"not null;size:32"`
	Address     string    `json:"address" gorm:"size:500"`
	Service     string    `json:"service" gorm:"size:120"`
	MonthlyBill string    `json:"monthlyBill,omitempty" gorm:"size:32"`
	Message     string    `json:"message" gorm:"size:4000"`
	Status      string    `json:"status" gorm:"not null;size:16;index"`
	Notes       []Note    `json:"notes" gorm:"foreignKey:InquiryID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Note is a private operator remark attached to an inquiry.
type Note struct {
	ID        string    `json:"_id" gorm:"primaryKey;size:36"`
	InquiryID string    `json:"-" gorm:"index;not null;size:36"`
	Content   string    `json:"content" gorm:"not null;size:2000"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// InquiryInput holds the raw contact form values used to construct an Inquiry.
type InquiryInput struct {
	FirstName   string `json:"firstName" form:"firstName"`
	LastName    string `json:"lastName" form:"lastName"`
	Email       string `json:"email" form:"email"`
	Phone       string `json:"phone" form:"phone"`
	Address     string `json:"address" form:"address"`
	Service     string `json:"service" form:"service"`
	MonthlyBill string `json:"monthlyBill" form:"monthlyBill"`
	Message     string `json:"message" form:"message"`
}

// FullName joins the first and last name.
func (inquiry Inquiry) FullName() string {
	return strings.TrimSpace(inquiry.FirstName + " " + inquiry.LastName)
}

// InquiryStatuses lists every status in workflow order.
func InquiryStatuses() []string {
	return append([]string(nil), inquiryStatuses...)
}

// ParseInquiryStatus returns the canonical status for raw input.
func ParseInquiryStatus(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	for _, status := range inquiryStatuses {
		if trimmed == status {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidInquiryStatus, raw)
}

// NewInquiry constructs an Inquiry with validated, normalized fields and the New status.
func NewInquiry(input InquiryInput) (Inquiry, error) {
	normalized, err := input.Normalize()
	if err != nil {
		return Inquiry{}, err
	}

	return Inquiry{
		ID:          uuid.NewString(),
		FirstName:   normalized.FirstName,
		LastName:    normalized.LastName,
		Email:       normalized.Email,
		Phone:       normalized.Phone,
		Address:     normalized.Address,
		Service:     normalized.Service,
		MonthlyBill: normalized.MonthlyBill,
		Message:     normalized.Message,
		Status:      InquiryStatusNew,
		Notes:       []Note{},
	}, nil
}

// Normalize trims every field and validates the result.
func (input InquiryInput) Normalize() (InquiryInput, error) {
	normalized := InquiryInput{
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:       strings.TrimSpace(input.Phone),
		Address:     strings.TrimSpace(input.Address),
		Service:     strings.TrimSpace(input.Service),
		MonthlyBill: strings.TrimSpace(input.MonthlyBill),
		Message:     strings.TrimSpace(input.Message),
	}

	if normalized.FirstName == "" || len(normalized.FirstName) > inquiryNameMaxLength {
		return InquiryInput{}, fmt.Errorf("%w: first name", ErrInvalidInquiryName)
	}
	if normalized.LastName == "" || len(normalized.LastName) > inquiryNameMaxLength {
		return InquiryInput{}, fmt.Errorf("%w: last name", ErrInvalidInquiryName)
	}
	if err := validateInquiryEmail(normalized.Email); err != nil {
		return InquiryInput{}, err
	}
	if normalized.Phone == "" || len(normalized.Phone) > inquiryPhoneMaxLength {
		return InquiryInput{}, fmt.Errorf("%w: empty or too long", ErrInvalidInquiryPhone)
	}
	if len(normalized.Address) > inquiryAddressMaxLength {
		return InquiryInput{}, fmt.Errorf("%w: address too long", ErrInvalidInquiryContent)
	}
	if len(normalized.Service) > inquiryServiceMaxLength {
		return InquiryInput{}, fmt.Errorf("%w: service too long", ErrInvalidInquiryContent)
	}
	if len(normalized.MonthlyBill) > inquiryMonthlyBillMaxLength {
		return InquiryInput{}, fmt.Errorf("%w: monthly bill too long", ErrInvalidInquiryContent)
	}
	if len(normalized.Message) > inquiryMessageMaxLength {
		return InquiryInput{}, fmt.Errorf("%w: message too long", ErrInvalidInquiryContent)
	}

	return normalized, nil
}

// NewNote constructs a Note for the inquiry, rejecting blank content.
func NewNote(inquiryID string, content string) (Note, error) {
	trimmedContent := strings.TrimSpace(content)
	if trimmedContent == "" {
		return Note{}, ErrEmptyNote
	}
	if len(trimmedContent) > noteContentMaxLength {
		return Note{}, fmt.Errorf("%w: note too long", ErrInvalidInquiryContent)
	}
	return Note{
		ID:        uuid.NewString(),
		InquiryID: strings.TrimSpace(inquiryID),
		Content:   trimmedContent,
	}, nil
}

func validateInquiryEmail(email string) error {
	if email == "" || len(email) > inquiryEmailMaxLength {
		return fmt.Errorf("%w: empty or too long", ErrInvalidInquiryEmail)
	}
	parsed, parseErr := mail.ParseAddress(email)
	if parseErr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInquiryEmail, parseErr)
	}
	// Only a bare address is stored; display names and angle brackets are refused.
	if parsed.Address != email {
		return fmt.Errorf("%w: not a bare address", ErrInvalidInquiryEmail)
	}
	return nil
}
