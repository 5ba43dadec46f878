package model

import "errors"

// Form field keys reported by InquiryErrorField.
const (
	InquiryFieldName    = "name"
	InquiryFieldEmail   = "email"
	InquiryFieldPhone   = "phone"
	InquiryFieldStatus  = "status"
	InquiryFieldNote    = "note"
	InquiryFieldContent = "content"
)

// InquiryErrorMessage returns operator- and visitor-facing text for a validation error.
func InquiryErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInquiryName):
		return "First and last name are required."
	case errors.Is(err, ErrInvalidInquiryEmail):
		return "Please enter a valid email address."
	case errors.Is(err, ErrInvalidInquiryPhone):
		return "Please enter a phone number."
	case errors.Is(err, ErrInvalidInquiryStatus):
		return "Invalid status."
	case errors.Is(err, ErrEmptyNote):
		return "Note content is required."
	case errors.Is(err, ErrInvalidInquiryContent):
		return "One of the fields is too long."
	default:
		return "Something went wrong. Please try again."
	}
}

// InquiryErrorField names the form field a validation error belongs to.
func InquiryErrorField(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInquiryName):
		return InquiryFieldName
	case errors.Is(err, ErrInvalidInquiryEmail):
		return InquiryFieldEmail
	case errors.Is(err, ErrInvalidInquiryPhone):
		return InquiryFieldPhone
	case errors.Is(err, ErrInvalidInquiryStatus):
		return InquiryFieldStatus
	case errors.Is(err, ErrEmptyNote):
		return InquiryFieldNote
	default:
		return InquiryFieldContent
	}
}

// IsInquiryValidationError reports whether err came from inquiry or note validation.
func IsInquiryValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInquiryName) ||
		errors.Is(err, ErrInvalidInquiryEmail) ||
		errors.Is(err, ErrInvalidInquiryPhone) ||
		errors.Is(err, ErrInvalidInquiryStatus) ||
		errors.Is(err, ErrInvalidInquiryContent) ||
		errors.Is(err, ErrEmptyNote)
}
