package api

const (
	jsonKeyMessage = "message"

	messageInvalidCredentials = "Invalid username or password"
	messageInvalidJSON        = "Invalid request body"
	messageNotAuthorized      = "Not authorized"
	messageTokenExpired       = "Session expired, please log in again"
	messageInquiryNotFound    = "Inquiry not found"
	messageRateLimited        = "Too many requests, please try again shortly"
	messageQueryFailed        = "Could not load inquiries"
	messageSaveFailed         = "Could not save inquiry"
	messageDeleteFailed       = "Could not delete inquiry"
)
