package public

type messageAcceptedResponse struct {
	OK bool `json:"ok"`
}

// Caller-visible error messages for the message endpoint.
const (
	errInvalidJSON          = "Invalid JSON body."
	errMessageNotString     = "Message must be a string."
	errMessageRequired      = "Message is required."
	errMessageTooLong       = "Message must be under 500 characters."
	errWebhookNotConfigured = "Notification webhook not configured."
	errTooManyRequests      = "Too many requests."
	errWebhookFailed        = "Notification webhook failed."
	errInternal             = "Internal server error."
)
