package common

const (
	// MaxMessageRequestBody limits JSON request bodies for the message endpoint.
	MaxMessageRequestBody = 64 << 10
	// MaxAdminRequestBody limits JSON request bodies for admin endpoints.
	MaxAdminRequestBody = 4 << 10
)
