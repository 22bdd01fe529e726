package handlers

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrNotFound            = "Not found"
	ErrInternalServerError = "Internal server error"
	ErrServiceUnavailable  = "Report store unavailable"
	ErrTooManyRequests     = "Too many login attempts, try again later"

	// maxBodyBytes bounds JSON request bodies
	maxBodyBytes = 1 << 20
)
