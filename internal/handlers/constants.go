package handlers

const (
	AuthCookieName     = "hd_auth"
	WorkflowCookieName = "hd_workflow"
	CSRFHeaderName     = "X-CSRF-Token"

	maxBodyBytes = 1 << 20

	ErrInvalidJSON         = "Invalid JSON body"
	ErrInvalidID           = "Invalid id"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Invalid or missing CSRF token"
	ErrTooManyRequests     = "Too many login attempts, try again later"
	ErrInternalServerError = "Internal server error"
)
