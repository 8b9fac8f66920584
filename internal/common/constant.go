package common

// Header names shared by the HTTP layer and its clients.
const (
	CSRFHeaderName      = "X-CSRF-Token"
	RequestIDHeaderName = "X-Request-Id"
)
