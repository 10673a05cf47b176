package constants

// Session and context keys
const (
	SessionCookieName = "navflow_session"
	ContextKeyUserID  = "user_id"
)

// Validation limits
const (
	MinPasswordLength = 8
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 25
	MaxPageSize     = 100
)
