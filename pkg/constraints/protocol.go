package constraints

import "time"

// Backend endpoints, relative to backend.base_url.
const (
	EndpointSignIn  = "/auth/signin"
	EndpointRefresh = "/auth/refresh"
	EndpointLogout  = "/auth/logout"
	EndpointMe      = "/user/me"
)

// Console routes.
const (
	PathHome    = "/"
	PathSignIn  = "/signin"
	PathLogout  = "/logout"
	PathTerms   = "/terms"
	PathPrivacy = "/privacy"
	PathAdmin   = "/admin"

	PathSession       = "/session"
	PathSessionEvents = "/session/events"
	PathSettings      = "/settings/notifications"
	PathHealth        = "/health"
	PathMetrics       = "/metrics"
)

const (
	// TokenCookieName is the one canonical name of the session token, used
	// for the console cookie and the persisted store key alike.
	TokenCookieName = "accessToken"
	TokenMaxAge     = 7 * 24 * time.Hour

	RoleAdmin = "ADMIN"
)

const (
	ReasonSessionExpired = "Your session has expired. Please login again."
	NoticeAccessDenied   = "You do not have permission to access this page."
)
