package server

import (
	"strconv"
	"time"
)

const (
	ErrMsgUnauthorized    = "Unauthorized"
	ErrMsgForbidden       = "Forbidden"
	ErrMsgTooManyRequests = "Too Many Requests"
)

const (
	SecurityAlertFailedAuth = "SECURITY ALERT: Multiple failed authentication attempts"
	SecurityAlertHighRate   = "SECURITY ALERT: Blocking high request rate"
)

const (
	LogMsgServerStarting   = "Server starting"
	LogMsgRequestStarted   = "Request started"
	LogMsgRequestCompleted = "Request completed"
	LogMsgRequestHeaders   = "Request headers"
	LogMsgAuthFailed       = "Authentication failed"
	LogMsgAdminDenied      = "Admin permission denied"
	LogMsgBadTrustedProxy  = "Ignoring malformed trusted proxy"
)

const (
	HeaderAPIKey         = "X-API-Key"
	HeaderAuthorization  = "Authorization"
	HeaderForwardedFor   = "X-Forwarded-For"
	HeaderRequestID      = "X-Request-ID"
	HeaderRetryAfter     = "Retry-After"
	HeaderContentType    = "X-Content-Type-Options"
	HeaderFrameOptions   = "X-Frame-Options"
	HeaderReferrerPolicy = "Referrer-Policy"

	HeaderValueNoSniff              = "nosniff"
	HeaderValueDeny                 = "DENY"
	HeaderValueReferrerStrictOrigin = "strict-origin-when-cross-origin"

	// RedactedValue replaces secrets in logged headers
	RedactedValue = "[REDACTED]"
)

// Abuse detection and transport limits
const (
	DetectorWindow           = 5 * time.Minute
	MaxRequestsPerWindow     = 1000
	FailedAuthAlertThreshold = 5
	HighRateLogEvery         = 100
	MaxRequestBodyBytes      = 1 << 20
	ReadHeaderTimeout        = 5 * time.Second
)

var retryAfterSeconds = strconv.Itoa(int(DetectorWindow / time.Second))

var securityHeaders = map[string]string{
	HeaderContentType:    HeaderValueNoSniff,
	HeaderFrameOptions:   HeaderValueDeny,
	HeaderReferrerPolicy: HeaderValueReferrerStrictOrigin,
}

// publicPaths skip authentication and request logging
var publicPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
	"/version": {},
	"/metrics": {},
}
