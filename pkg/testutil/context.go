package testutil

import (
	"net/http"
	"time"

	"resultgate/pkg/requestcontext"
)

// WithRequestID seeds the request context with a request ID, simulating what
// the metadata middleware does for routed requests.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithClientIP seeds the request context with a client IP.
func WithClientIP(req *http.Request, ip string) *http.Request {
	return req.WithContext(requestcontext.WithClientIP(req.Context(), ip))
}

// WithRequestTime seeds the request context with a fixed request time.
func WithRequestTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}
