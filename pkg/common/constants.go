package common

import "time"

const (
	RequestIDHeader   = "X-Request-ID"
	APIKeyHeader      = "X-API-Key"
	InternalKeyHeader = "X-Internal-Key"

	MaxPostBody = 1 << 20

	APIRateLimitWindow   = 15 * time.Minute
	APIRateLimitRequests = 100
)
