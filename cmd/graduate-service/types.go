package main

import (
	"time"

	"solgraduate/pkg/graduate"
)

type QuoteResponse struct {
	RequestID string `json:"requestId"`
	graduate.QuoteReport
	TimeTaken string `json:"timeTaken"`
}

type QuoteError struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type HealthResponse struct {
	Status      string    `json:"status"`
	Network     string    `json:"network"`
	CachedMints int       `json:"cachedMints"`
	CacheHits   uint64    `json:"cacheHits"`
	CacheMisses uint64    `json:"cacheMisses"`
	StartedAt   time.Time `json:"startedAt"`
	Uptime      string    `json:"uptime"`
}
