package models

import "time"

// SystemMetrics is a lightweight runtime snapshot for operators.
type SystemMetrics struct {
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	CacheHitRatio            float64           `json:"cache_hit_ratio"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	Transitions              map[string]uint64 `json:"transitions"`
	StoreFailovers           uint64            `json:"store_failovers"`
	NotificationsCreated     uint64            `json:"notifications_created"`
	StoreBackend             string            `json:"store_backend"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}
