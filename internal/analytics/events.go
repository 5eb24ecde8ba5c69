// Package analytics batches query events in memory and publishes them to
// Kafka for downstream aggregation.
package analytics

import "time"

// EventType identifies the query operation an event describes.
type EventType string

const (
	EventSearch  EventType = "search"
	EventLookup  EventType = "lookup"
	EventSuggest EventType = "suggest"
	EventRelated EventType = "related"
)

// QueryEvent records a single query for offline analysis.
type QueryEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query,omitempty"`
	ProductID uint64    `json:"product_id,omitempty"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
