package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"attest/pkg/domain"
)

// Summary is the aggregate view over one client's persisted records. It is
// pure aggregation; no merge logic is involved in computing it.
type Summary struct {
	TotalEntities             int `json:"total_entities"`
	EntitiesWithDiscrepancies int `json:"entities_with_discrepancies"`
	TotalDocuments            int `json:"total_documents"`
}

// SummaryCache keeps recently computed summaries in Redis. Whole-client
// reprocessing walks every record, so dashboards polling the summary lean on
// this short-lived cache instead.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

func summaryKey(clientID domain.ClientID) string {
	return "attest:summary:" + clientID.String()
}

// Get returns the cached summary for a client, or false on miss. Redis
// errors degrade to a miss; the caller recomputes.
func (c *SummaryCache) Get(ctx context.Context, clientID domain.ClientID) (Summary, bool) {
	data, err := c.client.Get(ctx, summaryKey(clientID)).Bytes()
	if err != nil {
		return Summary{}, false
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return Summary{}, false
	}
	return summary, true
}

// Set stores a freshly computed summary.
func (c *SummaryCache) Set(ctx context.Context, clientID domain.ClientID, summary Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey(clientID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache summary: %w", err)
	}
	return nil
}

// Invalidate drops the cached summary after a write for the client.
func (c *SummaryCache) Invalidate(ctx context.Context, clientID domain.ClientID) error {
	err := c.client.Del(ctx, summaryKey(clientID)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("invalidate summary: %w", err)
	}
	return nil
}
