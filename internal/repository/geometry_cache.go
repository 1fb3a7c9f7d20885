package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/signetflow/signet-api/internal/models"
)

// GeometryCache stores per-document page geometry in Redis so placement does
// not re-parse the PDF on every request. Entries expire by TTL only; the
// pristine source PDF never changes after upload.
type GeometryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGeometryCache constructs the cache. A nil client disables caching.
func NewGeometryCache(client *redis.Client, ttl time.Duration) *GeometryCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &GeometryCache{client: client, ttl: ttl}
}

// Get returns the cached geometry for a document, or nil on miss.
func (c *GeometryCache) Get(ctx context.Context, documentID string) (*models.PageGeometry, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, c.key(documentID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("geometry cache get: %w", err)
	}
	var geo models.PageGeometry
	if err := json.Unmarshal(raw, &geo); err != nil {
		return nil, nil
	}
	return &geo, nil
}

// Set stores the geometry for a document.
func (c *GeometryCache) Set(ctx context.Context, documentID string, geo *models.PageGeometry) error {
	if c == nil || c.client == nil || geo == nil {
		return nil
	}
	raw, err := json.Marshal(geo)
	if err != nil {
		return fmt.Errorf("geometry cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(documentID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("geometry cache set: %w", err)
	}
	return nil
}

func (c *GeometryCache) key(documentID string) string {
	return "signet:geometry:" + documentID
}
