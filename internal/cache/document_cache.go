package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"finance-doc-analyzer/internal/model"
)

// fillScript stores a view only when no invalidation happened at or after the
// moment the view was read from the database.
var fillScript = redisv9.NewScript(`
local inv = redis.call('GET', KEYS[2])
if inv and tonumber(inv) >= tonumber(ARGV[2]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// DocumentCache keeps rendered document views for a short TTL.
type DocumentCache struct {
	client *redisv9.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewDocumentCache(client *redisv9.Client, ttl time.Duration) *DocumentCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &DocumentCache{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *DocumentCache) Get(ctx context.Context, id string) (*model.Document, bool, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get document failed: %w", err)
	}

	var doc model.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached document failed: %w", err)
	}
	return &doc, true, nil
}

// Set fills the cache with a view read from the database at readAt. The fill
// is dropped when the document was invalidated after that read.
func (c *DocumentCache) Set(ctx context.Context, doc *model.Document, readAt time.Time) (bool, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("marshal document cache failed: %w", err)
	}
	stored, err := fillScript.Run(ctx, c.client,
		[]string{c.key(doc.ID), c.invalidatedKey(doc.ID)},
		payload, readAt.UnixNano(), c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis set document failed: %w", err)
	}
	return stored == 1, nil
}

// Delete drops the view and records the invalidation time for one TTL.
func (c *DocumentCache) Delete(ctx context.Context, id string) error {
	stamp := strconv.FormatInt(c.now().UnixNano(), 10)
	_, err := c.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Set(ctx, c.invalidatedKey(id), stamp, c.ttl)
		pipe.Del(ctx, c.key(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete document failed: %w", err)
	}
	return nil
}

func (c *DocumentCache) key(id string) string {
	return fmt.Sprintf("document:view:%s", id)
}

func (c *DocumentCache) invalidatedKey(id string) string {
	return fmt.Sprintf("document:invalidated:%s", id)
}
