package dataset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisList is a Collection whose elements live as JSON-encoded entries
// in a Redis list. Map materializes the list, applies the function, and
// writes the result under a fresh derived key, leaving the source list
// untouched. This keeps collections immutable from the pipeline's point
// of view, at the cost of one list per transformation step.
//
// Elements round-trip through encoding/json, so numbers come back as
// float64 and objects as map[string]any.
type RedisList struct {
	client *redis.Client
	key    string
}

// NewRedisList wraps an existing Redis list as a collection.
// The list is not created or validated here; an absent key behaves as an
// empty collection.
func NewRedisList(client *redis.Client, key string) *RedisList {
	return &RedisList{client: client, key: key}
}

// Key returns the Redis key backing this collection.
func (r *RedisList) Key() string { return r.key }

// Seed replaces the backing list with the given items.
func (r *RedisList) Seed(ctx context.Context, items []any) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("reset list %q: %w", r.key, err)
	}
	if len(items) == 0 {
		return nil
	}
	encoded := make([]interface{}, len(items))
	for i, x := range items {
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Errorf("encode element %d: %w", i, err)
		}
		encoded[i] = data
	}
	if err := r.client.RPush(ctx, r.key, encoded...).Err(); err != nil {
		return fmt.Errorf("seed list %q: %w", r.key, err)
	}
	return nil
}

// Map applies fn to every element and stores the result under a new key
// derived from the source key. The returned collection is backed by the
// new list.
func (r *RedisList) Map(ctx context.Context, fn MapFunc) (Collection, error) {
	items, err := r.Collect(ctx)
	if err != nil {
		return nil, err
	}

	out := &RedisList{
		client: r.client,
		key:    fmt.Sprintf("%s:map:%s", r.key, uuid.NewString()),
	}
	mapped := make([]any, len(items))
	for i, x := range items {
		y, err := fn(x)
		if err != nil {
			return nil, err
		}
		mapped[i] = y
	}
	if err := out.Seed(ctx, mapped); err != nil {
		return nil, err
	}
	return out, nil
}

// Collect reads and decodes the whole list in order.
func (r *RedisList) Collect(ctx context.Context) ([]any, error) {
	raw, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read list %q: %w", r.key, err)
	}
	out := make([]any, len(raw))
	for i, entry := range raw {
		var x any
		if err := json.Unmarshal([]byte(entry), &x); err != nil {
			return nil, fmt.Errorf("decode element %d of %q: %w", i, r.key, err)
		}
		out[i] = x
	}
	return out, nil
}

// Ensure RedisList implements Collection.
var _ Collection = (*RedisList)(nil)
