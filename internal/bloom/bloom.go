// Package bloom deduplicates catalog-miss terms with a RedisBloom filter.
package bloom

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// MissesKey is the RedisBloom filter key for unresolved shopper terms.
const MissesKey = "assistant:catalog-misses"

// Doer sends raw commands. *redis.Client and redis.UniversalClient satisfy it;
// redis.Cmdable does not carry Do.
type Doer interface {
	Do(ctx context.Context, args ...any) *redis.Cmd
}

// Filter is a RedisBloom filter. A nil *Filter treats every term as new.
type Filter struct {
	client Doer
	key    string
}

// New returns a filter over key.
func New(client Doer, key string) *Filter {
	return &Filter{client: client, key: key}
}

// Reserve creates the filter with error rate 0.001. It fails harmlessly when
// the filter already exists.
func (f *Filter) Reserve(ctx context.Context, capacity int64) error {
	// RedisBloom (redis/go-redis/v9): BF.RESERVE is a module command, sent through Do.
	if err := f.client.Do(ctx, "BF.RESERVE", f.key, 0.001, capacity).Err(); err != nil {
		return fmt.Errorf("bloom: reserve %s (may already exist): %w", f.key, err)
	}
	return nil
}

// Seen reports whether term was probably added before, and adds it.
// Errors report the term as unseen so callers err on the side of publishing.
func (f *Filter) Seen(ctx context.Context, term string) (bool, error) {
	if f == nil || f.client == nil {
		return false, nil
	}
	// RedisBloom (redis/go-redis/v9): BF.ADD returns 1 when the item was new.
	res := f.client.Do(ctx, "BF.ADD", f.key, term)
	if res.Err() != nil {
		return false, fmt.Errorf("bloom: BF.ADD: %w", res.Err())
	}
	return addedBefore(res)
}

// addedBefore decodes a BF.ADD reply, which is an int (0/1) or a bool
// depending on the server version.
func addedBefore(res *redis.Cmd) (bool, error) {
	val, err := res.Int()
	if err == nil {
		return val == 0, nil
	}
	added, boolErr := res.Bool()
	if boolErr != nil {
		return false, fmt.Errorf("bloom: BF.ADD reply is neither int nor bool: %w", err)
	}
	return !added, nil
}
