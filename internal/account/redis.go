// Package account reads shopper cart, wishlist and order state. The
// assistant never writes account state.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-assistant/internal/model"
)

// Key layout shared with the storefront:
//
//	account:{user}:cart      list of JSON CartItem
//	account:{user}:wishlist  list of JSON WishlistItem
//	account:{user}:orders    zset of order ids scored by creation time
//	order:{id}               hash with the order fields
func cartKey(user string) string     { return "account:" + user + ":cart" }
func wishlistKey(user string) string { return "account:" + user + ":wishlist" }
func ordersKey(user string) string   { return "account:" + user + ":orders" }
func orderKey(id int64) string       { return "order:" + strconv.FormatInt(id, 10) }

// Redis serves account state from the storefront's Redis.
type Redis struct {
	rdb redis.Cmdable
}

// NewRedis wraps a go-redis client.
func NewRedis(rdb redis.Cmdable) *Redis {
	return &Redis{rdb: rdb}
}

// Cart returns the caller's cart items in insertion order.
func (r *Redis) Cart(ctx context.Context, userID string) ([]model.CartItem, error) {
	// redis/go-redis/v9: LRange over the whole list.
	raw, err := r.rdb.LRange(ctx, cartKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read cart %s: %w", userID, err)
	}
	return decodeList[model.CartItem](raw)
}

// Wishlist returns the caller's wishlist items in insertion order.
func (r *Redis) Wishlist(ctx context.Context, userID string) ([]model.WishlistItem, error) {
	raw, err := r.rdb.LRange(ctx, wishlistKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read wishlist %s: %w", userID, err)
	}
	return decodeList[model.WishlistItem](raw)
}

// Order returns the caller's order with the given id. Orders owned by someone
// else are reported as missing.
func (r *Redis) Order(ctx context.Context, userID string, orderID int64) (*model.Order, error) {
	// redis/go-redis/v9: HGetAll returns an empty map for a missing key.
	fields, err := r.rdb.HGetAll(ctx, orderKey(orderID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read order %d: %w", orderID, err)
	}
	if len(fields) == 0 || fields["user_id"] != userID {
		return nil, nil
	}
	return parseOrder(orderID, fields)
}

// LatestOrder returns the caller's most recent order, or nil.
func (r *Redis) LatestOrder(ctx context.Context, userID string) (*model.Order, error) {
	// redis/go-redis/v9: ZRevRange 0..0 is the highest score, i.e. the newest order.
	ids, err := r.rdb.ZRevRange(ctx, ordersKey(userID), 0, 0).Result()
	if errors.Is(err, redis.Nil) || (err == nil && len(ids) == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read orders %s: %w", userID, err)
	}
	id, err := strconv.ParseInt(ids[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("order id %q: %w", ids[0], err)
	}
	return r.Order(ctx, userID, id)
}

func decodeList[T any](raw []string) ([]T, error) {
	out := make([]T, 0, len(raw))
	for _, s := range raw {
		var v T
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("decode account item: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseOrder builds an order from its hash fields. Timestamps are RFC3339.
func parseOrder(id int64, f map[string]string) (*model.Order, error) {
	o := &model.Order{
		ID:            id,
		Status:        f["status"],
		PaymentID:     f["payment_id"],
		PaymentStatus: f["payment_status"],
	}
	if v := f["amount"]; v != "" {
		amount, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("order %d amount %q: %w", id, v, err)
		}
		o.Amount = amount
	}
	if v := f["created_at"]; v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("order %d created_at %q: %w", id, v, err)
		}
		o.CreatedAt = t
	}
	if v := f["expected_delivery"]; v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("order %d expected_delivery %q: %w", id, v, err)
		}
		o.ExpectedDelivery = &t
	}
	return o, nil
}
