package account

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb), mr
}

func TestRedis_CartAndWishlist(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedis(t)

	cart, err := r.Cart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart)

	_, err = mr.RPush(cartKey("u1"),
		`{"product_id":1,"title":"Milk","quantity":2,"unit_price":40}`,
		`{"product_id":4,"title":"Banana","quantity":1,"unit_price":30}`,
	)
	require.NoError(t, err)
	_, err = mr.RPush(wishlistKey("u1"), `{"product_id":2,"title":"Paneer","url":"/p/paneer"}`)
	require.NoError(t, err)

	cart, err = r.Cart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart, 2)
	assert.Equal(t, "Milk", cart[0].Title)
	assert.Equal(t, 2, cart[0].Quantity)
	assert.Equal(t, "Banana", cart[1].Title)

	wl, err := r.Wishlist(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, wl, 1)
	assert.Equal(t, "/p/paneer", wl[0].URL)

	other, err := r.Cart(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRedis_CorruptCartItem(t *testing.T) {
	r, mr := newRedis(t)
	_, err := mr.RPush(cartKey("u1"), "not json")
	require.NoError(t, err)

	_, err = r.Cart(context.Background(), "u1")
	assert.Error(t, err)
}

func TestRedis_OrderOwnership(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedis(t)
	mr.HSet(orderKey(42), "user_id", "u1", "status", "Shipped", "amount", "99.5", "payment_id", "pay_42")

	o, err := r.Order(ctx, "u1", 42)
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, int64(42), o.ID)
	assert.Equal(t, "Shipped", o.Status)
	assert.Equal(t, 99.5, o.Amount)

	o, err = r.Order(ctx, "u2", 42)
	require.NoError(t, err)
	assert.Nil(t, o, "another shopper's order reads as missing")

	o, err = r.Order(ctx, "u1", 404)
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestRedis_LatestOrder(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedis(t)

	latest, err := r.LatestOrder(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	mr.HSet(orderKey(1), "user_id", "u1", "status", "Delivered")
	mr.HSet(orderKey(2), "user_id", "u1", "status", "Placed", "created_at", "2024-03-02T09:00:00Z")
	_, err = mr.ZAdd(ordersKey("u1"), 1709200000, "1")
	require.NoError(t, err)
	_, err = mr.ZAdd(ordersKey("u1"), 1709370000, "2")
	require.NoError(t, err)

	latest, err = r.LatestOrder(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(2), latest.ID)
	assert.Equal(t, "Placed", latest.Status)
	assert.Equal(t, 2, latest.CreatedAt.Day())

	_, err = mr.ZAdd(ordersKey("u3"), 1, "abc")
	require.NoError(t, err)
	_, err = r.LatestOrder(ctx, "u3")
	assert.Error(t, err)
}

func TestRedis_ServerDown(t *testing.T) {
	r, mr := newRedis(t)
	mr.Close()

	_, err := r.Cart(context.Background(), "u1")
	assert.Error(t, err)
	_, err = r.LatestOrder(context.Background(), "u1")
	assert.Error(t, err)
}
