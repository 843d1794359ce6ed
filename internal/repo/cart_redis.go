package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmarchetti/scanventory/internal/models"
)

// Open carts are kept for a day; an abandoned sale does not linger forever.
const cartTTL = 24 * time.Hour

type RedisCartRepository struct {
	rdb *redis.Client
}

func NewRedisCartRepository(rdb *redis.Client) *RedisCartRepository {
	return &RedisCartRepository{rdb: rdb}
}

func cartKey(id string) string {
	return "cart:" + id
}

func (r *RedisCartRepository) Save(cart models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := r.rdb.Set(ctx, cartKey(cart.ID), data, cartTTL).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (r *RedisCartRepository) Get(id string) (models.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := r.rdb.Get(ctx, cartKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Cart{}, ErrCartNotFound
	}
	if err != nil {
		return models.Cart{}, fmt.Errorf("failed to load cart: %w", err)
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return models.Cart{}, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	return cart, nil
}

func (r *RedisCartRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	deleted, err := r.rdb.Del(ctx, cartKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if deleted == 0 {
		return ErrCartNotFound
	}
	return nil
}
