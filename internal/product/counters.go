package product

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
)

// RedisCounters implémente les compteurs de vues et de ventes via
// des incréments atomiques Redis. Ce n'est pas un cache : les valeurs
// vivent dans Redis, le catalogue les lit à la demande.
type RedisCounters struct {
	client *redis.Client
}

func NewRedisCounters(client *redis.Client) *RedisCounters {
	return &RedisCounters{client: client}
}

func viewsKey(id gocql.UUID) string { return fmt.Sprintf("product:views:%s", id) }
func salesKey(id gocql.UUID) string { return fmt.Sprintf("product:sales:%s", id) }

func (c *RedisCounters) IncrViews(ctx context.Context, id gocql.UUID) (int64, error) {
	return c.client.Incr(ctx, viewsKey(id)).Result()
}

func (c *RedisCounters) IncrSales(ctx context.Context, id gocql.UUID, qty int) (int64, error) {
	return c.client.IncrBy(ctx, salesKey(id), int64(qty)).Result()
}

func (c *RedisCounters) Views(ctx context.Context, id gocql.UUID) (int64, error) {
	n, err := c.client.Get(ctx, viewsKey(id)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func (c *RedisCounters) Sales(ctx context.Context, id gocql.UUID) (int64, error) {
	n, err := c.client.Get(ctx, salesKey(id)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
