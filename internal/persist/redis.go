package persist

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Redis is an Adapter for shared kiosk deployments where several storefront
// processes mirror state into one cache.
type Redis struct {
	client *redis.Client
	prefix string
}

func OpenRedis(addr, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}

func (r *Redis) Save(key string, value []byte) error {
	return r.client.Set(context.Background(), r.key(key), value, 0).Err()
}

func (r *Redis) Load(key string) ([]byte, bool, error) {
	value, err := r.client.Get(context.Background(), r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *Redis) Delete(key string) error {
	return r.client.Del(context.Background(), r.key(key)).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
