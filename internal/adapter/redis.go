package adapter

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var (
	clients = make(map[int]*redis.Client)
	once    sync.Once
)

// InitRedisClients opens one client per logical database in dbs.
func InitRedisClients(ctx context.Context, addr string, password string, dbs ...int) error {
	if addr == "" {
		return errors.New("Redis host is empty")
	}

	var initError error
	once.Do(func() {
		for _, db := range dbs {
			client := redis.NewClient(&redis.Options{
				Addr:     addr,
				Password: password,
				DB:       db,
			})

			// Ping the Redis server to check the connection
			if _, err := client.Ping(ctx).Result(); err != nil {
				initError = errors.Wrapf(err, "failed to connect to Redis DB %d", db)
				return
			}

			clients[db] = client
		}
	})

	return initError
}

func GetRedisClient(db int) (*redis.Client, error) {
	client, exists := clients[db]
	if !exists {
		return nil, errors.Errorf("redis client for DB %d is not initialized. call InitRedisClients first", db)
	}
	return client, nil
}

func CloseRedisClients() {
	for db, client := range clients {
		client.Close()
		delete(clients, db)
	}
}
