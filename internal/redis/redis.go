package redis

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// Connect parses the redis URL, opens a client and pings it once so a bad
// address fails at startup instead of on the first publish.
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	log.Printf("[REDIS] Connected: %s db=%d", opt.Addr, opt.DB)
	return client, nil
}
