package store

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/justanuragmaurya/chat-app/core"
	"github.com/justanuragmaurya/chat-app/store/memory"
	redisstore "github.com/justanuragmaurya/chat-app/store/redis"
	"github.com/justanuragmaurya/chat-app/store/sqlite"
)

// Backend kinds accepted by Open.
const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Kind string
	// DSN is the SQLite database path.
	DSN string
	// RedisAddr is the Redis host:port.
	RedisAddr string
	// RedisPrefix namespaces every key.
	RedisPrefix string
}

// Open creates the configured store.
func Open(opts Options) (core.ConversationStore, error) {
	switch opts.Kind {
	case "", KindMemory:
		return memory.New(), nil
	case KindSQLite:
		return sqlite.Open(opts.DSN)
	case KindRedis:
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		return redisstore.New(client, func(o *redisstore.Options) {
			if opts.RedisPrefix != "" {
				o.Prefix = opts.RedisPrefix
			}
			o.OwnsClient = true
		}), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", opts.Kind)
	}
}
