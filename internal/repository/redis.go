package repository

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/SergeiKhy/link-shortener/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	redisPingTimeout  = 5 * time.Second
	redisDialTimeout  = 3 * time.Second
	redisIOTimeout    = time.Second
	redisMinIdleConns = 10
)

// RedisDB обёртка над клиентом кэша редиректов
type RedisDB struct {
	Client *redis.Client
}

// redisOptions собирает параметры клиента из конфига
func redisOptions(cfg config.RedisConfig) *redis.Options {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10 * redisMinIdleConns
	}

	return &redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		MinIdleConns: redisMinIdleConns,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  redisIOTimeout,
		WriteTimeout: redisIOTimeout,
	}
}

// NewRedisClient подключается к Redis и проверяет соединение
func NewRedisClient(cfg config.RedisConfig) (*RedisDB, error) {
	opts := redisOptions(cfg)
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s (db %d): %w", opts.Addr, opts.DB, err)
	}

	return &RedisDB{Client: client}, nil
}

func (db *RedisDB) Close() error {
	return db.Client.Close()
}
