package repository

import (
	"testing"
	"time"

	"github.com/SergeiKhy/link-shortener/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestRedisOptions(t *testing.T) {
	opts := redisOptions(config.RedisConfig{
		Host:     "cache.local",
		Port:     "6380",
		Password: "secret",
		DB:       2,
		PoolSize: 50,
	})

	assert.Equal(t, "cache.local:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 50, opts.PoolSize)
	assert.Equal(t, time.Second, opts.ReadTimeout)

	// IPv6 адрес оборачивается в скобки
	opts = redisOptions(config.RedisConfig{Host: "::1", Port: "6379"})
	assert.Equal(t, "[::1]:6379", opts.Addr)
	assert.Equal(t, 100, opts.PoolSize)
}
