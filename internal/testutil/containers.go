// Package testutil запускает контейнеры PostgreSQL и Redis для интеграционных тестов.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/SergeiKhy/link-shortener/internal/config"
	"github.com/SergeiKhy/link-shortener/internal/repository"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SkipIfShort пропускает тест с контейнерами в режиме -short
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// StartPostgres запускает PostgreSQL, применяет миграции и возвращает подключение
func StartPostgres(t *testing.T) *repository.PostgresDB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("shortener"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := repository.NewPostgresDB(config.DBConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "user",
		Password: "password",
		Name:     "shortener",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate())
	return db
}

// StartRedis запускает Redis и возвращает клиент
func StartRedis(t *testing.T) *repository.RedisDB {
	t.Helper()
	ctx := context.Background()

	container, err := redis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := repository.NewRedisClient(config.RedisConfig{
		Host: host,
		Port: port.Port(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}
