package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"

	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"

	"github.com/nidhogg/cogito/internal/repository"
)

// Package-level shared state — set by TestMain, used by all subtests.
var (
	testLogger      *zap.Logger
	testPostgres    *repository.Postgres
	testRedis       *repository.Redis
	testPostgresURL string
)

// startPostgres starts a PostgreSQL testcontainer, returns DSN + cleanup func.
func startPostgres(ctx context.Context) (string, func(), error) {
	container, err := tcpg.Run(ctx, "postgres:16-alpine",
		tcpg.WithDatabase("cogito_test"),
		tcpg.WithUsername("test"),
		tcpg.WithPassword("test"),
		tcpg.BasicWaitStrategies(),
	)
	if err != nil {
		return "", nil, fmt.Errorf("start postgres: %w", err)
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return "", nil, fmt.Errorf("pg connection string: %w", err)
	}
	cleanup := func() { container.Terminate(ctx) }
	return dsn, cleanup, nil
}

// startRedis starts a Redis testcontainer, returns URL + cleanup func.
func startRedis(ctx context.Context) (string, func(), error) {
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return "", nil, fmt.Errorf("start redis: %w", err)
	}
	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		container.Terminate(ctx)
		return "", nil, fmt.Errorf("redis endpoint: %w", err)
	}
	url := "redis://" + endpoint
	cleanup := func() { container.Terminate(ctx) }
	return url, cleanup, nil
}

func skipIfNoPostgres(t *testing.T) {
	t.Helper()
	if testPostgres == nil {
		t.Skip("PostgreSQL container unavailable")
	}
}

func skipIfNoRedis(t *testing.T) {
	t.Helper()
	if testRedis == nil {
		t.Skip("Redis container unavailable")
	}
}

func TestMain(m *testing.M) {
	ctx := context.Background()
	testLogger, _ = zap.NewDevelopment()

	var cleanups []func()

	dsn, pgCleanup, err := startPostgres(ctx)
	if err != nil {
		testLogger.Warn("postgres container unavailable, postgres tests will skip", zap.Error(err))
	} else {
		cleanups = append(cleanups, pgCleanup)
		testPostgresURL = dsn
		if testPostgres, err = repository.NewPostgres(ctx, dsn, testLogger); err != nil {
			testLogger.Warn("postgres repository init failed", zap.Error(err))
		}
	}

	redisURL, redisCleanup, err := startRedis(ctx)
	if err != nil {
		testLogger.Warn("redis container unavailable, redis tests will skip", zap.Error(err))
	} else {
		cleanups = append(cleanups, redisCleanup)
		if testRedis, err = repository.NewRedis(ctx, redisURL, testLogger); err != nil {
			testLogger.Warn("redis repository init failed", zap.Error(err))
		}
	}

	code := m.Run()

	if testPostgres != nil {
		testPostgres.Close()
	}
	if testRedis != nil {
		testRedis.Close()
	}
	for _, cleanup := range cleanups {
		cleanup()
	}
	os.Exit(code)
}
