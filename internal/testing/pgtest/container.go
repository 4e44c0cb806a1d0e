// Package pgtest starts a throwaway PostgreSQL container for integration tests.
package pgtest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	Image         = "postgres:15-alpine"
	readyLog      = "database system is ready to accept connections"
	startupBudget = 30 * time.Second
)

// Start launches the container and returns its DSN and a stop function.
// A missing or broken Docker daemon yields an empty DSN, never an error, so
// callers can fall back to skipping.
func Start(ctx context.Context) (dsn string, stop func()) {
	stop = func() {}
	defer func() {
		// testcontainers panics when no Docker socket is reachable
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "pgtest: docker unavailable: %v\n", r)
			dsn = ""
		}
	}()

	c, err := postgres.Run(ctx, Image,
		postgres.WithDatabase("labrewards_test"),
		postgres.WithUsername("lab"),
		postgres.WithPassword("lab"),
		testcontainers.WithWaitStrategy(
			wait.ForLog(readyLog).WithOccurrence(2).WithStartupTimeout(startupBudget)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pgtest: container did not start: %v\n", err)
		return "", stop
	}

	dsn, err = c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "pgtest: no connection string: %v\n", err)
		_ = c.Terminate(ctx)
		return "", stop
	}
	return dsn, func() {
		if err := c.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "pgtest: terminate: %v\n", err)
		}
	}
}

// RequireDSN skips t in short mode or when Start produced no DSN
func RequireDSN(t testing.TB, dsn string) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if dsn == "" {
		t.Skip("Skipping integration test: database not available")
	}
}
