package testutil

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// Postgres is a running PostgreSQL testcontainer.
type Postgres struct {
	DSN       string
	container *postgres.PostgresContainer
}

// StartPostgres starts PostgreSQL 16 with the postgres module's basic wait
// strategies (ready log twice plus port check).
func StartPostgres(ctx context.Context) (*Postgres, error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("getting connection string: %w", err)
	}

	return &Postgres{DSN: dsn, container: container}, nil
}

// Terminate stops and removes the container.
func (p *Postgres) Terminate() error {
	return testcontainers.TerminateContainer(p.container)
}
