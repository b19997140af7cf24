// Package postgres implements the repository interfaces on PostgreSQL using
// a pgx connection pool.
//
// Go Learning Note — Conditional Updates:
// Accept and complete are single UPDATE statements whose WHERE clause is the
// precondition ("driver_id IS NULL AND status = 'requested'"). Postgres takes
// a row lock for the update, so of two concurrent accepts only one matches
// the row; the other updates nothing and gets pgx.ErrNoRows from RETURNING.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"ridehail/internal/config"
	"ridehail/pkg/logger"
)

type Store struct {
	pool *pgxpool.Pool
	log  logger.ILogger
}

// New connects, pings and, when enabled, applies the embedded migrations.
func New(ctx context.Context, cfg config.PostgresConfig, log logger.ILogger) (*Store, error) {
	store, err := Open(ctx, cfg.PostgresURL(), cfg.Migrate, log)
	if err != nil {
		return nil, err
	}
	log.Info("Postgres connected", logger.String("host", cfg.Host), logger.String("db", cfg.DB))
	return store, nil
}

// Open is New for a ready-made connection URL.
func Open(ctx context.Context, url string, runMigrations bool, log logger.ILogger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		log.Error("error while parsing Postgres config", logger.Error(err))
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error("failed to connect Postgres", logger.Error(err))
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if runMigrations {
		if err := Migrate(url, log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Users() *UserRepository       { return NewUserRepository(s.pool, s.log) }
func (s *Store) Rides() *RideRepository       { return NewRideRepository(s.pool, s.log) }
func (s *Store) Vehicles() *VehicleRepository { return NewVehicleRepository(s.pool, s.log) }
