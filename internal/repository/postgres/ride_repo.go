package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
	"ridehail/pkg/logger"
)

type RideRepository struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewRideRepository(db *pgxpool.Pool, log logger.ILogger) *RideRepository {
	return &RideRepository{db: db, log: log}
}

const rideColumns = `id, rider_id, driver_id, origin, destination, transport_type, status,
	requested_at, assigned_at, completed_at`

func scanRide(row pgx.Row) (*entities.Ride, error) {
	var (
		ride      entities.Ride
		driverID  *string
		transport string
		status    string
	)
	err := row.Scan(
		&ride.ID, &ride.RiderID, &driverID, &ride.Origin, &ride.Destination, &transport, &status,
		&ride.RequestedAt, &ride.AssignedAt, &ride.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if driverID != nil {
		ride.DriverID = *driverID
	}
	ride.TransportType = entities.TransportType(transport)
	ride.Status = entities.RideStatus(status)
	return &ride, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *RideRepository) Create(ctx context.Context, ride *entities.Ride) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO ride_requests (`+rideColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ride.ID, ride.RiderID, nullable(ride.DriverID), ride.Origin, ride.Destination,
		string(ride.TransportType), string(ride.Status), ride.RequestedAt, ride.AssignedAt, ride.CompletedAt,
	)
	if err != nil {
		r.log.Error("failed to create ride", logger.Error(err))
		return err
	}
	return nil
}

func (r *RideRepository) GetByID(ctx context.Context, id string) (*entities.Ride, error) {
	return scanRide(r.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM ride_requests WHERE id = $1`, id))
}

func (r *RideRepository) List(ctx context.Context, page repository.Page) ([]*entities.Ride, int, error) {
	return r.listPage(ctx, `TRUE`, page)
}

func (r *RideRepository) ListAvailable(ctx context.Context, page repository.Page) ([]*entities.Ride, int, error) {
	return r.listPage(ctx, `status = 'requested' AND driver_id IS NULL`, page)
}

func (r *RideRepository) ListByRider(ctx context.Context, riderID string) ([]*entities.Ride, error) {
	return r.query(ctx, `SELECT `+rideColumns+` FROM ride_requests
		WHERE rider_id = $1 ORDER BY requested_at DESC, id DESC`, riderID)
}

func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*entities.Ride, error) {
	return r.query(ctx, `SELECT `+rideColumns+` FROM ride_requests
		WHERE driver_id = $1 ORDER BY requested_at DESC, id DESC`, driverID)
}

// listPage runs a filtered, newest-first page plus its total count. where is
// always a constant from this file.
func (r *RideRepository) listPage(ctx context.Context, where string, page repository.Page) ([]*entities.Ride, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM ride_requests WHERE `+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count rides: %w", err)
	}

	// LIMIT NULL means no limit.
	var limit *int
	if page.Limit > 0 {
		limit = &page.Limit
	}
	rides, err := r.query(ctx, `SELECT `+rideColumns+` FROM ride_requests WHERE `+where+`
		ORDER BY requested_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, max(page.Offset, 0))
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}

func (r *RideRepository) query(ctx context.Context, sql string, args ...any) ([]*entities.Ride, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		r.log.Error("failed to list rides", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	rides := []*entities.Ride{}
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

func (r *RideRepository) AssignDriver(ctx context.Context, rideID, driverID string, at time.Time) (*entities.Ride, error) {
	ride, err := scanRide(r.db.QueryRow(ctx, `
		UPDATE ride_requests
		SET driver_id = $2, status = 'assigned', assigned_at = $3
		WHERE id = $1 AND driver_id IS NULL AND status = 'requested'
		RETURNING `+rideColumns,
		rideID, driverID, at,
	))
	if errors.Is(err, repository.ErrNotFound) {
		return r.rejected(ctx, rideID)
	}
	return ride, err
}

func (r *RideRepository) CompleteRide(ctx context.Context, rideID string, at time.Time) (*entities.Ride, error) {
	ride, err := scanRide(r.db.QueryRow(ctx, `
		UPDATE ride_requests
		SET status = 'completed', completed_at = $2
		WHERE id = $1 AND status IN ('requested', 'assigned')
		RETURNING `+rideColumns,
		rideID, at,
	))
	if errors.Is(err, repository.ErrNotFound) {
		return r.rejected(ctx, rideID)
	}
	return ride, err
}

// rejected tells a missing ride apart from a failed guard after a
// conditional update matched no row.
func (r *RideRepository) rejected(ctx context.Context, rideID string) (*entities.Ride, error) {
	current, err := r.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	return current, repository.ErrConflict
}

func (r *RideRepository) CompleteMany(ctx context.Context, rideIDs []string, at time.Time) (int, error) {
	res, err := r.db.Exec(ctx, `
		UPDATE ride_requests
		SET status = 'completed', completed_at = $2
		WHERE id = ANY($1) AND status IN ('requested', 'assigned')`,
		rideIDs, at,
	)
	if err != nil {
		return 0, fmt.Errorf("complete rides: %w", err)
	}
	return int(res.RowsAffected()), nil
}
