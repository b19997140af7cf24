package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
	"ridehail/pkg/logger"
)

type VehicleRepository struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewVehicleRepository(db *pgxpool.Pool, log logger.ILogger) *VehicleRepository {
	return &VehicleRepository{db: db, log: log}
}

func (r *VehicleRepository) Create(ctx context.Context, v *entities.Vehicle) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO vehicles (id, owner_id, make, model, plate) VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.OwnerID, v.Make, v.Model, v.Plate,
	)
	if err != nil {
		r.log.Error("failed to create vehicle", logger.Error(err))
		return err
	}
	return nil
}

func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*entities.Vehicle, error) {
	var v entities.Vehicle
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, make, model, plate FROM vehicles WHERE id = $1`, id,
	).Scan(&v.ID, &v.OwnerID, &v.Make, &v.Model, &v.Plate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepository) List(ctx context.Context, page repository.Page) ([]*entities.Vehicle, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM vehicles`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}

	var limit *int
	if page.Limit > 0 {
		limit = &page.Limit
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, make, model, plate FROM vehicles ORDER BY id LIMIT $1 OFFSET $2`,
		limit, max(page.Offset, 0),
	)
	if err != nil {
		r.log.Error("failed to list vehicles", logger.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	vehicles := []*entities.Vehicle{}
	for rows.Next() {
		var v entities.Vehicle
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Make, &v.Model, &v.Plate); err != nil {
			return nil, 0, err
		}
		vehicles = append(vehicles, &v)
	}
	return vehicles, total, rows.Err()
}

func (r *VehicleRepository) Update(ctx context.Context, v *entities.Vehicle) error {
	res, err := r.db.Exec(ctx,
		`UPDATE vehicles SET owner_id = $2, make = $3, model = $4, plate = $5 WHERE id = $1`,
		v.ID, v.OwnerID, v.Make, v.Model, v.Plate,
	)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
