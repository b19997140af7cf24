package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ridehail/internal/access"
	"ridehail/internal/config"
	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
	"ridehail/pkg/logger"
	"ridehail/pkg/utils"
)

// VehicleService is plain CRUD over ownership records. Any authenticated
// caller may use it.
type VehicleService struct {
	vehicles  repository.VehicleRepository
	users     repository.UserRepository
	log       logger.ILogger
	paginator paginator
}

func NewVehicleService(
	vehicles repository.VehicleRepository,
	users repository.UserRepository,
	log logger.ILogger,
	cfg *config.Config,
) *VehicleService {
	return &VehicleService{
		vehicles:  vehicles,
		users:     users,
		log:       log,
		paginator: newPaginator(cfg.Pagination),
	}
}

// VehicleRequest is used for create and full update. An empty Owner means
// the caller on create and the current owner on update.
type VehicleRequest struct {
	Owner string `json:"owner"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Plate string `json:"plate"`
}

func (s *VehicleService) Create(ctx context.Context, caller *access.Identity, req VehicleRequest) (*entities.Vehicle, error) {
	if err := access.Check(access.Authenticated, caller); err != nil {
		return nil, err
	}

	vehicle := &entities.Vehicle{ID: utils.GenerateID()}
	if err := s.apply(ctx, vehicle, req, caller.UserID); err != nil {
		return nil, err
	}
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}

	s.log.Info("vehicle registered", logger.String("vehicle_id", vehicle.ID), logger.String("owner_id", vehicle.OwnerID))
	return vehicle, nil
}

func (s *VehicleService) Get(ctx context.Context, caller *access.Identity, id string) (*entities.Vehicle, error) {
	if err := access.Check(access.Authenticated, caller); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

func (s *VehicleService) List(ctx context.Context, caller *access.Identity, req PageRequest) (*PageResult[*entities.Vehicle], error) {
	if err := access.Check(access.Authenticated, caller); err != nil {
		return nil, err
	}
	req, page := s.paginator.window(req)
	vehicles, total, err := s.vehicles.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return &PageResult[*entities.Vehicle]{Count: total, Page: req.Page, PageSize: req.PageSize, Results: vehicles}, nil
}

func (s *VehicleService) Update(ctx context.Context, caller *access.Identity, id string, req VehicleRequest) (*entities.Vehicle, error) {
	if err := access.Check(access.Authenticated, caller); err != nil {
		return nil, err
	}
	vehicle, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, vehicle, req, vehicle.OwnerID); err != nil {
		return nil, err
	}
	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("update vehicle: %w", err)
	}
	return vehicle, nil
}

func (s *VehicleService) Delete(ctx context.Context, caller *access.Identity, id string) error {
	if err := access.Check(access.Authenticated, caller); err != nil {
		return err
	}
	err := s.vehicles.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrVehicleNotFound
	}
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	s.log.Info("vehicle deleted", logger.String("vehicle_id", id))
	return nil
}

func (s *VehicleService) get(ctx context.Context, id string) (*entities.Vehicle, error) {
	vehicle, err := s.vehicles.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return vehicle, nil
}

// apply validates req and copies it onto vehicle.
func (s *VehicleService) apply(ctx context.Context, vehicle *entities.Vehicle, req VehicleRequest, defaultOwner string) error {
	owner := strings.TrimSpace(req.Owner)
	if owner == "" {
		owner = defaultOwner
	}
	vehicleMake := strings.TrimSpace(req.Make)

	v := &validation{}
	v.require(vehicleMake != "", "Make is required")
	if _, err := s.users.GetByID(ctx, owner); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("get owner: %w", err)
		}
		v.messages = append(v.messages, "Owner does not exist")
	}
	if err := v.err(); err != nil {
		return err
	}

	vehicle.OwnerID = owner
	vehicle.Make = vehicleMake
	vehicle.Model = strings.TrimSpace(req.Model)
	vehicle.Plate = strings.TrimSpace(req.Plate)
	return nil
}
