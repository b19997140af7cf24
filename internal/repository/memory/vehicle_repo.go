package memory

import (
	"context"
	"sort"
	"sync"

	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
)

type VehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*entities.Vehicle
}

func NewVehicleRepository() *VehicleRepository {
	return &VehicleRepository{
		vehicles: make(map[string]*entities.Vehicle),
	}
}

func (r *VehicleRepository) Create(ctx context.Context, vehicle *entities.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := *vehicle
	r.vehicles[vehicle.ID] = &v
	return nil
}

func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*entities.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vehicle, exists := r.vehicles[id]
	if !exists {
		return nil, repository.ErrNotFound
	}
	v := *vehicle
	return &v, nil
}

func (r *VehicleRepository) List(ctx context.Context, page repository.Page) ([]*entities.Vehicle, int, error) {
	r.mu.RLock()
	vehicles := make([]*entities.Vehicle, 0, len(r.vehicles))
	for _, vehicle := range r.vehicles {
		v := *vehicle
		vehicles = append(vehicles, &v)
	}
	r.mu.RUnlock()

	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].ID < vehicles[j].ID })
	return paginate(vehicles, page), len(vehicles), nil
}

func (r *VehicleRepository) Update(ctx context.Context, vehicle *entities.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.vehicles[vehicle.ID]; !exists {
		return repository.ErrNotFound
	}
	v := *vehicle
	r.vehicles[vehicle.ID] = &v
	return nil
}

func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.vehicles[id]; !exists {
		return repository.ErrNotFound
	}
	delete(r.vehicles, id)
	return nil
}
