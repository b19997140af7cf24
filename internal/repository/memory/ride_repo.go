package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ridehail/internal/domain/entities"
	"ridehail/internal/repository"
)

// RideRepository stores rides in memory. Stored rides are never handed out
// directly: every read returns a clone, so callers can't mutate shared state
// outside the lock.
//
// Go Learning Note — Compare-and-Set Under a Mutex:
// AssignDriver and CompleteRide check their guard and write the new state
// while holding the write lock. Two drivers racing for the same ride are
// serialized here, so exactly one of them sees an unassigned ride.
type RideRepository struct {
	mu    sync.RWMutex
	rides map[string]*entities.Ride
}

func NewRideRepository() *RideRepository {
	return &RideRepository{
		rides: make(map[string]*entities.Ride),
	}
}

func (r *RideRepository) Create(ctx context.Context, ride *entities.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rides[ride.ID] = ride.Clone()
	return nil
}

func (r *RideRepository) GetByID(ctx context.Context, id string) (*entities.Ride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ride, exists := r.rides[id]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return ride.Clone(), nil
}

func (r *RideRepository) List(ctx context.Context, page repository.Page) ([]*entities.Ride, int, error) {
	rides := r.filter(func(*entities.Ride) bool { return true })
	return paginate(rides, page), len(rides), nil
}

func (r *RideRepository) ListAvailable(ctx context.Context, page repository.Page) ([]*entities.Ride, int, error) {
	rides := r.filter((*entities.Ride).IsAvailable)
	return paginate(rides, page), len(rides), nil
}

// ListByRider returns all rides for a given rider, newest first.
// This is an O(n) scan; the postgres backend uses an index instead.
func (r *RideRepository) ListByRider(ctx context.Context, riderID string) ([]*entities.Ride, error) {
	return r.filter(func(ride *entities.Ride) bool { return ride.RiderID == riderID }), nil
}

func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*entities.Ride, error) {
	return r.filter(func(ride *entities.Ride) bool { return ride.DriverID == driverID }), nil
}

func (r *RideRepository) AssignDriver(ctx context.Context, rideID, driverID string, at time.Time) (*entities.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, exists := r.rides[rideID]
	if !exists {
		return nil, repository.ErrNotFound
	}
	if !ride.IsAvailable() {
		return ride.Clone(), repository.ErrConflict
	}
	if err := ride.AssignDriver(driverID, at); err != nil {
		return ride.Clone(), repository.ErrConflict
	}
	return ride.Clone(), nil
}

func (r *RideRepository) CompleteRide(ctx context.Context, rideID string, at time.Time) (*entities.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, exists := r.rides[rideID]
	if !exists {
		return nil, repository.ErrNotFound
	}
	if err := ride.Complete(at); err != nil {
		return ride.Clone(), repository.ErrConflict
	}
	return ride.Clone(), nil
}

func (r *RideRepository) CompleteMany(ctx context.Context, rideIDs []string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed := 0
	for _, id := range rideIDs {
		ride, exists := r.rides[id]
		if !exists {
			continue
		}
		if err := ride.Complete(at); err == nil {
			changed++
		}
	}
	return changed, nil
}

// filter collects clones of the matching rides, newest first.
func (r *RideRepository) filter(keep func(*entities.Ride) bool) []*entities.Ride {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rides []*entities.Ride
	for _, ride := range r.rides {
		if keep(ride) {
			rides = append(rides, ride.Clone())
		}
	}
	sort.Slice(rides, func(i, j int) bool {
		if rides[i].RequestedAt.Equal(rides[j].RequestedAt) {
			return rides[i].ID > rides[j].ID
		}
		return rides[i].RequestedAt.After(rides[j].RequestedAt)
	})
	return rides
}

// paginate slices an already ordered listing. A non-positive limit returns
// everything after the offset.
func paginate[T any](items []T, page repository.Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	end := len(items)
	if page.Limit > 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	return items[page.Offset:end]
}
