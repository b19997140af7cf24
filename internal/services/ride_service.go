package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ridehail/internal/access"
	"ridehail/internal/config"
	"ridehail/internal/domain/entities"
	"ridehail/internal/notify"
	"ridehail/internal/repository"
	"ridehail/pkg/logger"
	"ridehail/pkg/utils"
)

// Notifier receives events after a state change has been stored. Fire must
// not block and must not report failures.
type Notifier interface {
	Fire(event notify.Event)
}

// RideService owns the ride lifecycle. Every operation takes the caller's
// identity explicitly and runs its gate before touching storage.
//
// Go Learning Note — Atomic Transitions:
// Accept and complete never read a ride, change it and write it back. They
// call a conditional storage primitive (AssignDriver, CompleteRide) that
// checks and writes in one step, and only read the ride afterwards to
// explain a rejection.
type RideService struct {
	rides     repository.RideRepository
	users     repository.UserRepository
	notifier  Notifier
	log       logger.ILogger
	paginator paginator
	now       func() time.Time
}

func NewRideService(
	rides repository.RideRepository,
	users repository.UserRepository,
	notifier Notifier,
	log logger.ILogger,
	cfg *config.Config,
) *RideService {
	return &RideService{
		rides:     rides,
		users:     users,
		notifier:  notifier,
		log:       log,
		paginator: newPaginator(cfg.Pagination),
		now:       time.Now,
	}
}

type CreateRideRequest struct {
	Origin        string `json:"origin" form:"origin"`
	Destination   string `json:"destination" form:"destination"`
	TransportType string `json:"transport_type" form:"transport_type"`
}

// DriverInfo is the public part of the assigned driver's account.
type DriverInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// RideView is a ride as presented to clients.
type RideView struct {
	entities.Ride
	DriverInfo  *DriverInfo `json:"driver_info"`
	IsCompleted bool        `json:"is_completed"`
}

type RideStatusView struct {
	ID          string              `json:"id"`
	Status      entities.RideStatus `json:"status"`
	IsCompleted bool                `json:"is_completed"`
}

type DriverDashboard struct {
	Available []*RideView `json:"available"`
	Assigned  []*RideView `json:"assigned"`
}

// CreateRide opens a new ride request for the caller. The web-form entry is
// limited to riders; the API entry only needs an authenticated caller.
func (s *RideService) CreateRide(ctx context.Context, caller *access.Identity, req CreateRideRequest, entry Entry) (*RideView, error) {
	gate := access.Gate(access.Authenticated)
	if entry == EntryForm {
		gate = access.RiderGate
	}
	if err := access.Check(gate, caller); err != nil {
		return nil, err
	}

	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)

	v := &validation{}
	v.require(origin != "", "Origin is required")
	v.require(destination != "", "Destination is required")
	transport, err := entities.ParseTransportType(strings.TrimSpace(req.TransportType))
	v.require(err == nil, "Transport type must be taxi or bike")
	if err := v.err(); err != nil {
		return nil, err
	}

	ride := entities.NewRide(utils.GenerateID(), caller.UserID, origin, destination, transport, s.now())
	if err := s.rides.Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}

	s.log.Info("ride requested",
		logger.String("ride_id", ride.ID),
		logger.String("rider_id", ride.RiderID),
		logger.String("transport", string(ride.TransportType)),
	)
	return s.present(ctx, ride, nil), nil
}

// AcceptRide assigns the caller as the ride's driver. Among any number of
// concurrent calls for the same ride exactly one succeeds.
func (s *RideService) AcceptRide(ctx context.Context, caller *access.Identity, rideID string) (*RideView, error) {
	if err := access.Check(access.DriverGate, caller); err != nil {
		return nil, err
	}
	if caller.Role() != entities.RoleDriver {
		return nil, ErrNotPermitted
	}

	ride, err := s.rides.AssignDriver(ctx, rideID, caller.UserID, s.now())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrRideNotFound
	case errors.Is(err, repository.ErrConflict):
		s.log.Debug("ride accept rejected",
			logger.String("ride_id", rideID),
			logger.String("driver_id", caller.UserID),
			logger.String("status", string(ride.Status)),
		)
		return nil, acceptConflict(ride)
	case err != nil:
		return nil, fmt.Errorf("assign driver: %w", err)
	}

	s.log.Info("ride accepted",
		logger.String("ride_id", ride.ID),
		logger.String("driver_id", ride.DriverID),
	)
	return s.present(ctx, ride, nil), nil
}

func acceptConflict(current *entities.Ride) error {
	reason := entities.ErrInvalidTransition
	switch {
	case current.DriverID != "":
		reason = entities.ErrRideAlreadyAssigned
	case current.Status == entities.RideStatusCompleted:
		reason = entities.ErrRideAlreadyCompleted
	}
	return &ConflictError{Err: reason, Status: current.Status}
}

// CompleteRide closes the ride. Only the ride's rider, while they still pass
// the rider gate, or its assigned driver may do this, and only once. Admins
// are notified afterwards on a best-effort basis.
func (s *RideService) CompleteRide(ctx context.Context, caller *access.Identity, rideID string) (*RideView, error) {
	if err := access.Check(access.Authenticated, caller); err != nil {
		return nil, err
	}

	current, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !mayComplete(caller, current) {
		return nil, ErrNotPermitted
	}

	ride, err := s.rides.CompleteRide(ctx, rideID, s.now())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrRideNotFound
	case errors.Is(err, repository.ErrConflict):
		reason := entities.ErrInvalidTransition
		if ride.IsCompleted() {
			reason = entities.ErrRideAlreadyCompleted
		}
		return nil, &ConflictError{Err: reason, Status: ride.Status}
	case err != nil:
		return nil, fmt.Errorf("complete ride: %w", err)
	}

	s.log.Info("ride completed",
		logger.String("ride_id", ride.ID),
		logger.String("completed_by", caller.UserID),
	)

	view := s.present(ctx, ride, nil)
	s.notifier.Fire(s.completionEvent(ctx, view, caller))
	return view, nil
}

// mayComplete admits the driver the ride is assigned to, and the ride's own
// rider only through the rider gate. A ride opened through the API entry by
// a non-rider can't be closed by its creator.
func mayComplete(caller *access.Identity, ride *entities.Ride) bool {
	switch {
	case ride.DriverID != "" && caller.UserID == ride.DriverID:
		return true
	case caller.UserID == ride.RiderID:
		return access.RiderGate(caller)
	}
	return false
}

// completionEvent builds the admin summary. Lookup failures only leave
// fields blank.
func (s *RideService) completionEvent(ctx context.Context, view *RideView, caller *access.Identity) notify.RideCompleted {
	event := notify.RideCompleted{
		RideID:      view.ID,
		CompletedBy: caller.Username,
		Rider:       view.RiderID,
		Origin:      view.Origin,
		Destination: view.Destination,
		RequestedAt: view.RequestedAt,
	}
	if view.CompletedAt != nil {
		event.CompletedAt = *view.CompletedAt
	}
	if rider, err := s.users.GetByID(ctx, view.RiderID); err == nil {
		event.Rider = rider.Username
	} else {
		s.log.Warning("rider lookup for notification failed", logger.String("ride_id", view.ID), logger.Error(err))
	}
	if view.DriverInfo != nil {
		event.DriverName = view.DriverInfo.FullName
		if event.DriverName == "" {
			event.DriverName = view.DriverInfo.Username
		}
		event.DriverPhone = view.DriverInfo.Phone
	}
	return event
}

// RideStatus is open to any authenticated caller.
func (s *RideService) RideStatus(ctx context.Context, caller *access.Identity, rideID string) (*RideStatusView, error) {
	if err := access.Check(access.Authenticated, caller); err != nil {
		return nil, err
	}
	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	return &RideStatusView{ID: ride.ID, Status: ride.Status, IsCompleted: ride.IsCompleted()}, nil
}

func (s *RideService) GetRide(ctx context.Context, caller *access.Identity, rideID string) (*RideView, error) {
	if err := access.Check(access.Authenticated, caller); err != nil {
		return nil, err
	}
	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, ride, nil), nil
}

func (s *RideService) ListRides(ctx context.Context, caller *access.Identity, req PageRequest) (*PageResult[*RideView], error) {
	if err := access.Check(access.Authenticated, caller); err != nil {
		return nil, err
	}
	req, page := s.paginator.window(req)
	rides, total, err := s.rides.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list rides: %w", err)
	}
	return s.page(ctx, req, rides, total), nil
}

// ListAvailable returns unassigned requested rides. Any authenticated caller
// may list them, not only drivers.
func (s *RideService) ListAvailable(ctx context.Context, caller *access.Identity, req PageRequest) (*PageResult[*RideView], error) {
	if err := access.Check(access.Authenticated, caller); err != nil {
		return nil, err
	}
	req, page := s.paginator.window(req)
	rides, total, err := s.rides.ListAvailable(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list available rides: %w", err)
	}
	return s.page(ctx, req, rides, total), nil
}

// RiderDashboard lists the caller's own rides, newest first.
func (s *RideService) RiderDashboard(ctx context.Context, caller *access.Identity) ([]*RideView, error) {
	if err := access.Check(access.RiderGate, caller); err != nil {
		return nil, err
	}
	rides, err := s.rides.ListByRider(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list rider rides: %w", err)
	}
	return s.presentAll(ctx, rides), nil
}

// DriverDashboard shows the rides a driver could take next and the ones
// already assigned to them.
func (s *RideService) DriverDashboard(ctx context.Context, caller *access.Identity) (*DriverDashboard, error) {
	if err := access.Check(access.DriverGate, caller); err != nil {
		return nil, err
	}
	_, page := s.paginator.window(PageRequest{PageSize: s.paginator.maxSize})
	available, _, err := s.rides.ListAvailable(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list available rides: %w", err)
	}
	assigned, err := s.rides.ListByDriver(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list driver rides: %w", err)
	}
	return &DriverDashboard{
		Available: s.presentAll(ctx, available),
		Assigned:  s.presentAll(ctx, assigned),
	}, nil
}

func (s *RideService) getRide(ctx context.Context, rideID string) (*entities.Ride, error) {
	ride, err := s.rides.GetByID(ctx, rideID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ride: %w", err)
	}
	return ride, nil
}

func (s *RideService) page(ctx context.Context, req PageRequest, rides []*entities.Ride, total int) *PageResult[*RideView] {
	return &PageResult[*RideView]{
		Count:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Results:  s.presentAll(ctx, rides),
	}
}

func (s *RideService) presentAll(ctx context.Context, rides []*entities.Ride) []*RideView {
	cache := map[string]*DriverInfo{}
	views := make([]*RideView, 0, len(rides))
	for _, ride := range rides {
		views = append(views, s.present(ctx, ride, cache))
	}
	return views
}

// present attaches driver_info. cache may be nil.
func (s *RideService) present(ctx context.Context, ride *entities.Ride, cache map[string]*DriverInfo) *RideView {
	view := &RideView{Ride: *ride, IsCompleted: ride.IsCompleted()}
	if ride.DriverID == "" {
		return view
	}
	if info, ok := cache[ride.DriverID]; ok {
		view.DriverInfo = info
		return view
	}

	info := &DriverInfo{ID: ride.DriverID}
	if user, err := s.users.GetByID(ctx, ride.DriverID); err == nil {
		info.Username = user.Username
	}
	if profile, err := s.users.GetProfile(ctx, ride.DriverID); err == nil {
		info.FullName = profile.FullName
		info.Phone = profile.Phone
	}
	if cache != nil {
		cache[ride.DriverID] = info
	}
	view.DriverInfo = info
	return view
}
