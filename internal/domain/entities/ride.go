package entities

import (
	"errors"
	"fmt"
	"time"
)

// RideStatus represents the current lifecycle state of a ride request.
//
// Go Learning Note — State Machines in Go:
// The ride's lifecycle is modelled as a map of valid transitions:
//
//	Requested → Assigned → Completed
//	    ↘ Completed  (the rider may close a ride nobody picked up)
//
// Cancelled is a declared terminal state, but no operation moves a ride there.
type RideStatus string

const (
	RideStatusRequested RideStatus = "requested"
	RideStatusAssigned  RideStatus = "assigned"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

// TransportType is the kind of vehicle a rider asks for.
type TransportType string

const (
	TransportTaxi TransportType = "taxi"
	TransportBike TransportType = "bike"
)

// ParseTransportType maps user input to a TransportType. An empty value
// defaults to taxi.
func ParseTransportType(s string) (TransportType, error) {
	switch TransportType(s) {
	case "":
		return TransportTaxi, nil
	case TransportTaxi, TransportBike:
		return TransportType(s), nil
	}
	return "", fmt.Errorf("unknown transport type %q", s)
}

var (
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrRideAlreadyAssigned  = errors.New("ride already assigned")
	ErrRideAlreadyCompleted = errors.New("ride already completed")
)

// validTransitions is the state machine. Terminal states have empty slices.
var validTransitions = map[RideStatus][]RideStatus{
	RideStatusRequested: {RideStatusAssigned, RideStatusCompleted},
	RideStatusAssigned:  {RideStatusCompleted},
	RideStatusCompleted: {},
	RideStatusCancelled: {},
}

// Ride is the central domain entity. DriverID is empty until a driver accepts;
// AssignedAt and CompletedAt stay nil until their transition happens.
type Ride struct {
	ID            string        `json:"id"`
	RiderID       string        `json:"rider"`
	DriverID      string        `json:"driver,omitempty"`
	Origin        string        `json:"origin"`
	Destination   string        `json:"destination"`
	TransportType TransportType `json:"transport_type"`
	Status        RideStatus    `json:"status"`
	RequestedAt   time.Time     `json:"requested_at"`
	AssignedAt    *time.Time    `json:"assigned_at"`
	CompletedAt   *time.Time    `json:"completed_at"`
}

// NewRide creates a Ride in the Requested state with no driver.
func NewRide(id, riderID, origin, destination string, transport TransportType, requestedAt time.Time) *Ride {
	return &Ride{
		ID:            id,
		RiderID:       riderID,
		Origin:        origin,
		Destination:   destination,
		TransportType: transport,
		Status:        RideStatusRequested,
		RequestedAt:   requestedAt,
	}
}

// CanTransitionTo checks if moving to newStatus is a valid state change.
func (r *Ride) CanTransitionTo(newStatus RideStatus) bool {
	allowedStatuses, exists := validTransitions[r.Status]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo moves the ride to newStatus and stamps the milestone
// timestamp for it.
func (r *Ride) TransitionTo(newStatus RideStatus, at time.Time) error {
	if !r.CanTransitionTo(newStatus) {
		return fmt.Errorf("%w from %s to %s", ErrInvalidTransition, r.Status, newStatus)
	}
	r.Status = newStatus

	switch newStatus {
	case RideStatusAssigned:
		r.AssignedAt = &at
	case RideStatusCompleted:
		r.CompletedAt = &at
	}
	return nil
}

// AssignDriver claims the ride for driverID. It fails with
// ErrRideAlreadyAssigned when some driver already holds it.
func (r *Ride) AssignDriver(driverID string, at time.Time) error {
	if r.DriverID != "" {
		return ErrRideAlreadyAssigned
	}
	if err := r.TransitionTo(RideStatusAssigned, at); err != nil {
		return err
	}
	r.DriverID = driverID
	return nil
}

// Complete closes the ride. Completing twice returns ErrRideAlreadyCompleted
// and leaves CompletedAt untouched.
func (r *Ride) Complete(at time.Time) error {
	if r.Status == RideStatusCompleted {
		return ErrRideAlreadyCompleted
	}
	return r.TransitionTo(RideStatusCompleted, at)
}

func (r *Ride) IsCompleted() bool {
	return r.Status == RideStatusCompleted
}

// IsAvailable reports whether a driver could still accept the ride.
func (r *Ride) IsAvailable() bool {
	return r.Status == RideStatusRequested && r.DriverID == ""
}

// Clone returns a deep copy so stores can hand out rides without sharing the
// timestamp pointers.
func (r *Ride) Clone() *Ride {
	c := *r
	if r.AssignedAt != nil {
		t := *r.AssignedAt
		c.AssignedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
