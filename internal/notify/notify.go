// Package notify delivers admin notifications about ride events. Delivery is
// strictly best-effort: the dispatcher runs every sender in its own goroutine
// with a timeout, and failures are logged, never returned.
//
// Go Learning Note — Fire-and-Forget with a WaitGroup:
// Fire returns immediately, so a slow mail server can never delay an HTTP
// response. The sync.WaitGroup still tracks every in-flight send so that
// main() can call Wait() during graceful shutdown and not lose messages that
// are already on their way.
package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"ridehail/pkg/logger"
)

const KindRideCompleted = "ride.completed"

// RideCompleted is the summary sent to admins when a ride is closed.
type RideCompleted struct {
	RideID      string    `json:"ride_id"`
	CompletedBy string    `json:"completed_by"`
	Rider       string    `json:"rider"`
	DriverName  string    `json:"driver_name,omitempty"`
	DriverPhone string    `json:"driver_phone,omitempty"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	RequestedAt time.Time `json:"requested_at"`
	CompletedAt time.Time `json:"completed_at"`
}

func (e RideCompleted) Kind() string { return KindRideCompleted }

func (e RideCompleted) Subject() string {
	return fmt.Sprintf("Ride %s completed", e.RideID)
}

// Text renders the plain-text body shared by the mail and chat senders.
func (e RideCompleted) Text() string {
	driver := "not assigned"
	if e.DriverName != "" {
		driver = e.DriverName
		if e.DriverPhone != "" {
			driver += " (" + e.DriverPhone + ")"
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Ride ID: %s\n", e.RideID)
	fmt.Fprintf(&b, "Completed by: %s\n", e.CompletedBy)
	fmt.Fprintf(&b, "Rider: %s\n", e.Rider)
	fmt.Fprintf(&b, "Driver: %s\n", driver)
	fmt.Fprintf(&b, "Origin: %s\n", e.Origin)
	fmt.Fprintf(&b, "Destination: %s\n", e.Destination)
	fmt.Fprintf(&b, "Requested at: %s\n", e.RequestedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Completed at: %s\n", e.CompletedAt.Format(time.RFC3339))
	return b.String()
}

// Event is anything a sender can deliver.
type Event interface {
	Kind() string
	Subject() string
	Text() string
}

type Sender interface {
	Name() string
	Send(ctx context.Context, event Event) error
}

type Dispatcher struct {
	senders []Sender
	log     logger.ILogger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(log logger.ILogger, timeout time.Duration, senders ...Sender) *Dispatcher {
	return &Dispatcher{
		senders: senders,
		log:     log,
		timeout: timeout,
	}
}

// Fire hands the event to every sender and returns at once.
func (d *Dispatcher) Fire(event Event) {
	for _, s := range d.senders {
		d.wg.Add(1)
		go d.send(s, event)
	}
}

func (d *Dispatcher) send(s Sender, event Event) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification sender panicked",
				logger.String("sender", s.Name()),
				logger.String("kind", event.Kind()),
				logger.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := s.Send(ctx, event); err != nil {
		d.log.Warning("notification failed",
			logger.String("sender", s.Name()),
			logger.String("kind", event.Kind()),
			logger.Error(err),
		)
		return
	}
	d.log.Debug("notification sent",
		logger.String("sender", s.Name()),
		logger.String("kind", event.Kind()),
	)
}

// Wait blocks until every fired send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close waits for in-flight sends and then closes senders holding
// connections.
func (d *Dispatcher) Close() error {
	d.Wait()
	var firstErr error
	for _, s := range d.senders {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("close %s: %w", s.Name(), err)
			}
		}
	}
	return firstErr
}

// runWithContext runs fn in the background and gives up when ctx expires.
// Used for client libraries that take no context.
func runWithContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
