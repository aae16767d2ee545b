package services

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"palestra/internal/amqp"
	"palestra/internal/cache"
	"palestra/internal/core"
	applog "palestra/internal/log"
)

// Dependencies wires the gym service. Events and ReportCache are optional.
type Dependencies struct {
	Store       Store
	Events      EventPublisher
	ReportCache cache.Cache[core.RevenueReport]
	Clock       Clock
}

// GymService implements every RPC procedure. Mutations validate first,
// then check references, then write once, then publish an event.
type GymService struct {
	store   Store
	events  EventPublisher
	reports cache.Cache[core.RevenueReport]
	clock   Clock
	group   singleflight.Group
	logger  *applog.Logger

	// reportGen counts report invalidations.
	reportGen atomic.Uint64
}

func NewGymService(deps Dependencies) *GymService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &GymService{
		store:   deps.Store,
		events:  deps.Events,
		reports: deps.ReportCache,
		clock:   clock,
		logger:  applog.New(applog.Config{Component: applog.ComponentGym, Handler: slog.Default().Handler()}),
	}
}

func (s *GymService) today() core.Date {
	return core.DateOf(s.clock())
}

// HealthStatus is the healthcheck procedure result.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *GymService) Healthcheck(context.Context) HealthStatus {
	return HealthStatus{Status: "ok", Timestamp: s.clock().UTC()}
}

// invalidateReports drops cached reports. The generation moves first so a
// report query already in flight does not cache a result that predates the
// caller's write.
func (s *GymService) invalidateReports(ctx context.Context) {
	s.reportGen.Add(1)
	if s.reports != nil {
		s.reports.Purge(ctx)
	}
}

// publish sends a domain event. The write it follows has already been
// committed, so failures are only logged.
func (s *GymService) publish(ctx context.Context, eventType amqp.EventType, entityID, memberID int64) {
	if s.events == nil {
		s.logger.DebugContext(ctx, "Event publisher not configured, skipping event",
			applog.FieldEventType, eventType)
		return
	}
	if err := s.events.PublishEvent(ctx, amqp.NewEventMessage(eventType, entityID, memberID)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			applog.FieldEventType, eventType,
			"entity_id", entityID,
			applog.FieldError, err)
	}
}
