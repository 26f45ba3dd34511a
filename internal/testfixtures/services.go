package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/crew-scheduler/internal/application"
	"github.com/example/crew-scheduler/internal/persistence/sqlite"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Metrics     application.MetricsRecorder
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with a clock at ReferenceTime
// and assignment ids prefixed "asg".
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("asg")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithMetrics routes service observations to recorder.
func WithMetrics(recorder application.MetricsRecorder) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Metrics = recorder
	}
}

// Services is the application service graph over one storage.
type Services struct {
	Queries      *application.ScheduleQueryService
	Guard        *application.ConflictGuard
	Availability *application.AvailabilityService
	Assignments  *application.AssignmentService
	Activities   *application.ActivityService
	Audit        *application.AuditService
}

// ServiceSettings carries the tunables that come from configuration in the
// binary. Zero values select the service defaults.
type ServiceSettings struct {
	GridGranularity time.Duration
	UpcomingWindow  time.Duration
	AuditCacheTTL   time.Duration
}

// NewServices wires every application service against storage, with the
// audit cache listening to assignment writes.
func (f *ServiceFactory) NewServices(storage *sqlite.Storage, settings ServiceSettings) Services {
	now := f.Clock.NowFunc()

	queries := application.NewScheduleQueryService(storage.Assignments, f.Logger)
	guard := application.NewConflictGuard(queries, f.Metrics, f.Logger)
	audit := application.NewAuditService(queries, settings.AuditCacheTTL, f.Metrics, now, f.Logger)

	return Services{
		Queries:      queries,
		Guard:        guard,
		Availability: application.NewAvailabilityService(queries, storage.Members, settings.GridGranularity, f.Metrics, f.Logger),
		Assignments: application.NewAssignmentService(
			storage.Assignments,
			storage.Activities,
			guard,
			f.IDGenerator.NextFunc(),
			now,
			f.Logger,
			audit,
		),
		Activities: application.NewActivityService(storage.Activities, storage.Resources, settings.UpcomingWindow, f.Metrics, now, f.Logger),
		Audit:      audit,
	}
}
