package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/habit-tracker/internal/analytics"
	"github.com/example/habit-tracker/internal/application"
	"github.com/example/habit-tracker/internal/repository"
)

// FastArgon2idParams keep password hashing cheap in tests.
var FastArgon2idParams = application.Argon2idParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers, clocks and a fixed calendar zone.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Location    *time.Location
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Location:    time.UTC,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Location == nil {
		factory.Location = time.UTC
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

// WithLocation sets the zone calendar days are computed in.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = loc
	}
}

// WithLogger sets the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Services bundles the application services built over one repository set.
type Services struct {
	Auth        *application.AuthService
	Habits      *application.HabitService
	Completions *application.CompletionService
	Analytics   *application.AnalyticsService
}

// NewServices builds every application service over repos.
func (f *ServiceFactory) NewServices(repos repository.Set) Services {
	ids := f.IDGenerator.NextFunc()
	now := f.Clock.NowFunc()
	return Services{
		Auth: application.NewAuthServiceWithLogger(
			repos.Users,
			repos.Sessions,
			application.NewArgon2idHasher(FastArgon2idParams),
			application.VerifyPassword,
			ids,
			ids,
			now,
			time.Hour,
			f.Logger,
		),
		Habits:      application.NewHabitServiceWithLogger(repos.Habits, repos.Streaks, ids, now, f.Logger),
		Completions: application.NewCompletionServiceWithLogger(repos.Habits, repos.Completions, repos.Streaks, ids, now, f.Location, f.Logger),
		Analytics:   application.NewAnalyticsServiceWithLogger(repos.Users, repos.Habits, repos.Completions, repos.Streaks, now, f.Location, analytics.DefaultHeatmapDays, f.Logger),
	}
}
