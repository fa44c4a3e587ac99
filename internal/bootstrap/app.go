package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/indigoair/indigo/api"
	"github.com/indigoair/indigo/config"
	"github.com/indigoair/indigo/internal/auth"
	"github.com/indigoair/indigo/internal/cache"
	"github.com/indigoair/indigo/internal/clock"
	"github.com/indigoair/indigo/internal/events"
	"github.com/indigoair/indigo/internal/identity"
	"github.com/indigoair/indigo/internal/kafka"
	"github.com/indigoair/indigo/internal/queue"
	"github.com/indigoair/indigo/internal/realtime"
	"github.com/indigoair/indigo/internal/repository"
	"github.com/indigoair/indigo/internal/service/atc"
	"github.com/indigoair/indigo/internal/service/booking"
	"github.com/indigoair/indigo/internal/service/flights"
	"github.com/indigoair/indigo/internal/service/pilot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App is the wired application: stores picked by configuration, the
// event fan-out and every service on top of them.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Clock  clock.Clock

	Hub    *realtime.Hub
	Events *events.Fanout

	Flights  *flights.FlightService
	Bookings *booking.BookingService
	ATC      *atc.ATCService
	Pilots   *pilot.PilotService
	Roblox   *identity.RobloxClient
	Issuer   *auth.Issuer
	Auth     *auth.Service

	checks  map[string]api.HealthCheck
	closers []func() error
}

func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
		Clock:  clock.Real(),
		Hub:    realtime.NewHub(0),
		checks: make(map[string]api.HealthCheck),
	}
	if err := app.wire(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	var (
		flightRepo  repository.FlightRepository
		bookingRepo repository.BookingRepository
	)
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		a.checks["postgres"] = pool.Ping
		flightRepo = repository.NewFlightRepository(pool)
		bookingRepo = repository.NewBookingRepository(pool)
	default:
		flightRepo = repository.NewMemoryFlightRepository()
		bookingRepo = repository.NewMemoryBookingRepository()
	}

	var (
		redisClient *redis.Client
		flightCache *cache.RedisCache
	)
	if cfg.Redis.Enabled() {
		redisClient = cache.NewRedisClient(cfg.Redis)
		a.closers = append(a.closers, redisClient.Close)
		a.checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		flightCache = cache.NewRedisCache(redisClient, cfg.Booking.FlightsCacheTTL)
	}

	var holds repository.SeatHoldStore = repository.NewMemorySeatHoldStore(a.Clock)
	if cfg.Storage.Holds == config.DriverRedis {
		holds = cache.NewRedisHoldStore(redisClient, a.Clock)
	}

	a.Events = events.NewFanout(a.Logger, a.Hub)
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, a.Logger)
		a.closers = append(a.closers, producer.Close)
		a.checks["kafka"] = producer.CheckConnection
		a.Events.Add(producer)
	}
	if cfg.AMQP.Enabled() {
		publisher, err := queue.Dial(cfg.AMQP.URL, cfg.AMQP.QueuePrefix)
		if err != nil {
			return fmt.Errorf("connect amqp: %w", err)
		}
		a.closers = append(a.closers, publisher.Close)
		a.Events.Add(publisher)
	}

	flightOpts := []flights.FlightServiceOption{
		flights.WithClock(a.Clock), flights.WithLogger(a.Logger), flights.WithPublisher(a.Events),
	}
	bookingOpts := []booking.BookingServiceOption{
		booking.WithClock(a.Clock),
		booking.WithLogger(a.Logger),
		booking.WithPublisher(a.Events),
		booking.WithHoldBounds(cfg.Booking.MinHold, cfg.Booking.MaxHold),
		booking.WithCancellationWindow(cfg.Booking.CancellationWindow),
	}
	// a nil *RedisCache must not reach the services as a non-nil interface
	if flightCache != nil {
		a.Flights = flights.NewFlightService(flightRepo, flightCache, flightOpts...)
		bookingOpts = append(bookingOpts, booking.WithFlightCache(flightCache))
	} else {
		a.Flights = flights.NewFlightService(flightRepo, nil, flightOpts...)
	}

	a.Roblox = identity.NewRobloxClient(cfg.Roblox, identity.WithLogger(a.Logger))
	a.Bookings = booking.NewBookingService(flightRepo, bookingRepo, holds, identity.NewEntitlements(a.Roblox), bookingOpts...)
	a.closers = append(a.closers, func() error { a.Bookings.Close(); return nil })

	a.ATC = atc.NewATCService(repository.NewMemoryClearanceRepository(), flightRepo, a.Flights,
		atc.WithClock(a.Clock), atc.WithLogger(a.Logger), atc.WithPublisher(a.Events))
	a.Pilots = pilot.NewPilotService(repository.NewMemoryPilotRepository(), flightRepo,
		pilot.WithClock(a.Clock), pilot.WithLogger(a.Logger), pilot.WithPublisher(a.Events))

	a.Issuer = auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, a.Clock)
	a.Auth = auth.NewService(a.Roblox, a.Issuer, cfg.Roblox.RoleRanks, auth.WithLogger(a.Logger))
	return nil
}

func (a *App) Router() http.Handler {
	return api.NewRouter(api.Services{
		Flights:  a.Flights,
		Bookings: a.Bookings,
		ATC:      a.ATC,
		Pilots:   a.Pilots,
		Logins:   a.Auth,
		Gamepass: a.Roblox,
		Issuer:   a.Issuer,
		Hub:      a.Hub,
	}, api.RouterConfig{
		DefaultHold: a.Config.Booking.DefaultHold,
		SwaggerDir:  a.Config.HTTP.SwaggerDir,
		RateLimit:   a.Config.RateLimit,
		Checks:      a.checks,
		Logger:      a.Logger,
	})
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
