package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/indigoair/indigo/config"
	"github.com/indigoair/indigo/internal/auth"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/indigoair/indigo/internal/realtime"
	"github.com/indigoair/indigo/internal/service/atc"
	"github.com/indigoair/indigo/internal/service/booking"
	"github.com/indigoair/indigo/internal/service/flights"
	"github.com/indigoair/indigo/internal/service/pilot"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Services struct {
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
	ATC      atc.ATCUseCase
	Pilots   pilot.PilotUseCase
	Logins   Authenticator
	Gamepass GamepassVerifier
	Issuer   *auth.Issuer
	Hub      *realtime.Hub
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	DefaultHold time.Duration
	SwaggerDir  string
	RateLimit   config.RateLimitConfig
	Checks      map[string]HealthCheck
	Logger      *slog.Logger
}

func NewRouter(svc Services, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), AccessLog(logger))
	r.GET("/healthz", healthz(cfg.Checks))

	if cfg.SwaggerDir != "" {
		r.Static("/swagger", cfg.SwaggerDir)
		r.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/openapi.json"))))
	}

	authn := auth.Authenticate(svc.Issuer)
	apiGroup := r.Group("/api")
	if cfg.RateLimit.RPS > 0 {
		apiGroup.Use(NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware())
	}

	NewAuthHandler(svc.Logins, svc.Gamepass).Register(apiGroup.Group("/auth"), authn)
	NewFlightHandler(svc.Flights).Register(apiGroup.Group("/flights"), authn)
	NewBookingHandler(svc.Bookings, cfg.DefaultHold).Register(apiGroup.Group("/bookings", authn))
	NewATCHandler(svc.ATC).Register(apiGroup.Group("/atc", authn, auth.RequireRole(domain.RoleATC, domain.RoleSupervisor, domain.RoleAdmin)))
	NewPilotHandler(svc.Pilots).Register(apiGroup.Group("/pilot", authn))
	apiGroup.GET("/events", authn, NewEventsHandler(svc.Hub, logger).stream)

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})
	return r
}

func healthz(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": results})
	}
}
