package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/indigoair/indigo/config"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/indigoair/indigo/internal/events"
	"github.com/indigoair/indigo/internal/service/flights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	t.Setenv("JWT_SECRET", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	return cfg
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewApp_Memory(t *testing.T) {
	ctx := context.Background()
	cfg := loadConfig(t, "auth: {jwt_secret: s}\n")

	app, err := NewApp(ctx, cfg, discard())
	require.NoError(t, err)
	defer app.Close()

	sub := app.Hub.Subscribe()
	defer sub.Close()

	flight, _, err := app.Flights.Create(ctx, flights.CreateFlightInput{
		FlightNumber:  "6E-101",
		Origin:        "DEL",
		Destination:   "BOM",
		Aircraft:      "A320",
		DepartureTime: time.Now().Add(72 * time.Hour),
		ArrivalTime:   time.Now().Add(74 * time.Hour),
		Price:         domain.Fares{Economy: 450000, Business: 1200000},
		Gates:         domain.Gates{Departure: "12", Arrival: "B4"},
	}, "admin-1")
	require.NoError(t, err)

	select {
	case e := <-sub.Events():
		assert.Equal(t, events.FlightCreated, e.Type)
		assert.Equal(t, flight.ID, e.FlightID)
	case <-time.After(time.Second):
		t.Fatal("flight_created not relayed to the hub")
	}

	w := httptest.NewRecorder()
	app.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/flights/"+flight.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := loadConfig(t, "auth: {jwt_secret: s}\nhttp: {address: \"127.0.0.1:0\"}\ngrpc: {address: \"127.0.0.1:0\"}\n")
	app, err := NewApp(context.Background(), cfg, discard())
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, app) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
