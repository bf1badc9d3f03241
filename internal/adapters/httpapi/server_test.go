package httpapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/adapters/httpapi"
	"github.com/harborops/quayplan/internal/adapters/persistence"
	"github.com/harborops/quayplan/internal/application/common"
	planningCommands "github.com/harborops/quayplan/internal/application/planning/commands"
	planningServices "github.com/harborops/quayplan/internal/application/planning/services"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/planning"
	"github.com/harborops/quayplan/internal/domain/resource"
	"github.com/harborops/quayplan/internal/domain/shared"
	"github.com/harborops/quayplan/internal/domain/vessel"
	"github.com/harborops/quayplan/test/helpers"
)

type apiFixture struct {
	server *httpapi.Server
	bus    *events.Bus
	ves    *vessel.Vessel
	k1     *berth.Berth
}

func newAPIFixture(t *testing.T, rateLimit int) *apiFixture {
	t.Helper()
	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC))

	_, terminal := helpers.SeedPort(t, db, "NLRTM")
	k1 := helpers.SeedBerth(t, db, terminal.ID, "K1", 350, 16, "CONTAINER")
	ves := helpers.SeedVessel(t, db, "Maas Trader", 300, 42, 10)

	vessels := persistence.NewGormVesselRepository(db)
	berths := persistence.NewGormBerthRepository(db)
	schedules := persistence.NewGormScheduleRepository(db)
	maintenance := persistence.NewGormMaintenanceRepository(db)
	resources := persistence.NewGormResourceRepository(db)
	tides := persistence.NewGormTideRepository(db)

	pull := 60.0
	require.NoError(t, resources.Save(context.Background(),
		&resource.Resource{Kind: resource.KindPilot, Name: "Pilot 1", IsAvailable: true}))
	require.NoError(t, resources.Save(context.Background(),
		&resource.Resource{Kind: resource.KindTug, Name: "Tug 1", BollardPull: &pull, IsAvailable: true}))

	ukc := planning.UKCConfig{DefaultMeters: 1.5, LargeMeters: 2.0, VLCCMeters: 2.5}
	validator := planning.NewValidator(ukc, planning.DefaultWeatherLimits())
	envBuilder := planningServices.NewEnvironmentBuilder(schedules, maintenance, resources, tides, nil)
	buffer := planningServices.BufferPolicy(func(vessel.Type) time.Duration { return time.Hour })
	planner := planningServices.NewResolutionPlanner(berths, schedules, buffer)
	bus := events.NewBus(16, clock)

	med := common.NewMediator()
	require.NoError(t, common.RegisterHandler[*planningCommands.AllocateBerthCommand](med,
		planningCommands.NewAllocateBerthHandler(vessels, berths, schedules, envBuilder, planner, validator, bus, clock)))

	server := httpapi.NewServer(med, vessels, berths, maintenance, schedules, resources, tides,
		bus, clock, &common.StdLogger{}, httpapi.Config{
			RateLimitPerIPPerMinute: rateLimit,
			DefaultPortCode:         "NLRTM",
		})

	return &apiFixture{server: server, bus: bus, ves: ves, k1: k1}
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAPI_Healthz(t *testing.T) {
	f := newAPIFixture(t, 0)

	rec := f.do(t, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPI_VesselRoundTrip(t *testing.T) {
	f := newAPIFixture(t, 0)

	rec := f.do(t, http.MethodPost, "/api/v1/vessels", `{
		"name": "Ever Given", "type": "CONTAINER",
		"loa": 399.9, "beam": 58.8, "draft": 14.5,
		"cargoType": "CONTAINER", "priorityClass": "FCFS"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created vessel.Vessel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/vessels/%d", created.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_UnknownVesselMapsToNotFound(t *testing.T) {
	f := newAPIFixture(t, 0)

	rec := f.do(t, http.MethodGet, "/api/v1/vessels/9999", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"NOT_FOUND"`)
}

func TestAPI_MalformedBodyIsBadRequest(t *testing.T) {
	f := newAPIFixture(t, 0)

	rec := f.do(t, http.MethodPost, "/api/v1/schedules", `{"vesselId": "not a number"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"VALIDATION"`)
}

func TestAPI_AllocateThenConflict(t *testing.T) {
	f := newAPIFixture(t, 0)
	body := fmt.Sprintf(`{
		"vesselId": %d, "berthId": %d,
		"eta": "2025-03-01T10:00:00Z", "etd": "2025-03-01T18:00:00Z"
	}`, f.ves.ID, f.k1.ID)

	rec := f.do(t, http.MethodPost, "/api/v1/schedules", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"Schedule"`)

	// The same window again is blocked with the violations and a way out
	rec = f.do(t, http.MethodPost, "/api/v1/schedules", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "B-AVL-001")
	assert.Contains(t, rec.Body.String(), "DELAY_SECOND")
}

func TestAPI_RateLimitEnforcedPerIP(t *testing.T) {
	f := newAPIFixture(t, 2)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)

	rec := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestAPI_EventStreamHonorsClientRoomCommands(t *testing.T) {
	f := newAPIFixture(t, 100)
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/events?rooms=port:NLRTM"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(map[string]string{
		"action": "subscribe",
		"room":   events.RoomVessel(7),
	}))

	// The join lands asynchronously; keep publishing to the new room until
	// the stream delivers
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(25 * time.Millisecond):
				f.bus.Publish(events.TypePositionUpdated,
					map[string]int{"vesselId": 7}, events.RoomVessel(7))
			}
		}
	}()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	var got struct {
		Type string `json:"type"`
	}
	require.NoError(t, ws.ReadJSON(&got))
	assert.Equal(t, string(events.TypePositionUpdated), got.Type)
}
