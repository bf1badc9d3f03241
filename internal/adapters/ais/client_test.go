package ais_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborops/quayplan/internal/adapters/ais"
	"github.com/harborops/quayplan/internal/domain/position"
)

// fakeConn replays scripted frames and records the subscription message
type fakeConn struct {
	mu         sync.Mutex
	frames     [][]byte
	subscribed []interface{}
	closed     bool
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || len(c.frames) == 0 {
		return 0, nil, io.EOF
	}
	frame := c.frames[0]
	c.frames = c.frames[1:]
	return 1, frame, nil
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed = append(c.subscribed, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// captureSink collects ingested reports and cancels once enough arrived
type captureSink struct {
	mu      sync.Mutex
	reports []*position.Report
	statics []*position.StaticRecord
	done    context.CancelFunc
	want    int
}

func (s *captureSink) Ingest(_ context.Context, r *position.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	s.maybeDone()
	return nil
}

func (s *captureSink) IngestStatic(_ context.Context, r *position.StaticRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statics = append(s.statics, r)
	s.maybeDone()
	return nil
}

func (s *captureSink) maybeDone() {
	if len(s.reports)+len(s.statics) >= s.want && s.done != nil {
		s.done()
	}
}

func feedFrame(t *testing.T, mmsi int64, lat, lon, sog float64) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"MessageType": "PositionReport",
		"MetaData": map[string]interface{}{
			"MMSI":     mmsi,
			"time_utc": "2025-03-01T08:00:00Z",
		},
		"Message": map[string]interface{}{
			"PositionReport": map[string]interface{}{
				"Latitude":           lat,
				"Longitude":          lon,
				"Sog":                sog,
				"Cog":                180.0,
				"TrueHeading":        182.0,
				"NavigationalStatus": 0,
			},
		},
	})
	require.NoError(t, err)
	return raw
}

func TestClient_SubscribesAndDeliversReports(t *testing.T) {
	// Arrange: one scripted frame behind a fake dialer
	conn := &fakeConn{frames: [][]byte{feedFrame(t, 244123456, 51.9, 4.1, 12.5)}}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sink := &captureSink{done: cancel, want: 1}

	client := ais.NewClient(ais.Config{
		EndpointURL:   "wss://feed.test/v0/stream",
		APIKey:        "test-key",
		BoundingBox:   []float64{51.0, 3.0, 52.5, 5.0},
		MMSIFilter:    []string{"244123456", "244987654"},
		ReconnectBase: 10 * time.Millisecond,
		ReconnectMax:  20 * time.Millisecond,
	}, sink)
	client.SetDialer(func(context.Context, string) (ais.Conn, error) { return conn, nil })

	// Act
	client.Run(ctx)

	// Assert: the handshake carried the key, the regional box, the fleet
	// filter and the message-type filters, and the frame reached the sink
	conn.mu.Lock()
	require.NotEmpty(t, conn.subscribed)
	handshake, err := json.Marshal(conn.subscribed[0])
	conn.mu.Unlock()
	require.NoError(t, err)
	assert.Contains(t, string(handshake), `"APIKey":"test-key"`)
	assert.Contains(t, string(handshake), `"FilterMessageTypes":["PositionReport","ShipStaticData"]`)
	assert.Contains(t, string(handshake), `"FiltersShipMMSI":["244123456","244987654"]`)
	assert.Contains(t, string(handshake), "[[[51,3],[52.5,5]]]")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.reports, 1)
	r := sink.reports[0]
	assert.Equal(t, "244123456", r.MMSI)
	assert.Equal(t, 51.9, r.Lat)
	assert.Equal(t, 12.5, r.SOGKnots)
	assert.Equal(t, "UNDER_WAY", r.NavStatus)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), r.RecordedAt.UTC())
}

func TestClient_SkipsUnknownAndMalformedFrames(t *testing.T) {
	frames := [][]byte{
		[]byte(`{"MessageType":"Heartbeat"}`),
		[]byte(`not json at all`),
		feedFrame(t, 244123456, 51.9, 4.1, 12.5),
	}
	conn := &fakeConn{frames: frames}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sink := &captureSink{done: cancel, want: 1}

	client := ais.NewClient(ais.Config{EndpointURL: "wss://feed.test", ReconnectBase: 10 * time.Millisecond, ReconnectMax: 20 * time.Millisecond}, sink)
	client.SetDialer(func(context.Context, string) (ais.Conn, error) { return conn, nil })

	client.Run(ctx)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.reports, 1)
	assert.Equal(t, "244123456", sink.reports[0].MMSI)
}

func TestClient_DecodesShipStaticData(t *testing.T) {
	raw, err := json.Marshal(map[string]interface{}{
		"MessageType": "ShipStaticData",
		"MetaData": map[string]interface{}{
			"MMSI":     int64(244123456),
			"time_utc": "2025-03-01T08:00:00Z",
		},
		"Message": map[string]interface{}{
			"ShipStaticData": map[string]interface{}{
				"ImoNumber": int64(9321483),
				"Name":      "MAAS TRADER",
				"Dimension": map[string]interface{}{
					"A": 180.0, "B": 120.0, "C": 20.0, "D": 22.0,
				},
				"MaximumStaticDraught": 14.5,
			},
		},
	})
	require.NoError(t, err)

	conn := &fakeConn{frames: [][]byte{raw}}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sink := &captureSink{done: cancel, want: 1}

	client := ais.NewClient(ais.Config{EndpointURL: "wss://feed.test", ReconnectBase: 10 * time.Millisecond, ReconnectMax: 20 * time.Millisecond}, sink)
	client.SetDialer(func(context.Context, string) (ais.Conn, error) { return conn, nil })

	client.Run(ctx)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.statics, 1)
	sd := sink.statics[0]
	assert.Equal(t, "244123456", sd.MMSI)
	assert.Equal(t, "9321483", sd.IMO)
	assert.Equal(t, "MAAS TRADER", sd.Name)
	assert.Equal(t, 300.0, sd.LOA)
	assert.Equal(t, 42.0, sd.Beam)
	assert.Equal(t, 14.5, sd.MaxDraft)
}

func TestClient_ReconnectsAfterDialFailures(t *testing.T) {
	// The first two dials fail; the third delivers a frame
	var dials int32
	var mu sync.Mutex
	conn := &fakeConn{frames: [][]byte{feedFrame(t, 244123456, 51.9, 4.1, 12.5)}}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sink := &captureSink{done: cancel, want: 1}

	client := ais.NewClient(ais.Config{
		EndpointURL:   "wss://feed.test",
		ReconnectBase: time.Millisecond,
		ReconnectMax:  5 * time.Millisecond,
	}, sink)
	client.SetDialer(func(context.Context, string) (ais.Conn, error) {
		mu.Lock()
		defer mu.Unlock()
		dials++
		if dials < 3 {
			return nil, fmt.Errorf("dial attempt %d: %w", dials, errors.New("connection refused"))
		}
		return conn, nil
	})

	client.Run(ctx)

	mu.Lock()
	assert.GreaterOrEqual(t, dials, int32(3))
	mu.Unlock()
	sink.mu.Lock()
	assert.Len(t, sink.reports, 1)
	sink.mu.Unlock()
	assert.Equal(t, ais.StateDisconnected, client.State(), "a finished run always parks disconnected")
}

func TestClient_StateReflectsLifecycle(t *testing.T) {
	client := ais.NewClient(ais.Config{EndpointURL: "wss://feed.test"}, &captureSink{})
	assert.Equal(t, ais.StateDisconnected, client.State())

	// A run against an immediately-cancelled context never leaves home
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client.SetDialer(func(context.Context, string) (ais.Conn, error) { return &fakeConn{}, nil })
	client.Run(ctx)
	assert.Equal(t, ais.StateDisconnected, client.State())
}
