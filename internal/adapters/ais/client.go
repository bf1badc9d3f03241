package ais

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harborops/quayplan/internal/application/common"
	"github.com/harborops/quayplan/internal/domain/position"
)

// State tracks the client's connection lifecycle
type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnecting   State = "CONNECTING"
	StateSubscribed   State = "SUBSCRIBED"
	StateRunning      State = "RUNNING"
	StateDegraded     State = "DEGRADED"
)

// Sink receives normalized position and static-data reports from the feed
type Sink interface {
	Ingest(ctx context.Context, r *position.Report) error
	IngestStatic(ctx context.Context, r *position.StaticRecord) error
}

// Conn is the subset of a websocket connection the client needs
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// Dialer opens feed connections; swapped out in tests
type Dialer func(ctx context.Context, url string) (Conn, error)

func defaultDialer(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Config tunes the feed client
type Config struct {
	EndpointURL string
	APIKey      string
	// BoundingBox is [minLat, minLon, maxLat, maxLon]
	BoundingBox []float64
	// MMSIFilter narrows the feed to the listed vessels when non-empty
	MMSIFilter    []string
	ReconnectBase time.Duration
	ReconnectMax  time.Duration
}

// Client maintains a resilient subscription to the AIS position feed.
// Disconnects degrade the client and trigger exponential backoff with full
// jitter; the planner keeps working off last-known positions meanwhile.
type Client struct {
	cfg  Config
	sink Sink
	dial Dialer

	mu    sync.Mutex
	state State
}

// NewClient creates a feed client delivering into sink
func NewClient(cfg Config, sink Sink) *Client {
	if cfg.ReconnectBase <= 0 {
		cfg.ReconnectBase = time.Second
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = time.Minute
	}
	return &Client{cfg: cfg, sink: sink, dial: defaultDialer, state: StateDisconnected}
}

// SetDialer overrides the connection factory
func (c *Client) SetDialer(d Dialer) { c.dial = d }

// Probe dials the feed once and hangs up, verifying reachability at startup
func (c *Client) Probe(ctx context.Context) error {
	conn, err := c.dial(ctx, c.cfg.EndpointURL)
	if err != nil {
		return err
	}
	return conn.Close()
}

// State returns the current connection state
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run connects and keeps the subscription alive until the context ends
func (c *Client) Run(ctx context.Context) {
	logger := common.LoggerFromContext(ctx)
	attempt := 0

	for {
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		}

		c.setState(StateConnecting)
		conn, err := c.dial(ctx, c.cfg.EndpointURL)
		if err != nil {
			c.setState(StateDegraded)
			attempt++
			wait := c.backoff(attempt)
			logger.Log("WARN", "AIS feed connection failed", map[string]interface{}{
				"error":   err.Error(),
				"attempt": attempt,
				"retryIn": wait.String(),
			})
			if !sleepCtx(ctx, wait) {
				c.setState(StateDisconnected)
				return
			}
			continue
		}

		if err := conn.WriteJSON(c.subscription()); err != nil {
			_ = conn.Close()
			c.setState(StateDegraded)
			attempt++
			if !sleepCtx(ctx, c.backoff(attempt)) {
				c.setState(StateDisconnected)
				return
			}
			continue
		}
		c.setState(StateSubscribed)
		logger.Log("INFO", "AIS feed subscribed", map[string]interface{}{"endpoint": c.cfg.EndpointURL})
		attempt = 0

		c.readLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		}
		c.setState(StateDegraded)
		logger.Log("WARN", "AIS feed dropped, reconnecting", nil)
		attempt++
		if !sleepCtx(ctx, c.backoff(attempt)) {
			c.setState(StateDisconnected)
			return
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn Conn) {
	logger := common.LoggerFromContext(ctx)

	// unblock ReadMessage when the context ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		c.setState(StateRunning)
		if report, ok := decodeReport(raw); ok {
			if err := c.sink.Ingest(ctx, report); err != nil {
				logger.Log("WARN", "Position ingest failed", map[string]interface{}{"error": err.Error()})
			}
			continue
		}
		if static, ok := decodeStatic(raw); ok {
			if err := c.sink.IngestStatic(ctx, static); err != nil {
				logger.Log("WARN", "Static-data ingest failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

// backoff is exponential from the base, capped, with full jitter
func (c *Client) backoff(attempt int) time.Duration {
	d := c.cfg.ReconnectBase
	for i := 1; i < attempt && d < c.cfg.ReconnectMax; i++ {
		d *= 2
	}
	if d > c.cfg.ReconnectMax {
		d = c.cfg.ReconnectMax
	}
	return time.Duration(rand.Int63n(int64(d)) + 1)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type subscriptionMessage struct {
	APIKey             string         `json:"APIKey"`
	BoundingBoxes      [][][2]float64 `json:"BoundingBoxes"`
	FiltersShipMMSI    []string       `json:"FiltersShipMMSI,omitempty"`
	FilterMessageTypes []string       `json:"FilterMessageTypes"`
}

func (c *Client) subscription() subscriptionMessage {
	box := [][2]float64{{-90, -180}, {90, 180}}
	if len(c.cfg.BoundingBox) == 4 {
		box = [][2]float64{
			{c.cfg.BoundingBox[0], c.cfg.BoundingBox[1]},
			{c.cfg.BoundingBox[2], c.cfg.BoundingBox[3]},
		}
	}
	return subscriptionMessage{
		APIKey:             c.cfg.APIKey,
		BoundingBoxes:      [][][2]float64{box},
		FiltersShipMMSI:    c.cfg.MMSIFilter,
		FilterMessageTypes: []string{"PositionReport", "ShipStaticData"},
	}
}

// feedMessage mirrors the feed's envelope for position reports
type feedMessage struct {
	MessageType string `json:"MessageType"`
	MetaData    struct {
		MMSI    int64  `json:"MMSI"`
		TimeUTC string `json:"time_utc"`
	} `json:"MetaData"`
	Message struct {
		PositionReport struct {
			Latitude           float64 `json:"Latitude"`
			Longitude          float64 `json:"Longitude"`
			Sog                float64 `json:"Sog"`
			Cog                float64 `json:"Cog"`
			TrueHeading        float64 `json:"TrueHeading"`
			NavigationalStatus int     `json:"NavigationalStatus"`
		} `json:"PositionReport"`
	} `json:"Message"`
}

func decodeReport(raw []byte) (*position.Report, bool) {
	var msg feedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, false
	}
	if msg.MessageType != "PositionReport" {
		return nil, false
	}
	recorded, err := parseFeedTime(msg.MetaData.TimeUTC)
	if err != nil {
		recorded = time.Now().UTC()
	}
	pr := msg.Message.PositionReport
	return &position.Report{
		MMSI:       strconv.FormatInt(msg.MetaData.MMSI, 10),
		Lat:        pr.Latitude,
		Lon:        pr.Longitude,
		SOGKnots:   pr.Sog,
		COGDegrees: pr.Cog,
		Heading:    pr.TrueHeading,
		NavStatus:  navStatusLabel(pr.NavigationalStatus),
		RecordedAt: recorded,
	}, true
}

// staticMessage mirrors the feed's envelope for ship static data
type staticMessage struct {
	MessageType string `json:"MessageType"`
	MetaData    struct {
		MMSI    int64  `json:"MMSI"`
		TimeUTC string `json:"time_utc"`
	} `json:"MetaData"`
	Message struct {
		ShipStaticData struct {
			ImoNumber int64  `json:"ImoNumber"`
			Name      string `json:"Name"`
			Dimension struct {
				A float64 `json:"A"`
				B float64 `json:"B"`
				C float64 `json:"C"`
				D float64 `json:"D"`
			} `json:"Dimension"`
			MaximumStaticDraught float64 `json:"MaximumStaticDraught"`
		} `json:"ShipStaticData"`
	} `json:"Message"`
}

func decodeStatic(raw []byte) (*position.StaticRecord, bool) {
	var msg staticMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, false
	}
	if msg.MessageType != "ShipStaticData" {
		return nil, false
	}
	recorded, err := parseFeedTime(msg.MetaData.TimeUTC)
	if err != nil {
		recorded = time.Now().UTC()
	}
	sd := msg.Message.ShipStaticData
	imo := ""
	if sd.ImoNumber > 0 {
		imo = strconv.FormatInt(sd.ImoNumber, 10)
	}
	// Dimensions are reported relative to the GPS antenna: A+B is length
	// overall, C+D is beam
	return &position.StaticRecord{
		MMSI:       strconv.FormatInt(msg.MetaData.MMSI, 10),
		IMO:        imo,
		Name:       sd.Name,
		LOA:        sd.Dimension.A + sd.Dimension.B,
		Beam:       sd.Dimension.C + sd.Dimension.D,
		MaxDraft:   sd.MaximumStaticDraught,
		RecordedAt: recorded,
	}, true
}

func parseFeedTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999 -0700 MST"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized feed timestamp %q", s)
}

func navStatusLabel(code int) string {
	switch code {
	case 0:
		return "UNDER_WAY"
	case 1:
		return "AT_ANCHOR"
	case 5:
		return "MOORED"
	default:
		return "UNSPECIFIED"
	}
}
