package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/application/common"
)

// wsClientFrame is an inbound room command, e.g.
// {"action":"subscribe","room":"vessel:12"}
type wsClientFrame struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// same-origin policy is enforced at the reverse proxy
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamEvents upgrades to a websocket and forwards bus events for the
// requested rooms. Initial rooms come as a comma-separated list, e.g.
// ?rooms=port:NLRTM,vessel:12 (default: the daemon's port room); afterwards
// the client may adjust its membership with subscribe/unsubscribe frames.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	rooms := parseRooms(r.URL.Query().Get("rooms"))
	if len(rooms) == 0 {
		rooms = []string{events.RoomPort(s.cfg.DefaultPortCode)}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	logger := common.LoggerFromContext(r.Context())
	sub := s.bus.Subscribe(rooms...)
	defer s.bus.Unsubscribe(sub)

	// read client frames: room commands are applied, anything else is
	// drained so pings and close frames are processed
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var frame wsClientFrame
			if err := json.Unmarshal(raw, &frame); err != nil || frame.Room == "" {
				continue
			}
			switch frame.Action {
			case "subscribe":
				s.bus.Join(sub, frame.Room)
			case "unsubscribe":
				s.bus.Leave(sub, frame.Room)
			}
		}
	}()

	for {
		select {
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				logger.Log("DEBUG", "Event stream write failed", map[string]interface{}{"error": err.Error()})
				return
			}
		case <-clientGone:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func parseRooms(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	rooms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			rooms = append(rooms, p)
		}
	}
	return rooms
}
