package events

import (
	"fmt"
	"time"

	"github.com/harborops/quayplan/internal/domain/conflict"
	"github.com/harborops/quayplan/internal/domain/position"
	"github.com/harborops/quayplan/internal/domain/schedule"
)

// Type names a domain event on the wire
type Type string

const (
	TypeScheduleChanged  Type = "schedule.changed"
	TypeConflictDetected Type = "conflict.detected"
	TypeConflictResolved Type = "conflict.resolved"
	TypeAlertRaised      Type = "alert.raised"
	TypePositionUpdated  Type = "position.updated"
	TypeETAUpdated       Type = "eta.updated"
	// TypeLag signals that a slow subscriber had its oldest events dropped
	TypeLag Type = "lag"
)

// Event is one published domain event. Events reflect post-commit state.
type Event struct {
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
	TS      time.Time   `json:"ts"`
}

// Room keys. Subscribers join rooms; publishers address them.

func RoomPort(code string) string   { return "port:" + code }
func RoomTerminal(id int) string    { return fmt.Sprintf("terminal:%d", id) }
func RoomVessel(id int) string      { return fmt.Sprintf("vessel:%d", id) }

// ScheduleChangedPayload describes a schedule write
type ScheduleChangedPayload struct {
	Action   string             `json:"action"` // created, updated, cancelled, rescheduled
	Schedule *schedule.Schedule `json:"schedule"`
}

// ConflictPayload carries a detected or resolved conflict
type ConflictPayload struct {
	Conflict *conflict.Conflict `json:"conflict"`
}

// AlertPayload carries a raised alert
type AlertPayload struct {
	Alert *conflict.Alert `json:"alert"`
}

// PositionPayload carries an accepted position report
type PositionPayload struct {
	Report *position.Report `json:"report"`
}

// ETAUpdatedPayload describes a predicted-ETA move
type ETAUpdatedPayload struct {
	ScheduleID   int       `json:"scheduleId"`
	VesselID     int       `json:"vesselId"`
	OldETA       time.Time `json:"oldEta"`
	NewETA       time.Time `json:"newEta"`
	DeltaMinutes int       `json:"deltaMinutes"`
}

// LagPayload reports how many events a slow subscriber lost
type LagPayload struct {
	Dropped int `json:"dropped"`
}
