package schedule

import "fmt"

// Status is the lifecycle state of a schedule.
// Status only advances Scheduled -> Approaching -> Berthed -> Departed;
// Cancelled is terminal from any non-Departed state.
type Status string

const (
	StatusScheduled   Status = "SCHEDULED"
	StatusApproaching Status = "APPROACHING"
	StatusBerthed     Status = "BERTHED"
	StatusDeparted    Status = "DEPARTED"
	StatusCancelled   Status = "CANCELLED"
)

var statusRank = map[Status]int{
	StatusScheduled:   0,
	StatusApproaching: 1,
	StatusBerthed:     2,
	StatusDeparted:    3,
}

// IsTerminal reports whether the schedule no longer occupies its berth window
func (s Status) IsTerminal() bool {
	return s == StatusDeparted || s == StatusCancelled
}

// CanAdvanceTo checks a forward-only transition
func (s Status) CanAdvanceTo(next Status) error {
	if next == StatusCancelled {
		if s == StatusDeparted {
			return fmt.Errorf("cannot cancel a departed schedule")
		}
		return nil
	}
	from, okFrom := statusRank[s]
	to, okTo := statusRank[next]
	if !okFrom || !okTo {
		return fmt.Errorf("invalid transition %s -> %s", s, next)
	}
	if to <= from {
		return fmt.Errorf("status cannot move backwards: %s -> %s", s, next)
	}
	return nil
}
