package commands

import (
	"context"

	"github.com/harborops/quayplan/internal/adapters/events"
	"github.com/harborops/quayplan/internal/domain/berth"
	"github.com/harborops/quayplan/internal/domain/schedule"
)

// roomsFor resolves the event rooms a schedule change addresses: the vessel,
// its berth's terminal, and the terminal's port when resolvable.
func roomsFor(ctx context.Context, berths berth.Repository, s *schedule.Schedule) []string {
	rooms := []string{events.RoomVessel(s.VesselID)}
	b, err := berths.FindByID(ctx, s.BerthID)
	if err != nil {
		return rooms
	}
	rooms = append(rooms, events.RoomTerminal(b.TerminalID))
	if t, err := berths.FindTerminal(ctx, b.TerminalID); err == nil {
		ports, err := berths.ListPorts(ctx)
		if err == nil {
			for _, p := range ports {
				if p.ID == t.PortID {
					rooms = append(rooms, events.RoomPort(p.Code))
					break
				}
			}
		}
	}
	return rooms
}
