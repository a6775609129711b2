// Package phase maps an event's scheduled start and a supplied "now" onto
// the lifecycle of the event's social space. Resolve is a pure function:
// callers inject the clock instead of reading it here, so the same inputs
// always produce the same phase.
package phase

import (
	"time"

	"github.com/encorelive/encore-backend/internal/fault"
	"github.com/encorelive/encore-backend/internal/models"
)

type Phase string

const (
	Pre      Phase = "pre"
	Live     Phase = "live"
	After    Phase = "after"
	Archived Phase = "archived"
	Expired  Phase = "expired"
)

const (
	// EventDuration is the fixed duration assumption for every event.
	EventDuration = 12 * time.Hour
	// PreOpenWindow is how far before the start the space opens.
	PreOpenWindow = 7 * 24 * time.Hour
	// AfterWindow keeps the space interactive once the event ends.
	AfterWindow = 72 * time.Hour
	// ArchiveWindow keeps the space readable after the interactive window.
	ArchiveWindow = 7 * 24 * time.Hour
)

// ConversationRetention is how long past the event end a private
// conversation accepts new messages unless it was saved. It is aligned with
// the close of the archive window so a conversation outlives every phase in
// which its event is still visible.
const ConversationRetention = AfterWindow + ArchiveWindow

// Resolve computes the phase of an event's social space at now. Windows are
// half-open with the lower bound inclusive, so a boundary instant belongs
// to the later window.
func Resolve(eventStart, now time.Time) Phase {
	var (
		open    = eventStart.Add(-PreOpenWindow)
		end     = eventStart.Add(EventDuration)
		after   = end.Add(AfterWindow)
		archive = after.Add(ArchiveWindow)
	)
	switch {
	case now.Before(open):
		return Expired
	case now.Before(eventStart):
		return Pre
	case now.Before(end):
		return Live
	case now.Before(after):
		return After
	case now.Before(archive):
		return Archived
	default:
		return Expired
	}
}

// EventEnd is the assumed end instant of an event.
func EventEnd(eventStart time.Time) time.Time {
	return eventStart.Add(EventDuration)
}

// Interactive reports whether new content may be created in this phase.
func (p Phase) Interactive() bool {
	return p == Pre || p == Live || p == After
}

// ReadOnly reports whether existing content remains visible but frozen.
func (p Phase) ReadOnly() bool {
	return p == Archived
}

// CanAccessChat is the combined gate UI callers use before rendering any
// chat surface: the user must hold an active entitlement and the space must
// not be closed.
func CanAccessChat(ent *models.Entitlement, p Phase) error {
	if !ent.Active() {
		return fault.Denied("not a ticket holder for this event")
	}
	if p == Expired {
		return fault.Denied("this event's chat has closed")
	}
	return nil
}
