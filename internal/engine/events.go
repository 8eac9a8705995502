package engine

// MaxEvents bounds the universe event log.
const MaxEvents = 1000

// Event categories.
const (
	CategorySystem     = "system"
	CategoryLifecycle  = "lifecycle"
	CategoryLoyalty    = "loyalty"
	CategorySettlement = "settlement"
	CategoryResource   = "resource"
	CategoryFaction    = "faction"
)

// Event is a notable occurrence in the universe.
type Event struct {
	Seq         uint64 `json:"seq"`
	Cycle       uint64 `json:"cycle"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type eventLog struct {
	limit   int
	nextSeq uint64
	events  []Event
}

func newEventLog(limit int) *eventLog {
	return &eventLog{limit: limit, nextSeq: 1}
}

func (l *eventLog) append(e Event) Event {
	e.Seq = l.nextSeq
	l.nextSeq++
	l.events = append(l.events, e)
	if len(l.events) > l.limit {
		l.events = l.events[len(l.events)-l.limit:]
	}
	return e
}

func (u *Universe) logEvent(category, description string) {
	e := u.events.append(Event{Cycle: u.Cycle, Category: category, Description: description})
	for _, fn := range u.listeners {
		fn(e)
	}
}

// Events returns the newest n events, oldest first. n <= 0 returns all.
func (u *Universe) Events(n int) []Event {
	all := u.events.events
	if n > 0 && n < len(all) {
		all = all[len(all)-n:]
	}
	out := make([]Event, len(all))
	copy(out, all)
	return out
}

// EventsSince returns retained events with a sequence number above seq.
func (u *Universe) EventsSince(seq uint64) []Event {
	var out []Event
	for _, e := range u.events.events {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// OnEvent registers a callback run synchronously for every new event.
func (u *Universe) OnEvent(fn func(Event)) {
	u.listeners = append(u.listeners, fn)
}
