package qactive

// Signal identifies an event's meaning within an HSM's state handlers.
// Values below SignalUser are reserved for the engine-synthesized entry,
// exit, and init signals; application signals start at SignalUser.
type Signal int

const (
	// SignalEmpty is never dispatched; it is the zero value.
	SignalEmpty Signal = iota
	// SignalEntry is synthesized by the HSM engine when a state is entered.
	SignalEntry
	// SignalExit is synthesized by the HSM engine when a state is exited.
	SignalExit
	// SignalInit is synthesized by the HSM engine to run a state's initial
	// transition.
	SignalInit
	// SignalUser is the first signal value available to application code.
	SignalUser
)

// PoolStatic marks an event as statically (immutably) allocated: never
// reference-counted, never freed by the event manager.
const PoolStatic = 0

// Event is the base event header every application event embeds as its
// first field, per spec §3. PoolID is 0 for a static/immutable event and
// 1..N for an event allocated from dynamic pool PoolID; RefCtr is only
// meaningful when PoolID != 0.
type Event struct {
	Sig    Signal
	PoolID int
	RefCtr int32
}

// NewStaticEvent wraps sig as a pool-static event: never freed, safe to
// share and redispatch without reference counting.
func NewStaticEvent(sig Signal) Event {
	return Event{Sig: sig, PoolID: PoolStatic}
}

// IsDynamic reports whether the event was allocated from a dynamic pool and
// is therefore subject to reference counting and garbage collection.
func (e *Event) IsDynamic() bool { return e.PoolID != PoolStatic }
