package trace

import (
	"time"

	"github.com/joeycumines/go-catrate"
)

// Filter decides whether a record reaches the wire. It layers three
// independent gates, all of which must pass: a global on/off switch per
// RecordID, a per-AO-priority allow-list (empty means "all AOs"), and an
// optional per-RecordID rate cap so one noisy record type — a periodic
// QS_QF_TICK-equivalent is the classic case — can't starve the link.
type Filter struct {
	global map[RecordID]bool
	aos    map[int]bool
	limit  *catrate.Limiter
}

// NewFilter builds a Filter that accepts every record and every AO by
// default. Use the Set*/Allow* methods to narrow it, and WithRateCap to
// attach a per-record-ID sliding-window cap.
func NewFilter() *Filter {
	return &Filter{global: make(map[RecordID]bool), aos: make(map[int]bool)}
}

// WithRateCap attaches a multi-window rate limiter, keyed by RecordID, to
// f. rates mirrors catrate.NewLimiter's own contract: each entry caps the
// number of accepted records of a given ID within the given window,
// and all windows must be satisfied for a record to pass.
func (f *Filter) WithRateCap(rates map[time.Duration]int) *Filter {
	f.limit = catrate.NewLimiter(rates)
	return f
}

// SetGlobal enables or disables an entire record class. Records default to
// enabled, so this is normally used to turn specific ones off.
func (f *Filter) SetGlobal(rec RecordID, enabled bool) {
	f.global[rec] = enabled
}

// SetAOFilter restricts tracing to the given set of AO priorities; an empty
// call (no priorities) clears the restriction back to "all AOs". The AO
// gate only applies to per-AO records (dispatch/transition/post); publish,
// tick, and exhausted records aren't scoped to a single AO and always pass
// this gate.
func (f *Filter) SetAOFilter(priorities ...int) {
	f.aos = make(map[int]bool, len(priorities))
	for _, p := range priorities {
		f.aos[p] = true
	}
}

// Allow reports whether a record of the given ID should be emitted. The
// rate-cap gate, if attached, is the last check — it's the one with side
// effects (it consumes a slot in the sliding window), so cheaper gates
// reject first.
func (f *Filter) Allow(rec RecordID) bool {
	if enabled, ok := f.global[rec]; ok && !enabled {
		return false
	}
	if f.limit != nil {
		if _, ok := f.limit.Allow(rec); !ok {
			return false
		}
	}
	return true
}

// AllowAO reports whether records naming priority should be emitted, per
// the AO filter, in addition to the RecordID-level Allow check.
func (f *Filter) AllowAO(rec RecordID, priority int) bool {
	if len(f.aos) > 0 && !f.aos[priority] {
		return false
	}
	return f.Allow(rec)
}
