package qactive

// Disposition is the result kind a state handler returns, per spec §3:
// HANDLED, UNHANDLED, TRAN(target), or SUPER(parent).
type Disposition int

const (
	Handled Disposition = iota
	Unhandled
	Transition
	Super
)

// Result is the value a StateHandler returns. Target is meaningful only for
// Transition (the transition's destination) and Super (the state whose
// handler should next be offered the event).
type Result struct {
	Kind   Disposition
	Target *State
}

// ResultHandled reports that the event was handled with no state change.
func ResultHandled() Result { return Result{Kind: Handled} }

// ResultUnhandled reports that the state does not process this signal; the
// engine will offer it to the state's parent.
func ResultUnhandled() Result { return Result{Kind: Unhandled} }

// ResultTran requests a transition to target.
func ResultTran(target *State) Result { return Result{Kind: Transition, Target: target} }

// ResultSuper delegates to parent's handler for this event (the SUPER
// disposition of spec §3's trigger search).
func ResultSuper(parent *State) Result { return Result{Kind: Super, Target: parent} }

// StateHandler is a pure function (AO, event) -> disposition, per spec §3.
// The hsm parameter grants access to HSM-level queries (IsIn, ChildState)
// a handler may need while deciding its response.
type StateHandler func(hsm *HSM, e *Event) Result

// State identifies a node in the state hierarchy by identity (pointer),
// following spec §9's guidance to express states as function values
// implementing a common capability rather than as a tagged enum matched by
// name — here reified as a small struct so state identity survives
// comparison (bare Go func values are not comparable).
type State struct {
	Name    string
	Parent  *State
	Handler StateHandler

	// history marks this State as a history pseudostate of owner: a TRAN
	// targeting it resolves to owner's recorded leaf (deep history) or
	// recorded immediate child (shallow history), falling back to owner
	// itself (so normal init drilling takes over) if nothing was ever
	// recorded.
	historyOwner *State
	historyDeep  bool
}

// NewState declares a state with the given parent (nil only for the root
// "top" state) and handler.
func NewState(name string, parent *State, handler StateHandler) *State {
	return &State{Name: name, Parent: parent, Handler: handler}
}

// NewHistory declares a history pseudostate of owner. deep selects deep
// history (records the absolute leaf active when owner was last exited)
// versus shallow (records owner's immediate child), per spec §4.4.
func NewHistory(name string, owner *State, deep bool) *State {
	return &State{Name: name, historyOwner: owner, historyDeep: deep}
}

// Top is the root state: UNHANDLED for every signal, SUPER(nothing), per
// spec §3. Every HSM's state tree hangs off Top.
func Top() *State {
	return &State{Name: "top", Handler: func(*HSM, *Event) Result {
		return ResultUnhandled()
	}}
}

// HSM holds an active object's current leaf state, per spec §3. Outside of
// a Dispatch/Init step, Current is stable and equals the last leaf reached.
type HSM struct {
	top          *State
	current      *State
	maxNestDepth int
	history      map[*State]*State
	owners       map[*State]bool
}

// NewHSM constructs an HSM rooted at top, using maxNestDepth as the bound
// on the LCA path buffer (spec §4.4's MAX_NEST_DEPTH, default 6).
func NewHSM(top *State, maxNestDepth int) *HSM {
	if maxNestDepth <= 0 {
		maxNestDepth = MaxNestDepth
	}
	return &HSM{top: top, current: top, maxNestDepth: maxNestDepth, history: make(map[*State]*State)}
}

// Current returns the HSM's current leaf state.
func (h *HSM) Current() *State { return h.current }

var entryEvent = &Event{Sig: SignalEntry}
var exitEvent = &Event{Sig: SignalExit}
var initEvent = &Event{Sig: SignalInit}

// Init runs the HSM's initial transition chain, per spec §4.4: starting at
// top, repeatedly invoke the current state's initial transition and enter
// states outermost to innermost, until a state's INIT handler returns
// something other than TRAN (the terminal leaf). A nil e (the usual case)
// hands each step's handler the synthesized INIT event; a non-nil e is
// handed to each step's handler in its place, so those handlers see e's
// own signal rather than SignalInit.
func (h *HSM) Init(e *Event) {
	if h.current != h.top {
		panic(&AssertError{Module: "hsm", Message: "Init called on an already-initialized HSM"})
	}
	h.drillInit(e)
}

func (h *HSM) drillInit(e *Event) {
	for {
		payload := initEvent
		if e != nil {
			payload = e
		}
		r := h.current.Handler(h, payload)
		if r.Kind != Transition {
			return // terminal leaf
		}
		target := h.resolveHistoryTarget(r.Target)
		h.enterChain(h.current, target)
		h.current = target
		e = nil // only the very first INIT carries the caller's event
	}
}

// Dispatch delivers e to the HSM's current leaf, per spec §4.4: the
// trigger search walks SUPER dispositions up the hierarchy until some
// ancestor returns HANDLED, UNHANDLED, or TRAN; a TRAN performs LCA-bounded
// exit/entry and then drills to a new leaf via Init.
func (h *HSM) Dispatch(e *Event) {
	s := h.current
	var r Result
	for {
		r = s.Handler(h, e)
		if r.Kind != Super {
			break
		}
		if r.Target == nil {
			panic(&AssertError{Module: "hsm", Message: "SUPER(nil) reached above top"})
		}
		s = r.Target
	}
	switch r.Kind {
	case Handled, Unhandled:
		return
	case Transition:
		h.transition(r.Target)
	default:
		panic(&AssertError{Module: "hsm", Message: "unknown disposition"})
	}
}

// transition performs LCA-bounded exit/entry for a TRAN to target, per spec
// §4.4. The path buffer holds target's PROPER ancestors (target.Parent and
// up, never target itself) — target is always exited-and-reentered when it
// sits on the current leaf's own ancestor chain, which is what makes the
// to-self and to-ancestor transition topologies (spec §4.4's six) behave
// like a real transition instead of a no-op: walk the exit chain from the
// current leaf upward, exiting each state, until a state present in the
// path buffer is found — that state is the LCA and is neither exited nor
// re-entered; everything below it, target included, is (re-)entered.
func (h *HSM) transition(target *State) {
	target = h.resolveHistoryTarget(target)

	pathBuf := make([]*State, 0, h.maxNestDepth)
	for s := target.Parent; s != nil; s = s.Parent {
		if len(pathBuf) >= h.maxNestDepth {
			panic(&AssertError{Module: "hsm", Message: "LCA path buffer overflow"})
		}
		pathBuf = append(pathBuf, s)
	}

	leafAtStart := h.current
	var lca *State
	s := h.current
	for {
		if idx := indexOf(pathBuf, s); idx >= 0 {
			lca = s
			break
		}
		if s.Parent == nil && s != h.top {
			panic(&AssertError{Module: "hsm", Message: "exit chain never reached target's ancestor chain"})
		}
		h.exitState(s, leafAtStart)
		s = s.Parent
	}

	idx := indexOf(pathBuf, lca)
	for i := idx - 1; i >= 0; i-- {
		h.enterOne(pathBuf[i])
	}
	h.enterOne(target)
	h.current = target
	h.drillInit(nil)
}

// exitState runs s's EXIT handler and records history if s is tracked.
func (h *HSM) exitState(s *State, leafAtExitStart *State) {
	r := s.Handler(h, exitEvent)
	if r.Kind == Transition {
		panic(&AssertError{Module: "hsm", Message: "a TRAN during EXIT is a programming error"})
	}
	h.recordHistoryIfTracked(s, leafAtExitStart)
}

// enterOne runs s's ENTRY handler.
func (h *HSM) enterOne(s *State) {
	r := s.Handler(h, entryEvent)
	if r.Kind == Transition {
		panic(&AssertError{Module: "hsm", Message: "a TRAN during ENTRY is a programming error"})
	}
}

// enterChain runs ENTRY handlers from just below from down to and
// including to, used by Init's drilling (no exit side, from==ancestor of
// to already).
func (h *HSM) enterChain(from, to *State) {
	var chain []*State
	for s := to; s != from && s != nil; s = s.Parent {
		chain = append(chain, s)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		h.enterOne(chain[i])
	}
}

func indexOf(chain []*State, s *State) int {
	for i, c := range chain {
		if c == s {
			return i
		}
	}
	return -1
}

// IsIn reports whether s is on the active path from the current leaf up to
// top, per spec §4.4.
func (h *HSM) IsIn(s *State) bool {
	for c := h.current; c != nil; c = c.Parent {
		if c == s {
			return true
		}
	}
	return false
}

// ChildState returns the immediate child of parent on the current active
// path, or nil if parent is not an ancestor of the current leaf.
func (h *HSM) ChildState(parent *State) *State {
	for c := h.current; c != nil; c = c.Parent {
		if c.Parent == parent {
			return c
		}
	}
	return nil
}

// recordHistoryIfTracked records s's history if some history pseudostate
// in the HSM's tree names s as its owner.
func (h *HSM) recordHistoryIfTracked(s *State, leafAtExitStart *State) {
	if !h.isHistoryOwner(s) {
		return
	}
	if h.ownerDeep(s) {
		h.history[s] = leafAtExitStart
	} else {
		// Shallow: record s's immediate child on the path being exited —
		// the node one step below s toward leafAtExitStart.
		child := s
		for c := leafAtExitStart; c != nil; c = c.Parent {
			if c.Parent == s {
				child = c
				break
			}
		}
		h.history[s] = child
	}
}

// isHistoryOwner and ownerDeep are resolved lazily from any history
// pseudostate reachable from s; HSM does not require owners to be
// pre-registered, it discovers tracking the first time a history
// pseudostate referencing s is used as a transition target.
func (h *HSM) isHistoryOwner(s *State) bool {
	_, tracked := h.trackedOwners()[s]
	return tracked
}

func (h *HSM) ownerDeep(s *State) bool {
	return h.trackedOwners()[s]
}

func (h *HSM) trackedOwners() map[*State]bool {
	if h.owners == nil {
		h.owners = make(map[*State]bool)
	}
	return h.owners
}

func (h *HSM) resolveHistoryTarget(target *State) *State {
	if target.historyOwner == nil {
		return target
	}
	h.trackedOwners()[target.historyOwner] = target.historyDeep
	if recorded, ok := h.history[target.historyOwner]; ok {
		return recorded
	}
	return target.historyOwner
}
