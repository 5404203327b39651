package fsm

import (
	"errors"
	"fmt"
	"sort"
)

// State is a named machine state.
type State string

// Event is a named trigger that moves a machine between states.
type Event string

// Transition records a single applied event.
type Transition struct {
	Event Event `json:"event"`
	From  State `json:"from"`
	To    State `json:"to"`
}

var (
	ErrEmptyTable   = errors.New("transition table is empty")
	ErrUnknownState = errors.New("state not present in transition table")
)

// InvalidTransitionError reports an event that is not legal from the current state.
type InvalidTransitionError struct {
	Machine string
	From    State
	Event   Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("machine %s: invalid transition: event %s not allowed from state %s", e.Machine, e.Event, e.From)
}

// Definition is a sealed transition table. Any (state, event) pair absent from
// the table is illegal; there is no default or self-loop fallback. Definitions
// are immutable once constructed.
type Definition struct {
	id          string
	initial     State
	transitions map[State]map[Event]State
}

// NewDefinition builds a sealed definition from a table. The table is deep
// copied so later mutation of the input cannot unseal it. Target states that
// never appear as table keys (terminal states) are registered with an empty
// row so Restore accepts them.
func NewDefinition(id string, initial State, table map[State]map[Event]State) (*Definition, error) {
	if len(table) == 0 {
		return nil, ErrEmptyTable
	}
	transitions := make(map[State]map[Event]State, len(table))
	for state, row := range table {
		copied := make(map[Event]State, len(row))
		for event, next := range row {
			copied[event] = next
		}
		transitions[state] = copied
	}
	for _, row := range table {
		for _, next := range row {
			if _, ok := transitions[next]; !ok {
				transitions[next] = map[Event]State{}
			}
		}
	}
	if _, ok := transitions[initial]; !ok {
		return nil, fmt.Errorf("initial state %s: %w", initial, ErrUnknownState)
	}
	return &Definition{id: id, initial: initial, transitions: transitions}, nil
}

// MustNewDefinition panics on an invalid table. For package-level machine tables.
func MustNewDefinition(id string, initial State, table map[State]map[Event]State) *Definition {
	d, err := NewDefinition(id, initial, table)
	if err != nil {
		panic(err)
	}
	return d
}

// ID returns the machine identifier.
func (d *Definition) ID() string { return d.id }

// Initial returns the machine's initial state.
func (d *Definition) Initial() State { return d.initial }

// Contains reports whether the state exists in the table.
func (d *Definition) Contains(s State) bool {
	_, ok := d.transitions[s]
	return ok
}

// States lists every state in the table, sorted.
func (d *Definition) States() []State {
	states := make([]State, 0, len(d.transitions))
	for s := range d.transitions {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}

// Events lists every event that appears anywhere in the table, sorted.
func (d *Definition) Events() []Event {
	seen := map[Event]struct{}{}
	for _, row := range d.transitions {
		for e := range row {
			seen[e] = struct{}{}
		}
	}
	events := make([]Event, 0, len(seen))
	for e := range seen {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}

// NewInstance creates an instance at the initial state with empty history.
func (d *Definition) NewInstance() Instance {
	return Instance{def: d, state: d.initial}
}

// Restore creates an instance at a snapshot state. The state must exist in
// the table; an unknown state is a data error, not an FSM rejection.
func (d *Definition) Restore(s State) (Instance, error) {
	if !d.Contains(s) {
		return Instance{}, fmt.Errorf("machine %s: restore state %s: %w", d.id, s, ErrUnknownState)
	}
	return Instance{def: d, state: s}, nil
}

// Instance is an immutable machine value. Send returns a new Instance; the
// receiver is never mutated, so instances may be shared across goroutines
// without synchronization.
type Instance struct {
	def     *Definition
	state   State
	history []Transition
}

// State returns the current state.
func (i Instance) State() State { return i.state }

// History returns the applied transitions, oldest first.
func (i Instance) History() []Transition {
	out := make([]Transition, len(i.history))
	copy(out, i.history)
	return out
}

// Can reports whether the event is legal from the current state.
func (i Instance) Can(e Event) bool {
	_, ok := i.def.transitions[i.state][e]
	return ok
}

// AvailableEvents lists the legal events from the current state, sorted.
func (i Instance) AvailableEvents() []Event {
	row := i.def.transitions[i.state]
	events := make([]Event, 0, len(row))
	for e := range row {
		events = append(events, e)
	}
	sort.Slice(events, func(a, b int) bool { return events[a] < events[b] })
	return events
}

// Send applies the event, returning a new instance. Events absent from the
// current state's row fail with InvalidTransitionError.
func (i Instance) Send(e Event) (Instance, error) {
	next, ok := i.def.transitions[i.state][e]
	if !ok {
		return Instance{}, &InvalidTransitionError{Machine: i.def.id, From: i.state, Event: e}
	}
	history := make([]Transition, len(i.history), len(i.history)+1)
	copy(history, i.history)
	history = append(history, Transition{Event: e, From: i.state, To: next})
	return Instance{def: i.def, state: next, history: history}, nil
}
