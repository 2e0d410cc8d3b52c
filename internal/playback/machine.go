package playback

import (
	"errors"
	"fmt"
	"sync"
)

// State is the playback state of one control
type State int

const (
	Idle State = iota
	Loading
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event drives a transition
type Event int

const (
	// ResolveStarted begins a new resolution
	ResolveStarted Event = iota
	// Loaded means a handle was committed and playback begins
	Loaded
	// SynthesisStarted means the speech engine began speaking. Valid from
	// Loading (normal fallback) and from Idle (reentry after a playback error).
	SynthesisStarted
	// Ended is the natural end of handle playback
	Ended
	// Failed is a playback error on a committed handle
	Failed
	// SynthesisEnded is the end of a spoken utterance
	SynthesisEnded
	// Cleared means resolution found nothing to play
	Cleared
)

func (e Event) String() string {
	switch e {
	case ResolveStarted:
		return "resolve-started"
	case Loaded:
		return "loaded"
	case SynthesisStarted:
		return "synthesis-started"
	case Ended:
		return "ended"
	case Failed:
		return "failed"
	case SynthesisEnded:
		return "synthesis-ended"
	case Cleared:
		return "cleared"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// ErrInvalidTransition is returned when an event does not apply to the current state
var ErrInvalidTransition = errors.New("invalid playback transition")

type edge struct {
	from  State
	event Event
}

var transitions = map[edge]State{
	{Idle, ResolveStarted}:      Loading,
	{Loading, Loaded}:           Playing,
	{Loading, SynthesisStarted}: Playing,
	{Loading, Cleared}:          Idle,
	{Idle, SynthesisStarted}:    Playing,
	{Playing, Ended}:            Idle,
	{Playing, Failed}:           Idle,
	{Playing, SynthesisEnded}:   Idle,
}

// Transition is emitted to subscribers after every successful Fire
type Transition struct {
	From  State
	To    State
	Event Event
}

// Machine holds the playback state. It is safe for concurrent use.
type Machine struct {
	mu          sync.Mutex
	state       State
	nextID      int
	subscribers map[int]func(Transition)
}

// NewMachine creates a machine in the Idle state
func NewMachine() *Machine {
	return &Machine{
		state:       Idle,
		subscribers: make(map[int]func(Transition)),
	}
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Enabled reports whether the control may be activated
func (m *Machine) Enabled() bool {
	return m.State() == Idle
}

// Fire applies an event. Subscribers are called synchronously, outside the
// lock, in no particular order.
func (m *Machine) Fire(event Event) error {
	m.mu.Lock()
	from := m.state
	to, ok := transitions[edge{from, event}]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, event, from)
	}
	m.state = to
	subs := make([]func(Transition), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	tr := Transition{From: from, To: to, Event: event}
	for _, fn := range subs {
		fn(tr)
	}
	return nil
}

// Subscribe registers fn for every transition and returns a function that
// removes it again
func (m *Machine) Subscribe(fn func(Transition)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// Recorder collects transitions, mostly useful in tests and for the CLI trace
type Recorder struct {
	mu          sync.Mutex
	transitions []Transition
}

// Record is a subscriber func
func (r *Recorder) Record(t Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
}

// Transitions returns what was recorded so far
func (r *Recorder) Transitions() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transition, len(r.transitions))
	copy(out, r.transitions)
	return out
}

// States returns the visited state sequence starting with the first From
func (r *Recorder) States() []State {
	trs := r.Transitions()
	if len(trs) == 0 {
		return nil
	}
	states := []State{trs[0].From}
	for _, t := range trs {
		states = append(states, t.To)
	}
	return states
}
