package navigation

import (
	"sync"
)

// Kind classifies a navigation entry.
type Kind int

const (
	// KindAssign is a hard navigation that pushes a history entry.
	KindAssign Kind = iota + 1
	// KindReplace is a hard navigation that replaces the current entry.
	KindReplace
	// KindRoute is an in-app route change.
	KindRoute
)

func (k Kind) String() string {
	switch k {
	case KindAssign:
		return "assign"
	case KindReplace:
		return "replace"
	case KindRoute:
		return "route"
	default:
		return "unknown"
	}
}

// State travels with an in-app navigation.
type State struct {
	// From is the path (and query) the user originally tried to reach.
	From string
}

// Entry is one recorded navigation.
type Entry struct {
	Kind   Kind
	Target string
	State  State
}

// Navigator performs navigations. Implementations must be safe for concurrent use.
type Navigator interface {
	Assign(target string)
	Replace(target string)
	Navigate(path string, state State)
}

// Location is an in-process Navigator that remembers where the client currently is.
type Location struct {
	mu      sync.Mutex
	href    string
	state   State
	history []Entry
	onHard  func(Entry)
}

// NewLocation returns a Location starting at href.
func NewLocation(href string) *Location {
	return &Location{href: href}
}

// OnHardNavigate registers fn to run after every Assign or Replace. It is how a CLI opens a
// browser or a desktop shell swaps its web view.
func (l *Location) OnHardNavigate(fn func(Entry)) {
	l.mu.Lock()
	l.onHard = fn
	l.mu.Unlock()
}

func (l *Location) Assign(target string) {
	l.record(Entry{Kind: KindAssign, Target: target})
}

func (l *Location) Replace(target string) {
	l.record(Entry{Kind: KindReplace, Target: target})
}

func (l *Location) Navigate(path string, state State) {
	l.record(Entry{Kind: KindRoute, Target: path, State: state})
}

func (l *Location) record(e Entry) {
	l.mu.Lock()
	l.href = e.Target
	l.state = e.State
	if e.Kind == KindReplace && len(l.history) > 0 {
		l.history[len(l.history)-1] = e
	} else {
		l.history = append(l.history, e)
	}
	hook := l.onHard
	l.mu.Unlock()

	if hook != nil && e.Kind != KindRoute {
		hook(e)
	}
}

// Href returns the current target.
func (l *Location) Href() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.href
}

// State returns the state attached to the most recent navigation.
func (l *Location) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// History returns a copy of all recorded navigations.
func (l *Location) History() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.history))
	copy(out, l.history)
	return out
}

// Count returns how many recorded entries target the given path.
func (l *Location) Count(target string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.history {
		if e.Target == target {
			n++
		}
	}
	return n
}
