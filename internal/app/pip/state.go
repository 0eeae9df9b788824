package pip

import (
	"sync"

	"github.com/dkeye/pipcast/internal/core"
)

const (
	ActionEntered core.Action = "web-pip/ENTERED"
	ActionExited  core.Action = "web-pip/EXITED"
)

type State struct {
	InPip bool `json:"in_pip"`
}

// Reduce applies a to state. Unknown actions leave it untouched.
func Reduce(state State, a core.Action) State {
	switch a {
	case ActionEntered:
		state.InPip = true
	case ActionExited:
		state.InPip = false
	}
	return state
}

// Store holds the application visible pip state.
type Store struct {
	mu    sync.RWMutex
	state State
	subs  []func(State)
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Dispatch(a core.Action) {
	s.mu.Lock()
	prev := s.state
	s.state = Reduce(prev, a)
	next := s.state
	subs := s.subs
	s.mu.Unlock()

	if next == prev {
		return
	}
	for _, fn := range subs {
		fn(next)
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) InPip() bool { return s.State().InPip }

// Subscribe registers fn for every state change.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs[:len(s.subs):len(s.subs)], fn)
}
