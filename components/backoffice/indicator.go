package backoffice

import "sync"

// ConnectionState is the socket connectivity shown by the navbar indicator.
type ConnectionState int

const (
	StateConnecting ConnectionState = iota
	StateConnected
	StateDisconnected
	StateError
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Indicator reflects channel connectivity. Its state is mutated only by the
// owning channel's lifecycle callbacks.
type Indicator struct {
	mu        sync.RWMutex
	state     ConnectionState
	observers []func(ConnectionState)
}

// NewIndicator starts in the disconnected state.
func NewIndicator() *Indicator {
	return &Indicator{state: StateDisconnected}
}

// SetState transitions the indicator and notifies observers on change.
func (i *Indicator) SetState(state ConnectionState) {
	i.mu.Lock()
	if i.state == state {
		i.mu.Unlock()
		return
	}
	i.state = state
	observers := make([]func(ConnectionState), len(i.observers))
	copy(observers, i.observers)
	i.mu.Unlock()
	for _, fn := range observers {
		fn(state)
	}
}

// State returns the current connectivity.
func (i *Indicator) State() ConnectionState {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

// OnChange registers an observer invoked on every transition.
func (i *Indicator) OnChange(fn func(ConnectionState)) {
	i.mu.Lock()
	i.observers = append(i.observers, fn)
	i.mu.Unlock()
}
