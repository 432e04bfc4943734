package dashboard

import (
	"sync"
	"time"
)

// Source names one upstream feed of the dashboard.
type Source string

const (
	SourceWeather    Source = "weather"
	SourceAirQuality Source = "air_quality"
	SourcePollen     Source = "pollen"
)

// Sources lists every feed in display order.
var Sources = []Source{SourceWeather, SourceAirQuality, SourcePollen}

// State is the lifecycle of a single feed.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StateError   State = "error"
)

// CanTransition reports whether from -> to is allowed. Loading is only entered from a
// resting state and only left for success or error.
func (from State) CanTransition(to State) bool {
	switch from {
	case StateIdle, StateSuccess, StateError:
		return to == StateLoading
	case StateLoading:
		return to == StateSuccess || to == StateError
	}
	return false
}

// SourceStatus is the last known state of a feed.
type SourceStatus struct {
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Status maps every feed to its state.
type Status map[Source]SourceStatus

type tracker struct {
	mu    sync.Mutex
	users map[string]Status
	now   func() time.Time
}

func newTracker(now func() time.Time) *tracker {
	return &tracker{users: make(map[string]Status), now: now}
}

// begin moves every feed of user to loading. It fails without side effects when any
// feed is already loading.
func (t *tracker) begin(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	status := t.statusLocked(userID)
	for _, src := range Sources {
		if !status[src].State.CanTransition(StateLoading) {
			return false
		}
	}
	for _, src := range Sources {
		status[src] = SourceStatus{State: StateLoading, UpdatedAt: t.now().UTC()}
	}
	t.users[userID] = status
	return true
}

func (t *tracker) finish(userID string, src Source, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	status := t.statusLocked(userID)
	next := SourceStatus{State: StateSuccess, UpdatedAt: t.now().UTC()}
	if err != nil {
		next.State = StateError
		next.Error = err.Error()
	}
	if !status[src].State.CanTransition(next.State) {
		return
	}
	status[src] = next
	t.users[userID] = status
}

func (t *tracker) snapshot(userID string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(Status, len(Sources))
	for src, st := range t.statusLocked(userID) {
		out[src] = st
	}
	return out
}

func (t *tracker) statusLocked(userID string) Status {
	status, ok := t.users[userID]
	if !ok {
		status = make(Status, len(Sources))
		for _, src := range Sources {
			status[src] = SourceStatus{State: StateIdle}
		}
	}
	return status
}
