package api

import (
	"net/http"
	"sync"
)

// ActivityIndicator is told when a request starts and when it ends.
// status is the HTTP status code, or 0 when the request never got a response.
type ActivityIndicator interface {
	Start()
	End(status int)
}

type noActivity struct{}

func (noActivity) Start()  {}
func (noActivity) End(int) {}

// ActivityState is the visible state of the global activity indicator.
type ActivityState string

const (
	ActivityIdle    ActivityState = "idle"
	ActivityBusy    ActivityState = "busy"
	ActivitySuccess ActivityState = "success"
	ActivityError   ActivityState = "error"
)

// ActivityCounter counts in-flight requests. When the last one finishes
// the state becomes success for a 200 and error for anything else.
type ActivityCounter struct {
	mu       sync.Mutex
	active   int
	state    ActivityState
	onChange func(ActivityState)
}

// NewActivityCounter returns an idle counter. onChange may be nil.
func NewActivityCounter(onChange func(ActivityState)) *ActivityCounter {
	return &ActivityCounter{state: ActivityIdle, onChange: onChange}
}

// Start implements ActivityIndicator.
func (a *ActivityCounter) Start() {
	a.mu.Lock()
	a.active++
	a.set(ActivityBusy)
	a.mu.Unlock()
}

// End implements ActivityIndicator.
func (a *ActivityCounter) End(status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active > 0 {
		a.active--
	}
	if a.active > 0 {
		return
	}
	if status == http.StatusOK {
		a.set(ActivitySuccess)
	} else {
		a.set(ActivityError)
	}
}

// Active returns the number of in-flight requests.
func (a *ActivityCounter) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// State returns the current indicator state.
func (a *ActivityCounter) State() ActivityState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *ActivityCounter) set(s ActivityState) {
	a.state = s
	if a.onChange != nil {
		a.onChange(s)
	}
}
