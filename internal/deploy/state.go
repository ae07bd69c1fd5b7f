package deploy

import (
	"fmt"
	"time"
)

type State string

const (
	StateWaitingForSignal State = "WAITING_FOR_SIGNAL"
	StateAborted          State = "ABORTED"
	StateDeploying        State = "DEPLOYING"
	StateStackCreate      State = "STACK_CREATE"
	StateStackUpdate      State = "STACK_UPDATE"
	StatePolling          State = "POLLING"
	StateSuccess          State = "SUCCESS"
	StateFailed           State = "FAILED"
)

// transitions lists the legal next states. The gate runs once per
// deployment; every stack then walks DEPLOYING to a terminal state.
// An update with nothing to change goes straight to SUCCESS.
var transitions = map[State][]State{
	StateWaitingForSignal: {StateDeploying, StateAborted},
	StateDeploying:        {StateStackCreate, StateStackUpdate, StateFailed},
	StateStackCreate:      {StatePolling, StateFailed},
	StateStackUpdate:      {StatePolling, StateSuccess, StateFailed},
	StatePolling:          {StateSuccess, StateFailed},
}

func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailed || s == StateAborted
}

// Transition is one state change, reported to observers as it happens.
type Transition struct {
	Stack  string // empty for the gate
	From   State
	To     State
	Detail string
	At     time.Time
}

// Machine tracks one state machine instance and rejects illegal moves.
type Machine struct {
	stack    string
	state    State
	observer func(Transition)
	now      func() time.Time
}

func NewMachine(stack string, initial State, observer func(Transition)) *Machine {
	if observer == nil {
		observer = func(Transition) {}
	}
	return &Machine{stack: stack, state: initial, observer: observer, now: time.Now}
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) To(next State, detail string) error {
	if !m.state.CanTransition(next) {
		return fmt.Errorf("invalid transition %s -> %s", m.state, next)
	}
	t := Transition{Stack: m.stack, From: m.state, To: next, Detail: detail, At: m.now()}
	m.state = next
	m.observer(t)
	return nil
}
