package sfn

import "time"

type StateMachine struct {
	Name      string
	ARN       string
	Type      string
	CreatedAt time.Time
}

type StateMachineDetail struct {
	StateMachine
	Status     string
	Definition string
}
