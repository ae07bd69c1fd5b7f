package deploy

import (
	"errors"
	"fmt"
	"strings"

	"natify.dev/natify/internal/aws/cfn"
)

var (
	ErrGateFailed    = errors.New("ci gate failed")
	ErrStackFailed   = errors.New("stack deployment failed")
	ErrPollExhausted = errors.New("stack status polling exhausted")
)

// StackFailedError carries the terminal status of a failed stack and its
// most recent failed resource events.
type StackFailedError struct {
	Stack  string
	Status string
	Reason string
	Events []cfn.StackEvent
}

func (e *StackFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stack %s failed with status %s", e.Stack, e.Status)
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	for _, ev := range e.Events {
		b.WriteString("\n  ")
		b.WriteString(ev.String())
	}
	return b.String()
}

func (e *StackFailedError) Unwrap() error {
	return ErrStackFailed
}
