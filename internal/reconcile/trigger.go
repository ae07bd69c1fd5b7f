package reconcile

import (
	"context"

	"natify.dev/natify/internal/aws/sfn"
)

// NoOpDefinition is a workflow with a single terminal Pass state. A state
// machine running it does nothing, but keeps its execution history.
const NoOpDefinition = `{"StartAt":"Done","States":{"Done":{"Type":"Pass","End":true}}}`

// StateMachineFinder resolves a state machine name to its ARN.
type StateMachineFinder interface {
	FindStateMachine(ctx context.Context, name string) (arn string, found bool, err error)
}

type stateMachineLister interface {
	ListStateMachines(ctx context.Context) ([]sfn.StateMachine, error)
}

// ListingFinder scans a single ListStateMachines page for an exact name
// match. Machines beyond the first page are not found.
type ListingFinder struct {
	lister stateMachineLister
}

func NewListingFinder(lister stateMachineLister) *ListingFinder {
	return &ListingFinder{lister: lister}
}

func (f *ListingFinder) FindStateMachine(ctx context.Context, name string) (string, bool, error) {
	machines, err := f.lister.ListStateMachines(ctx)
	if err != nil {
		return "", false, err
	}
	for _, m := range machines {
		if m.Name == name {
			return m.ARN, true, nil
		}
	}
	return "", false, nil
}

type DisarmResult struct {
	StateMachineARN string
	Found           bool
	RuleDisabled    bool
}

// Status is "disabled" when the trigger was disarmed and "not found" when
// there was nothing to disarm.
func (d DisarmResult) Status() string {
	if d.Found {
		return "disabled"
	}
	return "not found"
}

// Disarm makes the one-shot trigger inert: the named state machine's
// definition is swapped for NoOpDefinition and its schedule rule is
// disabled. A missing state machine is not an error, since an earlier
// invocation may already have disarmed it.
func (r *Reconciler) Disarm(ctx context.Context, stateMachineName, ruleName string) (DisarmResult, error) {
	if stateMachineName == "" {
		r.logger.Info("no state machine configured, skipping disarm")
		return DisarmResult{}, nil
	}

	arn, found, err := r.clients.Finder.FindStateMachine(ctx, stateMachineName)
	if err != nil {
		return DisarmResult{}, err
	}
	if !found {
		r.logger.Info("state machine not found, nothing to disarm",
			"state_machine", stateMachineName,
		)
		return DisarmResult{}, nil
	}

	res := DisarmResult{StateMachineARN: arn, Found: true}
	if err := r.clients.StateMachines.UpdateDefinition(ctx, arn, NoOpDefinition); err != nil {
		return res, err
	}
	r.logger.Info("state machine disarmed", "state_machine", stateMachineName, "arn", arn)

	if ruleName == "" {
		return res, nil
	}
	if err := r.clients.Rules.DisableRule(ctx, ruleName); err != nil {
		return res, err
	}
	res.RuleDisabled = true
	r.logger.Info("event rule disabled", "rule", ruleName)
	return res, nil
}
