package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"natify.dev/natify/internal/aws/cfn"
)

type Waiter interface {
	Wait(ctx context.Context) error
}

type StackDeployer interface {
	Deploy(ctx context.Context, req StackRequest, m *Machine) (cfn.Stack, error)
}

type StackResult struct {
	Name     string
	State    State
	Stack    cfn.Stack
	Duration time.Duration
	Err      error
}

// Report is the outcome of a run. Stacks after the first failure are
// absent.
type Report struct {
	Gate   State
	Stacks []StackResult
}

func (r Report) Succeeded() bool {
	if r.Gate != StateDeploying {
		return false
	}
	for _, s := range r.Stacks {
		if s.State != StateSuccess {
			return false
		}
	}
	return true
}

type RunnerOption func(*Runner)

// WithGate makes the run wait for a signal before deploying anything.
func WithGate(gate Waiter) RunnerOption {
	return func(r *Runner) {
		r.gate = gate
	}
}

func WithObserver(fn func(Transition)) RunnerOption {
	return func(r *Runner) {
		r.observer = fn
	}
}

func WithMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// Runner deploys a plan's stacks strictly in order and stops at the first
// failure.
type Runner struct {
	deployer StackDeployer
	gate     Waiter
	observer func(Transition)
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewRunner(deployer StackDeployer, opts ...RunnerOption) *Runner {
	r := &Runner{
		deployer: deployer,
		observer: func(Transition) {},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Run(ctx context.Context, plan *Plan) (Report, error) {
	var report Report

	gate := NewMachine("", StateWaitingForSignal, r.observe)
	if err := r.signal(ctx, gate); err != nil {
		report.Gate = gate.State()
		return report, err
	}
	report.Gate = gate.State()

	for _, req := range plan.Stacks {
		result := r.deployStack(ctx, req)
		report.Stacks = append(report.Stacks, result)
		if result.Err != nil {
			return report, fmt.Errorf("deploying %s: %w", req.Name, result.Err)
		}
	}
	return report, nil
}

func (r *Runner) signal(ctx context.Context, gate *Machine) error {
	if r.gate == nil {
		return gate.To(StateDeploying, "gate skipped")
	}

	if err := r.gate.Wait(ctx); err != nil {
		r.logger.Error("deployment aborted", slog.String("error", err.Error()))
		if terr := gate.To(StateAborted, err.Error()); terr != nil {
			return terr
		}
		r.observeGate(StateAborted)
		return err
	}
	r.observeGate(StateDeploying)
	return gate.To(StateDeploying, "ci green")
}

func (r *Runner) deployStack(ctx context.Context, req StackRequest) StackResult {
	start := r.now()
	r.observe(Transition{Stack: req.Name, To: StateDeploying, At: start})

	m := NewMachine(req.Name, StateDeploying, r.observe)
	stack, err := r.deployer.Deploy(ctx, req, m)

	result := StackResult{
		Name:     req.Name,
		State:    m.State(),
		Stack:    stack,
		Duration: r.now().Sub(start),
		Err:      err,
	}
	if r.metrics != nil {
		r.metrics.ObserveStack(req.Name, result.State, result.Duration)
	}

	attrs := []any{
		slog.String("stack", req.Name),
		slog.String("state", string(result.State)),
		slog.Duration("duration", result.Duration),
	}
	if err != nil {
		r.logger.Error("stack deployment failed", append(attrs, slog.String("error", err.Error()))...)
	} else {
		r.logger.Info("stack deployed", attrs...)
	}
	return result
}

func (r *Runner) observe(t Transition) {
	r.observer(t)
}

func (r *Runner) observeGate(state State) {
	if r.metrics != nil {
		r.metrics.ObserveGate(state)
	}
}
