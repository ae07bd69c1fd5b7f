package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"natify.dev/natify/internal/aws/cfn"
	"natify.dev/natify/internal/utils"
)

const (
	DefaultPollInterval = 10 * time.Second
	failedEventLimit    = 10
)

// PollPolicy is a fixed-interval polling schedule. MaxAttempts of zero
// polls until a terminal result or context cancellation.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

func (p PollPolicy) backoff() retry.Backoff {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	b := retry.NewConstant(interval)
	if p.MaxAttempts > 0 {
		b = retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
	}
	return b
}

type Outcome int

const (
	OutcomeInProgress Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

// Classify maps a stack status to a poll outcome. Failure is checked
// first so that ROLLBACK_COMPLETE and its kin count as failures.
func Classify(status string) Outcome {
	switch {
	case strings.Contains(status, "FAILED"), strings.Contains(status, "ROLLBACK"):
		return OutcomeFailed
	case strings.HasSuffix(status, "_COMPLETE"):
		return OutcomeSucceeded
	default:
		return OutcomeInProgress
	}
}

type StackDescriber interface {
	DescribeStack(ctx context.Context, name string) (cfn.Stack, error)
	FailedEvents(ctx context.Context, name string, limit int) ([]cfn.StackEvent, error)
}

type Poller struct {
	api      StackDescriber
	policy   PollPolicy
	logger   *slog.Logger
	onStatus func(stack, status string, attempt int)
}

func NewPoller(api StackDescriber, policy PollPolicy, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{api: api, policy: policy, logger: logger}
}

// OnStatus registers a callback invoked with every observed status.
func (p *Poller) OnStatus(fn func(stack, status string, attempt int)) {
	p.onStatus = fn
}

var errStillInProgress = errors.New("stack operation in progress")

// Wait polls the stack until it reaches a terminal status. A lookup error
// ends polling immediately. A failed stack returns a *StackFailedError.
func (p *Poller) Wait(ctx context.Context, name string) (cfn.Stack, error) {
	var (
		last    cfn.Stack
		attempt int
	)

	err := retry.Do(ctx, p.policy.backoff(), func(ctx context.Context) error {
		attempt++
		stack, err := p.api.DescribeStack(ctx, name)
		if err != nil {
			return err
		}
		last = stack

		p.logger.Info("stack status",
			slog.String("stack", name),
			slog.String("status", stack.Status),
			slog.Int("attempt", attempt),
		)
		if p.onStatus != nil {
			p.onStatus(name, stack.Status, attempt)
		}

		switch Classify(stack.Status) {
		case OutcomeSucceeded:
			return nil
		case OutcomeFailed:
			return p.failure(ctx, stack)
		default:
			return retry.RetryableError(errStillInProgress)
		}
	})

	switch {
	case err == nil:
		return last, nil
	case errors.Is(err, errStillInProgress):
		return last, fmt.Errorf("%w: %s still %s after %d attempts", ErrPollExhausted, name, last.Status, attempt)
	default:
		return last, err
	}
}

func (p *Poller) failure(ctx context.Context, stack cfn.Stack) error {
	failed := &StackFailedError{
		Stack:  stack.Name,
		Status: stack.Status,
		Reason: stack.StatusReason,
	}
	if failed.Stack == "" {
		failed.Stack = utils.ShortName(stack.ID)
	}

	events, err := p.api.FailedEvents(ctx, stack.Name, failedEventLimit)
	if err != nil {
		p.logger.Warn("could not fetch failed stack events",
			slog.String("stack", stack.Name),
			slog.String("error", err.Error()),
		)
	}
	failed.Events = events
	return failed
}
