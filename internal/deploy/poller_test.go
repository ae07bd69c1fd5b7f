package deploy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"natify.dev/natify/internal/aws/cfn"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		status string
		want   Outcome
	}{
		{"CREATE_COMPLETE", OutcomeSucceeded},
		{"UPDATE_COMPLETE", OutcomeSucceeded},
		{"IMPORT_COMPLETE", OutcomeSucceeded},
		{"ROLLBACK_COMPLETE", OutcomeFailed},
		{"UPDATE_ROLLBACK_COMPLETE", OutcomeFailed},
		{"CREATE_FAILED", OutcomeFailed},
		{"ROLLBACK_IN_PROGRESS", OutcomeFailed},
		{"UPDATE_COMPLETE_CLEANUP_IN_PROGRESS", OutcomeInProgress},
		{"CREATE_IN_PROGRESS", OutcomeInProgress},
		{"", OutcomeInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.status))
		})
	}
}

func TestPollerWait_Complete(t *testing.T) {
	api := &mockStackAPI{exists: true, statuses: []string{"CREATE_COMPLETE"}}
	logger, _ := testLogger()

	stack, err := NewPoller(api, fastPolicy(5), logger).Wait(context.Background(), "NatifyStack")
	require.NoError(t, err)
	assert.Equal(t, "CREATE_COMPLETE", stack.Status)
	assert.Equal(t, 1, api.describeCalls)
}

func TestPollerWait_PollsAgainWhileInProgress(t *testing.T) {
	api := &mockStackAPI{exists: true, statuses: []string{"CREATE_IN_PROGRESS", "CREATE_IN_PROGRESS", "CREATE_COMPLETE"}}
	logger, buf := testLogger()

	var seen []string
	p := NewPoller(api, fastPolicy(5), logger)
	p.OnStatus(func(stack, status string, attempt int) { seen = append(seen, status) })

	stack, err := p.Wait(context.Background(), "NatifyStack")
	require.NoError(t, err)
	assert.Equal(t, "CREATE_COMPLETE", stack.Status)
	assert.Equal(t, 3, api.describeCalls)
	assert.Equal(t, []string{"CREATE_IN_PROGRESS", "CREATE_IN_PROGRESS", "CREATE_COMPLETE"}, seen)
	assert.Contains(t, buf.String(), "attempt=3")
}

func TestPollerWait_Rollback(t *testing.T) {
	events := []cfn.StackEvent{{
		LogicalID: "NatInstance",
		Type:      "AWS::EC2::Instance",
		Status:    "CREATE_FAILED",
		Reason:    "Instance type not supported",
	}}
	api := &mockStackAPI{exists: true, statuses: []string{"CREATE_IN_PROGRESS", "ROLLBACK_COMPLETE"}, events: events}
	logger, _ := testLogger()

	_, err := NewPoller(api, fastPolicy(5), logger).Wait(context.Background(), "NatifyStack")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStackFailed))

	var failed *StackFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, "ROLLBACK_COMPLETE", failed.Status)
	assert.Equal(t, events, failed.Events)
	assert.Contains(t, err.Error(), "Instance type not supported")
	assert.Equal(t, 2, api.describeCalls)
}

func TestPollerWait_DescribeErrorStopsPolling(t *testing.T) {
	api := &mockStackAPI{exists: true, describeErr: errors.New("DescribeStacks: throttled")}
	logger, _ := testLogger()

	_, err := NewPoller(api, fastPolicy(5), logger).Wait(context.Background(), "NatifyStack")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.Equal(t, 1, api.describeCalls)
}

func TestPollerWait_Exhausted(t *testing.T) {
	api := &mockStackAPI{exists: true, statuses: []string{"UPDATE_IN_PROGRESS"}}
	logger, _ := testLogger()

	stack, err := NewPoller(api, fastPolicy(3), logger).Wait(context.Background(), "NatifyStack")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPollExhausted))
	assert.Equal(t, "UPDATE_IN_PROGRESS", stack.Status)
	assert.Equal(t, 3, api.describeCalls)
}

func TestPollerWait_ContextCancelled(t *testing.T) {
	api := &mockStackAPI{exists: true, statuses: []string{"UPDATE_IN_PROGRESS"}}
	logger, _ := testLogger()

	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(api, PollPolicy{Interval: time.Hour}, logger)
	p.OnStatus(func(string, string, int) { cancel() })

	_, err := p.Wait(ctx, "NatifyStack")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPollPolicy_NonPositiveIntervalUsesDefault(t *testing.T) {
	b := PollPolicy{}.backoff()
	d, stop := b.Next()
	assert.False(t, stop)
	assert.Equal(t, DefaultPollInterval, d)
}
