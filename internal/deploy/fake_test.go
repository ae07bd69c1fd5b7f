package deploy

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/aws/smithy-go"

	"natify.dev/natify/internal/aws/cfn"
	"natify.dev/natify/internal/aws/s3"
)

// mockStackAPI replays a scripted sequence of stack statuses. A missing
// stack answers DescribeStacks with a validation error, which is what
// CloudFormation does.
type mockStackAPI struct {
	exists      bool
	statuses    []string
	outputs     []cfn.Output
	describeErr error
	createErr   error
	updateErr   error
	events      []cfn.StackEvent

	describeCalls int
	created       []cfn.StackInput
	updated       []cfn.StackInput
}

func (m *mockStackAPI) DescribeStack(ctx context.Context, name string) (cfn.Stack, error) {
	m.describeCalls++
	if m.describeErr != nil {
		return cfn.Stack{}, m.describeErr
	}
	if !m.exists {
		return cfn.Stack{}, &smithy.GenericAPIError{Code: "ValidationError", Message: "Stack with id " + name + " does not exist"}
	}

	status := "CREATE_COMPLETE"
	if len(m.statuses) > 0 {
		status = m.statuses[0]
		if len(m.statuses) > 1 {
			m.statuses = m.statuses[1:]
		}
	}
	return cfn.Stack{Name: name, ID: "arn:aws:cloudformation:us-east-1:123:stack/" + name + "/x", Status: status, Outputs: m.outputs}, nil
}

func (m *mockStackAPI) FailedEvents(ctx context.Context, name string, limit int) ([]cfn.StackEvent, error) {
	return m.events, nil
}

func (m *mockStackAPI) CreateStack(ctx context.Context, in cfn.StackInput) (string, error) {
	m.created = append(m.created, in)
	if m.createErr != nil {
		return "", m.createErr
	}
	m.exists = true
	return "stack-id", nil
}

func (m *mockStackAPI) UpdateStack(ctx context.Context, in cfn.StackInput) (string, error) {
	m.updated = append(m.updated, in)
	if m.updateErr != nil {
		return "", m.updateErr
	}
	return "stack-id", nil
}

type mockUploader struct {
	uri      s3.URI
	stack    string
	template string
}

func (m *mockUploader) UploadTemplate(ctx context.Context, uri s3.URI, stackName, template string) (string, error) {
	m.uri, m.stack, m.template = uri, stackName, template
	return "https://s3.amazonaws.com/" + uri.Bucket + "/" + uri.Key(stackName+"/template"), nil
}

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func fastPolicy(attempts int) PollPolicy {
	return PollPolicy{Interval: time.Millisecond, MaxAttempts: attempts}
}

func recordTransitions() (*[]Transition, func(Transition)) {
	var got []Transition
	return &got, func(t Transition) { got = append(got, t) }
}

func states(ts []Transition) []State {
	out := make([]State, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.To)
	}
	return out
}
