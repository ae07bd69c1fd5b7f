package cfn

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
)

type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
	DescribeStackEvents(ctx context.Context, params *cloudformation.DescribeStackEventsInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStackEventsOutput, error)
}

type Client struct {
	api CloudFormationAPI
}

func NewClient(api CloudFormationAPI) *Client {
	return &Client{api: api}
}

func (c *Client) DescribeStack(ctx context.Context, name string) (Stack, error) {
	out, err := c.api.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(name),
	})
	if err != nil {
		return Stack{}, fmt.Errorf("DescribeStacks: %w", err)
	}
	if len(out.Stacks) == 0 {
		return Stack{}, fmt.Errorf("DescribeStacks: stack %s not found", name)
	}

	s := out.Stacks[0]
	stack := Stack{
		Name:         aws.ToString(s.StackName),
		ID:           aws.ToString(s.StackId),
		Status:       string(s.StackStatus),
		StatusReason: aws.ToString(s.StackStatusReason),
	}
	if s.CreationTime != nil {
		stack.CreatedAt = *s.CreationTime
	}
	if s.LastUpdatedTime != nil {
		stack.UpdatedAt = *s.LastUpdatedTime
	}
	for _, o := range s.Outputs {
		stack.Outputs = append(stack.Outputs, Output{
			Key:         aws.ToString(o.OutputKey),
			Value:       aws.ToString(o.OutputValue),
			Description: aws.ToString(o.Description),
		})
	}
	return stack, nil
}

// CreateStack starts stack creation and returns the new stack's ID.
// A failed creation is left in place for inspection.
func (c *Client) CreateStack(ctx context.Context, in StackInput) (string, error) {
	out, err := c.api.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:    aws.String(in.Name),
		TemplateBody: optional(in.TemplateBody),
		TemplateURL:  optional(in.TemplateURL),
		Parameters:   convertParameters(in.Parameters),
		Capabilities: convertCapabilities(in.Capabilities),
		Tags:         convertTags(in.Tags),
		OnFailure:    types.OnFailureDoNothing,
	})
	if err != nil {
		return "", fmt.Errorf("CreateStack: %w", err)
	}
	return aws.ToString(out.StackId), nil
}

// UpdateStack starts a stack update. Use IsNoUpdates on the error to tell
// an unchanged template apart from a real failure.
func (c *Client) UpdateStack(ctx context.Context, in StackInput) (string, error) {
	out, err := c.api.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:    aws.String(in.Name),
		TemplateBody: optional(in.TemplateBody),
		TemplateURL:  optional(in.TemplateURL),
		Parameters:   convertParameters(in.Parameters),
		Capabilities: convertCapabilities(in.Capabilities),
		Tags:         convertTags(in.Tags),
	})
	if err != nil {
		return "", fmt.Errorf("UpdateStack: %w", err)
	}
	return aws.ToString(out.StackId), nil
}

// IsNoUpdates reports whether err is CloudFormation refusing an update
// because the template and parameters are unchanged.
func IsNoUpdates(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "ValidationError" &&
		strings.Contains(apiErr.ErrorMessage(), "No updates are to be performed")
}

// FailedEvents returns the stack's most recent failed resource events,
// newest first, skipping resources cancelled because a sibling failed.
func (c *Client) FailedEvents(ctx context.Context, name string, limit int) ([]StackEvent, error) {
	out, err := c.api.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{
		StackName: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("DescribeStackEvents: %w", err)
	}

	var events []StackEvent
	for _, e := range out.StackEvents {
		status := string(e.ResourceStatus)
		reason := aws.ToString(e.ResourceStatusReason)
		if !strings.HasSuffix(status, "_FAILED") || strings.Contains(reason, "cancelled") {
			continue
		}
		ev := StackEvent{
			LogicalID: aws.ToString(e.LogicalResourceId),
			Type:      aws.ToString(e.ResourceType),
			Status:    status,
			Reason:    reason,
		}
		if e.Timestamp != nil {
			ev.Timestamp = *e.Timestamp
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// String renders the event as a single log-friendly line.
func (e StackEvent) String() string {
	return strings.TrimSpace(strings.Join([]string{e.Status, e.Type, e.LogicalID, e.Reason}, " "))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

func convertParameters(params []Parameter) []types.Parameter {
	out := make([]types.Parameter, 0, len(params))
	for _, p := range params {
		out = append(out, types.Parameter{
			ParameterKey:   aws.String(p.Key),
			ParameterValue: aws.String(p.Value),
		})
	}
	return out
}

func convertCapabilities(caps []string) []types.Capability {
	out := make([]types.Capability, 0, len(caps))
	for _, c := range caps {
		out = append(out, types.Capability(c))
	}
	return out
}

func convertTags(tags map[string]string) []types.Tag {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}
