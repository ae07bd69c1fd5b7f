package events

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
)

type EventBridgeAPI interface {
	DescribeRule(ctx context.Context, params *eventbridge.DescribeRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.DescribeRuleOutput, error)
	DisableRule(ctx context.Context, params *eventbridge.DisableRuleInput, optFns ...func(*eventbridge.Options)) (*eventbridge.DisableRuleOutput, error)
}

type Client struct {
	api EventBridgeAPI
}

func NewClient(api EventBridgeAPI) *Client {
	return &Client{api: api}
}

func (c *Client) DescribeRule(ctx context.Context, name string) (Rule, error) {
	out, err := c.api.DescribeRule(ctx, &eventbridge.DescribeRuleInput{
		Name: aws.String(name),
	})
	if err != nil {
		return Rule{}, fmt.Errorf("DescribeRule: %w", err)
	}
	return Rule{
		Name:               aws.ToString(out.Name),
		ARN:                aws.ToString(out.Arn),
		State:              string(out.State),
		ScheduleExpression: aws.ToString(out.ScheduleExpression),
	}, nil
}

// DisableRule stops the rule from firing. Disabling an already disabled
// rule succeeds.
func (c *Client) DisableRule(ctx context.Context, name string) error {
	_, err := c.api.DisableRule(ctx, &eventbridge.DisableRuleInput{
		Name: aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("DisableRule: %w", err)
	}
	return nil
}
