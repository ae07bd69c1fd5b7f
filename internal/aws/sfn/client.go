package sfn

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssfn "github.com/aws/aws-sdk-go-v2/service/sfn"
)

type SFNAPI interface {
	ListStateMachines(ctx context.Context, params *awssfn.ListStateMachinesInput, optFns ...func(*awssfn.Options)) (*awssfn.ListStateMachinesOutput, error)
	DescribeStateMachine(ctx context.Context, params *awssfn.DescribeStateMachineInput, optFns ...func(*awssfn.Options)) (*awssfn.DescribeStateMachineOutput, error)
	UpdateStateMachine(ctx context.Context, params *awssfn.UpdateStateMachineInput, optFns ...func(*awssfn.Options)) (*awssfn.UpdateStateMachineOutput, error)
}

type Client struct {
	api SFNAPI
}

func NewClient(api SFNAPI) *Client {
	return &Client{api: api}
}

// ListStateMachines returns the first page of state machines only. Accounts
// with more machines than one page holds will not see the rest.
func (c *Client) ListStateMachines(ctx context.Context) ([]StateMachine, error) {
	out, err := c.api.ListStateMachines(ctx, &awssfn.ListStateMachinesInput{})
	if err != nil {
		return nil, fmt.Errorf("ListStateMachines: %w", err)
	}

	machines := make([]StateMachine, 0, len(out.StateMachines))
	for _, sm := range out.StateMachines {
		m := StateMachine{
			Name: aws.ToString(sm.Name),
			ARN:  aws.ToString(sm.StateMachineArn),
			Type: string(sm.Type),
		}
		if sm.CreationDate != nil {
			m.CreatedAt = *sm.CreationDate
		}
		machines = append(machines, m)
	}
	return machines, nil
}

func (c *Client) DescribeStateMachine(ctx context.Context, arn string) (StateMachineDetail, error) {
	out, err := c.api.DescribeStateMachine(ctx, &awssfn.DescribeStateMachineInput{
		StateMachineArn: aws.String(arn),
	})
	if err != nil {
		return StateMachineDetail{}, fmt.Errorf("DescribeStateMachine: %w", err)
	}

	d := StateMachineDetail{
		StateMachine: StateMachine{
			Name: aws.ToString(out.Name),
			ARN:  aws.ToString(out.StateMachineArn),
			Type: string(out.Type),
		},
		Status:     string(out.Status),
		Definition: aws.ToString(out.Definition),
	}
	if out.CreationDate != nil {
		d.CreatedAt = *out.CreationDate
	}
	return d, nil
}

// UpdateDefinition replaces the state machine's definition in place.
func (c *Client) UpdateDefinition(ctx context.Context, arn, definition string) error {
	_, err := c.api.UpdateStateMachine(ctx, &awssfn.UpdateStateMachineInput{
		StateMachineArn: aws.String(arn),
		Definition:      aws.String(definition),
	})
	if err != nil {
		return fmt.Errorf("UpdateStateMachine: %w", err)
	}
	return nil
}
