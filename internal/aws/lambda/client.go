package lambda

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
)

type LambdaAPI interface {
	PutFunctionConcurrency(ctx context.Context, params *awslambda.PutFunctionConcurrencyInput, optFns ...func(*awslambda.Options)) (*awslambda.PutFunctionConcurrencyOutput, error)
	GetFunctionConcurrency(ctx context.Context, params *awslambda.GetFunctionConcurrencyInput, optFns ...func(*awslambda.Options)) (*awslambda.GetFunctionConcurrencyOutput, error)
}

type Client struct {
	api LambdaAPI
}

func NewClient(api LambdaAPI) *Client {
	return &Client{api: api}
}

// DisableFunction sets reserved concurrency to zero, which throttles every
// further invocation of the function.
func (c *Client) DisableFunction(ctx context.Context, functionName string) error {
	_, err := c.api.PutFunctionConcurrency(ctx, &awslambda.PutFunctionConcurrencyInput{
		FunctionName:                 aws.String(functionName),
		ReservedConcurrentExecutions: aws.Int32(0),
	})
	if err != nil {
		return fmt.Errorf("PutFunctionConcurrency: %w", err)
	}
	return nil
}

// ReservedConcurrency returns the function's reserved concurrency, or -1
// when none is configured.
func (c *Client) ReservedConcurrency(ctx context.Context, functionName string) (int32, error) {
	out, err := c.api.GetFunctionConcurrency(ctx, &awslambda.GetFunctionConcurrencyInput{
		FunctionName: aws.String(functionName),
	})
	if err != nil {
		return 0, fmt.Errorf("GetFunctionConcurrency: %w", err)
	}
	if out.ReservedConcurrentExecutions == nil {
		return -1, nil
	}
	return *out.ReservedConcurrentExecutions, nil
}
