package ssm

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
)

type SSMAPI interface {
	GetParameter(ctx context.Context, params *awsssm.GetParameterInput, optFns ...func(*awsssm.Options)) (*awsssm.GetParameterOutput, error)
}

type Client struct {
	api SSMAPI
}

func NewClient(api SSMAPI) *Client {
	return &Client{api: api}
}

// VPCIDParameter is the parameter path under which the landing zone
// publishes a VPC's ID.
func VPCIDParameter(vpcName string) string {
	return fmt.Sprintf("/accelerator/network/vpc/%s/id", vpcName)
}

func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	out, err := c.api.GetParameter(ctx, &awsssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("GetParameter: %w", err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("GetParameter: parameter %s has no value", name)
	}
	return aws.ToString(out.Parameter.Value), nil
}

// LookupVPCID resolves a VPC name to its ID through Parameter Store.
func (c *Client) LookupVPCID(ctx context.Context, vpcName string) (string, error) {
	return c.GetParameter(ctx, VPCIDParameter(vpcName))
}
