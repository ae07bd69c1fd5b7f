package ec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

type EC2API interface {
	DescribeInstances(ctx context.Context, params *awsec2.DescribeInstancesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeInstancesOutput, error)
	ModifyInstanceAttribute(ctx context.Context, params *awsec2.ModifyInstanceAttributeInput, optFns ...func(*awsec2.Options)) (*awsec2.ModifyInstanceAttributeOutput, error)
}

type Client struct {
	api EC2API
}

func NewClient(api EC2API) *Client {
	return &Client{api: api}
}

func (c *Client) GetInstance(ctx context.Context, instanceID string) (Instance, error) {
	out, err := c.api.DescribeInstances(ctx, &awsec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return Instance{}, fmt.Errorf("DescribeInstances: %w", err)
	}

	for _, reservation := range out.Reservations {
		if len(reservation.Instances) > 0 {
			return convertInstance(reservation.Instances[0]), nil
		}
	}
	return Instance{}, fmt.Errorf("DescribeInstances: instance %s not found", instanceID)
}

func convertInstance(inst types.Instance) Instance {
	name := ""
	for _, tag := range inst.Tags {
		if aws.ToString(tag.Key) == "Name" {
			name = aws.ToString(tag.Value)
			break
		}
	}

	state := ""
	if inst.State != nil {
		state = string(inst.State.Name)
	}

	groups := make([]string, 0, len(inst.SecurityGroups))
	for _, sg := range inst.SecurityGroups {
		groups = append(groups, aws.ToString(sg.GroupId))
	}

	return Instance{
		InstanceID: aws.ToString(inst.InstanceId),
		Name:       name,
		Type:       string(inst.InstanceType),
		State:      state,
		PrivateIP:  aws.ToString(inst.PrivateIpAddress),
		// An unset flag means the default, which is enabled.
		SourceDestCheck:  inst.SourceDestCheck == nil || *inst.SourceDestCheck,
		SecurityGroupIDs: groups,
		VPCID:            aws.ToString(inst.VpcId),
	}
}

// DisableSourceDestCheck turns off the source/destination check so the
// instance can forward traffic it did not originate.
func (c *Client) DisableSourceDestCheck(ctx context.Context, instanceID string) error {
	_, err := c.api.ModifyInstanceAttribute(ctx, &awsec2.ModifyInstanceAttributeInput{
		InstanceId:      aws.String(instanceID),
		SourceDestCheck: &types.AttributeBooleanValue{Value: aws.Bool(false)},
	})
	if err != nil {
		return fmt.Errorf("ModifyInstanceAttribute: %w", err)
	}
	return nil
}
