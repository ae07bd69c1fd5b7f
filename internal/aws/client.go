package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	awss3sdk "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	awscfn "natify.dev/natify/internal/aws/cfn"
	awsec2 "natify.dev/natify/internal/aws/ec2"
	awsevents "natify.dev/natify/internal/aws/events"
	awslambda "natify.dev/natify/internal/aws/lambda"
	awslogs "natify.dev/natify/internal/aws/logs"
	awss3 "natify.dev/natify/internal/aws/s3"
	awssfn "natify.dev/natify/internal/aws/sfn"
	awsssm "natify.dev/natify/internal/aws/ssm"
	awsvpc "natify.dev/natify/internal/aws/vpc"
)

type ServiceClient struct {
	Region         string
	EC2            *awsec2.Client
	VPC            *awsvpc.Client
	SFN            *awssfn.Client
	Events         *awsevents.Client
	CloudFormation *awscfn.Client
	SSM            *awsssm.Client
	Lambda         *awslambda.Client
	S3             *awss3.Client
	Logs           *awslogs.Client
}

func NewServiceClient(ctx context.Context, profile, region string) (*ServiceClient, error) {
	cfg, err := LoadConfig(ctx, profile, region)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg), nil
}

// NewFromConfig wires every service client from an already loaded config.
// Lambda handlers use it with the config resolved from the execution role.
func NewFromConfig(cfg aws.Config) *ServiceClient {
	ec2Client := ec2.NewFromConfig(cfg)

	return &ServiceClient{
		Region:         cfg.Region,
		EC2:            awsec2.NewClient(ec2Client),
		VPC:            awsvpc.NewClient(ec2Client),
		SFN:            awssfn.NewClient(sfn.NewFromConfig(cfg)),
		Events:         awsevents.NewClient(eventbridge.NewFromConfig(cfg)),
		CloudFormation: awscfn.NewClient(cloudformation.NewFromConfig(cfg)),
		SSM:            awsssm.NewClient(ssm.NewFromConfig(cfg)),
		Lambda:         awslambda.NewClient(lambda.NewFromConfig(cfg)),
		S3:             awss3.NewClient(awss3sdk.NewFromConfig(cfg)),
		Logs:           awslogs.NewClient(cloudwatchlogs.NewFromConfig(cfg)),
	}
}
