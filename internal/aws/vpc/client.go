package vpc

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

type VPCAPI interface {
	DescribeVpcs(ctx context.Context, params *awsec2.DescribeVpcsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeVpcsOutput, error)
	DescribeSubnets(ctx context.Context, params *awsec2.DescribeSubnetsInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeSubnetsOutput, error)
	DescribeRouteTables(ctx context.Context, params *awsec2.DescribeRouteTablesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeRouteTablesOutput, error)
	CreateRoute(ctx context.Context, params *awsec2.CreateRouteInput, optFns ...func(*awsec2.Options)) (*awsec2.CreateRouteOutput, error)
	ReplaceRoute(ctx context.Context, params *awsec2.ReplaceRouteInput, optFns ...func(*awsec2.Options)) (*awsec2.ReplaceRouteOutput, error)
	AuthorizeSecurityGroupIngress(ctx context.Context, params *awsec2.AuthorizeSecurityGroupIngressInput, optFns ...func(*awsec2.Options)) (*awsec2.AuthorizeSecurityGroupIngressOutput, error)
	DescribeSecurityGroupRules(ctx context.Context, params *awsec2.DescribeSecurityGroupRulesInput, optFns ...func(*awsec2.Options)) (*awsec2.DescribeSecurityGroupRulesOutput, error)
}

type Client struct {
	api VPCAPI
}

func NewClient(api VPCAPI) *Client {
	return &Client{api: api}
}

func nameFromTags(tags []types.Tag) string {
	for _, tag := range tags {
		if aws.ToString(tag.Key) == "Name" {
			return aws.ToString(tag.Value)
		}
	}
	return ""
}

func convertTags(tags []types.Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, Tag{Key: aws.ToString(tag.Key), Value: aws.ToString(tag.Value)})
	}
	return out
}

// GetVPC fetches a single VPC by ID.
func (c *Client) GetVPC(ctx context.Context, vpcID string) (VPCInfo, error) {
	out, err := c.api.DescribeVpcs(ctx, &awsec2.DescribeVpcsInput{
		VpcIds: []string{vpcID},
	})
	if err != nil {
		return VPCInfo{}, fmt.Errorf("DescribeVpcs: %w", err)
	}
	if len(out.Vpcs) == 0 {
		return VPCInfo{}, fmt.Errorf("DescribeVpcs: vpc %s not found", vpcID)
	}

	v := out.Vpcs[0]
	return VPCInfo{
		VPCID: aws.ToString(v.VpcId),
		Name:  nameFromTags(v.Tags),
		CIDR:  aws.ToString(v.CidrBlock),
		State: string(v.State),
	}, nil
}

func (c *Client) ListSubnets(ctx context.Context, vpcID string) ([]SubnetInfo, error) {
	var subnets []SubnetInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeSubnets(ctx, &awsec2.DescribeSubnetsInput{
			Filters: []types.Filter{
				{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			},
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeSubnets: %w", err)
		}

		for _, s := range out.Subnets {
			subnets = append(subnets, SubnetInfo{
				SubnetID: aws.ToString(s.SubnetId),
				Name:     nameFromTags(s.Tags),
				CIDR:     aws.ToString(s.CidrBlock),
				AZ:       aws.ToString(s.AvailabilityZone),
				Tags:     convertTags(s.Tags),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return subnets, nil
}

// ListRouteTablesForSubnet returns the route tables explicitly associated
// with the subnet. A subnet that only uses the main table yields none.
func (c *Client) ListRouteTablesForSubnet(ctx context.Context, subnetID string) ([]RouteTableInfo, error) {
	return c.listRouteTables(ctx, types.Filter{
		Name:   aws.String("association.subnet-id"),
		Values: []string{subnetID},
	})
}

func (c *Client) ListRouteTables(ctx context.Context, vpcID string) ([]RouteTableInfo, error) {
	return c.listRouteTables(ctx, types.Filter{
		Name:   aws.String("vpc-id"),
		Values: []string{vpcID},
	})
}

func (c *Client) listRouteTables(ctx context.Context, filter types.Filter) ([]RouteTableInfo, error) {
	var tables []RouteTableInfo
	var nextToken *string

	for {
		out, err := c.api.DescribeRouteTables(ctx, &awsec2.DescribeRouteTablesInput{
			Filters:   []types.Filter{filter},
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeRouteTables: %w", err)
		}

		for _, rt := range out.RouteTables {
			info := RouteTableInfo{
				RouteTableID: aws.ToString(rt.RouteTableId),
				Name:         nameFromTags(rt.Tags),
			}
			for _, r := range rt.Routes {
				info.Routes = append(info.Routes, RouteEntry{
					Destination: routeDestination(r),
					Target:      routeTarget(r),
					Status:      string(r.State),
					Origin:      string(r.Origin),
				})
			}
			for _, a := range rt.Associations {
				if aws.ToBool(a.Main) {
					info.IsMain = true
				}
				if a.SubnetId == nil {
					continue
				}
				info.Associations = append(info.Associations, RouteTableAssociation{
					SubnetID: aws.ToString(a.SubnetId),
					IsMain:   aws.ToBool(a.Main),
				})
			}
			tables = append(tables, info)
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return tables, nil
}

func routeDestination(r types.Route) string {
	switch {
	case r.DestinationCidrBlock != nil:
		return aws.ToString(r.DestinationCidrBlock)
	case r.DestinationIpv6CidrBlock != nil:
		return aws.ToString(r.DestinationIpv6CidrBlock)
	default:
		return aws.ToString(r.DestinationPrefixListId)
	}
}

func routeTarget(r types.Route) string {
	for _, id := range []*string{
		r.InstanceId,
		r.NatGatewayId,
		r.GatewayId,
		r.TransitGatewayId,
		r.VpcPeeringConnectionId,
		r.NetworkInterfaceId,
		r.EgressOnlyInternetGatewayId,
		r.LocalGatewayId,
		r.CarrierGatewayId,
	} {
		if id != nil {
			return aws.ToString(id)
		}
	}
	return ""
}

// CreateRoute adds a route to destination via the given instance.
func (c *Client) CreateRoute(ctx context.Context, routeTableID, destination, instanceID string) error {
	_, err := c.api.CreateRoute(ctx, &awsec2.CreateRouteInput{
		RouteTableId:         aws.String(routeTableID),
		DestinationCidrBlock: aws.String(destination),
		InstanceId:           aws.String(instanceID),
	})
	if err != nil {
		return fmt.Errorf("CreateRoute: %w", err)
	}
	return nil
}

// ReplaceRoute repoints an existing route to the given instance.
func (c *Client) ReplaceRoute(ctx context.Context, routeTableID, destination, instanceID string) error {
	_, err := c.api.ReplaceRoute(ctx, &awsec2.ReplaceRouteInput{
		RouteTableId:         aws.String(routeTableID),
		DestinationCidrBlock: aws.String(destination),
		InstanceId:           aws.String(instanceID),
	})
	if err != nil {
		return fmt.Errorf("ReplaceRoute: %w", err)
	}
	return nil
}

// AuthorizeIngressFromCIDR allows all protocols and ports from cidr.
func (c *Client) AuthorizeIngressFromCIDR(ctx context.Context, groupID, cidr, description string) error {
	ipRange := types.IpRange{CidrIp: aws.String(cidr)}
	if description != "" {
		ipRange.Description = aws.String(description)
	}
	_, err := c.api.AuthorizeSecurityGroupIngress(ctx, &awsec2.AuthorizeSecurityGroupIngressInput{
		GroupId: aws.String(groupID),
		IpPermissions: []types.IpPermission{{
			IpProtocol: aws.String(AllProtocols),
			IpRanges:   []types.IpRange{ipRange},
		}},
	})
	if err != nil {
		return fmt.Errorf("AuthorizeSecurityGroupIngress: %w", err)
	}
	return nil
}

func (c *Client) ListSecurityGroupRules(ctx context.Context, groupID string) ([]SecurityGroupRule, error) {
	var rules []SecurityGroupRule
	var nextToken *string

	for {
		out, err := c.api.DescribeSecurityGroupRules(ctx, &awsec2.DescribeSecurityGroupRulesInput{
			Filters: []types.Filter{
				{Name: aws.String("group-id"), Values: []string{groupID}},
			},
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeSecurityGroupRules: %w", err)
		}

		for _, r := range out.SecurityGroupRules {
			direction := "inbound"
			if aws.ToBool(r.IsEgress) {
				direction = "outbound"
			}
			rules = append(rules, SecurityGroupRule{
				Direction:   direction,
				Protocol:    NormalizeProtocol(aws.ToString(r.IpProtocol)),
				PortRange:   portRange(aws.ToInt32(r.FromPort), aws.ToInt32(r.ToPort)),
				Source:      ruleSource(r),
				Description: aws.ToString(r.Description),
			})
		}

		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return rules, nil
}

func ruleSource(r types.SecurityGroupRule) string {
	switch {
	case r.CidrIpv4 != nil:
		return aws.ToString(r.CidrIpv4)
	case r.CidrIpv6 != nil:
		return aws.ToString(r.CidrIpv6)
	case r.ReferencedGroupInfo != nil:
		return aws.ToString(r.ReferencedGroupInfo.GroupId)
	default:
		return aws.ToString(r.PrefixListId)
	}
}
