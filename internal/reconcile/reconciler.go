// Package reconcile converges a VPC's private egress onto a NAT instance.
// Every operation reads current state from the provider and is safe to
// repeat.
package reconcile

import (
	"context"
	"log/slog"

	awsclient "natify.dev/natify/internal/aws"
	"natify.dev/natify/internal/aws/vpc"
)

type NetworkAPI interface {
	GetVPC(ctx context.Context, vpcID string) (vpc.VPCInfo, error)
	ListSubnets(ctx context.Context, vpcID string) ([]vpc.SubnetInfo, error)
	ListRouteTablesForSubnet(ctx context.Context, subnetID string) ([]vpc.RouteTableInfo, error)
	CreateRoute(ctx context.Context, routeTableID, destination, instanceID string) error
	ReplaceRoute(ctx context.Context, routeTableID, destination, instanceID string) error
	AuthorizeIngressFromCIDR(ctx context.Context, groupID, cidr, description string) error
}

type InstanceAPI interface {
	DisableSourceDestCheck(ctx context.Context, instanceID string) error
}

type StateMachineUpdater interface {
	UpdateDefinition(ctx context.Context, arn, definition string) error
}

type RuleDisabler interface {
	DisableRule(ctx context.Context, name string) error
}

// Clients are the provider handles a Reconciler works through.
type Clients struct {
	Network       NetworkAPI
	Instances     InstanceAPI
	Finder        StateMachineFinder
	StateMachines StateMachineUpdater
	Rules         RuleDisabler
}

// ClientsFrom wires Clients from the shared AWS service handles.
func ClientsFrom(sc *awsclient.ServiceClient) Clients {
	return Clients{
		Network:       sc.VPC,
		Instances:     sc.EC2,
		Finder:        NewListingFinder(sc.SFN),
		StateMachines: sc.SFN,
		Rules:         sc.Events,
	}
}

type Reconciler struct {
	clients Clients
	logger  *slog.Logger
}

// New returns a Reconciler. A nil logger uses slog.Default().
func New(clients Clients, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{clients: clients, logger: logger}
}
