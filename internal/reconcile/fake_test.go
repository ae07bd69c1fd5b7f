package reconcile

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/smithy-go"

	"natify.dev/natify/internal/aws/sfn"
	"natify.dev/natify/internal/aws/vpc"
)

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

// fakeNetwork keeps VPC state in memory and answers like EC2 does,
// including the duplicate and not-found error codes.
type fakeNetwork struct {
	vpcs         map[string]vpc.VPCInfo
	subnets      map[string][]vpc.SubnetInfo
	tables       map[string]*vpc.RouteTableInfo
	associations map[string][]string
	ingress      map[string][]string

	// hideDefault and phantomDefault make listings disagree with the
	// stored routes, as a concurrent writer would.
	hideDefault    map[string]bool
	phantomDefault map[string]bool

	subnetsErr    error
	vpcErr        error
	authorizeErr  error
	listTablesErr map[string]error
	createErr     map[string]error
	replaceErr    map[string]error

	calls []string
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		vpcs:           map[string]vpc.VPCInfo{},
		subnets:        map[string][]vpc.SubnetInfo{},
		tables:         map[string]*vpc.RouteTableInfo{},
		associations:   map[string][]string{},
		ingress:        map[string][]string{},
		hideDefault:    map[string]bool{},
		phantomDefault: map[string]bool{},
		listTablesErr:  map[string]error{},
		createErr:      map[string]error{},
		replaceErr:     map[string]error{},
	}
}

func (f *fakeNetwork) addSubnet(vpcID, subnetID, name string) {
	var tags []vpc.Tag
	if name != "" {
		tags = append(tags, vpc.Tag{Key: "Name", Value: name})
	}
	f.subnets[vpcID] = append(f.subnets[vpcID], vpc.SubnetInfo{SubnetID: subnetID, Name: name, Tags: tags})
}

func (f *fakeNetwork) addTable(subnetID, tableID, name string, routes ...vpc.RouteEntry) {
	f.tables[tableID] = &vpc.RouteTableInfo{RouteTableID: tableID, Name: name, Routes: routes}
	f.associations[subnetID] = append(f.associations[subnetID], tableID)
}

func (f *fakeNetwork) defaultRoutes(tableID string) []vpc.RouteEntry {
	var out []vpc.RouteEntry
	for _, r := range f.tables[tableID].Routes {
		if r.Destination == DefaultRoute {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeNetwork) countCalls(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeNetwork) GetVPC(ctx context.Context, vpcID string) (vpc.VPCInfo, error) {
	f.calls = append(f.calls, "GetVPC:"+vpcID)
	if f.vpcErr != nil {
		return vpc.VPCInfo{}, f.vpcErr
	}
	v, ok := f.vpcs[vpcID]
	if !ok {
		return vpc.VPCInfo{}, fmt.Errorf("DescribeVpcs: vpc %s not found", vpcID)
	}
	return v, nil
}

func (f *fakeNetwork) ListSubnets(ctx context.Context, vpcID string) ([]vpc.SubnetInfo, error) {
	f.calls = append(f.calls, "ListSubnets:"+vpcID)
	if f.subnetsErr != nil {
		return nil, f.subnetsErr
	}
	return f.subnets[vpcID], nil
}

func (f *fakeNetwork) ListRouteTablesForSubnet(ctx context.Context, subnetID string) ([]vpc.RouteTableInfo, error) {
	f.calls = append(f.calls, "ListRouteTablesForSubnet:"+subnetID)
	if err := f.listTablesErr[subnetID]; err != nil {
		return nil, fmt.Errorf("DescribeRouteTables: %w", err)
	}
	var out []vpc.RouteTableInfo
	for _, id := range f.associations[subnetID] {
		t := *f.tables[id]
		t.Routes = nil
		for _, r := range f.tables[id].Routes {
			if r.Destination == DefaultRoute && f.hideDefault[id] {
				continue
			}
			t.Routes = append(t.Routes, r)
		}
		if f.phantomDefault[id] {
			t.Routes = append(t.Routes, vpc.RouteEntry{Destination: DefaultRoute, Target: "i-ghost"})
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeNetwork) CreateRoute(ctx context.Context, routeTableID, destination, instanceID string) error {
	f.calls = append(f.calls, "CreateRoute:"+routeTableID)
	if err := f.createErr[routeTableID]; err != nil {
		return fmt.Errorf("CreateRoute: %w", err)
	}
	t := f.tables[routeTableID]
	for _, r := range t.Routes {
		if r.Destination == destination {
			return fmt.Errorf("CreateRoute: %w", apiError(codeRouteAlreadyExists))
		}
	}
	t.Routes = append(t.Routes, vpc.RouteEntry{Destination: destination, Target: instanceID, Status: "active"})
	return nil
}

func (f *fakeNetwork) ReplaceRoute(ctx context.Context, routeTableID, destination, instanceID string) error {
	f.calls = append(f.calls, "ReplaceRoute:"+routeTableID)
	if err := f.replaceErr[routeTableID]; err != nil {
		return fmt.Errorf("ReplaceRoute: %w", err)
	}
	t := f.tables[routeTableID]
	for i, r := range t.Routes {
		if r.Destination == destination {
			t.Routes[i].Target = instanceID
			return nil
		}
	}
	return fmt.Errorf("ReplaceRoute: %w", apiError(codeRouteNotFound))
}

func (f *fakeNetwork) AuthorizeIngressFromCIDR(ctx context.Context, groupID, cidr, description string) error {
	f.calls = append(f.calls, "AuthorizeIngressFromCIDR:"+groupID)
	if f.authorizeErr != nil {
		return fmt.Errorf("AuthorizeSecurityGroupIngress: %w", f.authorizeErr)
	}
	for _, c := range f.ingress[groupID] {
		if c == cidr {
			return fmt.Errorf("AuthorizeSecurityGroupIngress: %w", apiError(codeDuplicatePermission))
		}
	}
	f.ingress[groupID] = append(f.ingress[groupID], cidr)
	return nil
}

type fakeInstances struct {
	disabled []string
	err      error
}

func (f *fakeInstances) DisableSourceDestCheck(ctx context.Context, instanceID string) error {
	if f.err != nil {
		return f.err
	}
	f.disabled = append(f.disabled, instanceID)
	return nil
}

type fakeStateMachines struct {
	machines    []sfn.StateMachine
	listErr     error
	updateErr   error
	listCalls   int
	definitions map[string]string
}

func (f *fakeStateMachines) ListStateMachines(ctx context.Context) ([]sfn.StateMachine, error) {
	f.listCalls++
	return f.machines, f.listErr
}

func (f *fakeStateMachines) UpdateDefinition(ctx context.Context, arn, definition string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.definitions == nil {
		f.definitions = map[string]string{}
	}
	f.definitions[arn] = definition
	return nil
}

type fakeRules struct {
	disabled []string
	err      error
}

func (f *fakeRules) DisableRule(ctx context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.disabled = append(f.disabled, name)
	return nil
}

type fixture struct {
	network  *fakeNetwork
	inst     *fakeInstances
	machines *fakeStateMachines
	rules    *fakeRules
	logs     *bytes.Buffer
	r        *Reconciler
}

func newFixture() *fixture {
	f := &fixture{
		network:  newFakeNetwork(),
		inst:     &fakeInstances{},
		machines: &fakeStateMachines{},
		rules:    &fakeRules{},
		logs:     &bytes.Buffer{},
	}
	logger := slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f.r = New(Clients{
		Network:       f.network,
		Instances:     f.inst,
		Finder:        NewListingFinder(f.machines),
		StateMachines: f.machines,
		Rules:         f.rules,
	}, logger)
	return f
}
