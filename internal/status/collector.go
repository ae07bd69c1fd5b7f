package status

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"natify.dev/natify/internal/aws/ec2"
	"natify.dev/natify/internal/aws/events"
	"natify.dev/natify/internal/aws/logs"
	"natify.dev/natify/internal/aws/sfn"
	"natify.dev/natify/internal/aws/vpc"
	"natify.dev/natify/internal/reconcile"
)

type NetworkReader interface {
	GetVPC(ctx context.Context, vpcID string) (vpc.VPCInfo, error)
	ListSubnets(ctx context.Context, vpcID string) ([]vpc.SubnetInfo, error)
	ListRouteTables(ctx context.Context, vpcID string) ([]vpc.RouteTableInfo, error)
	ListSecurityGroupRules(ctx context.Context, groupID string) ([]vpc.SecurityGroupRule, error)
}

type InstanceReader interface {
	GetInstance(ctx context.Context, instanceID string) (ec2.Instance, error)
}

type StateMachineReader interface {
	ListStateMachines(ctx context.Context) ([]sfn.StateMachine, error)
	DescribeStateMachine(ctx context.Context, arn string) (sfn.StateMachineDetail, error)
}

type RuleReader interface {
	DescribeRule(ctx context.Context, name string) (events.Rule, error)
}

type ActivityReader interface {
	RecentEvents(ctx context.Context, q logs.Query) ([]logs.LogEvent, error)
}

const (
	DefaultActivityWindow = 24 * time.Hour
	activityLimit         = 10

	// Matches the structured records the failover function writes and
	// skips the runtime's plain START/END/REPORT lines.
	activityPattern = "{ $.msg = * }"
)

// Target names the resources a snapshot reports on. Only VPCID is
// required; sections for unset resources are left empty.
type Target struct {
	VPCID            string
	InstanceID       string
	SecurityGroupID  string
	StateMachineName string
	RuleName         string
	FunctionName     string
}

type Collector struct {
	network       NetworkReader
	instances     InstanceReader
	stateMachines StateMachineReader
	rules         RuleReader
	activity      ActivityReader
	window        time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

func NewCollector(network NetworkReader, instances InstanceReader, stateMachines StateMachineReader, rules RuleReader, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		network:       network,
		instances:     instances,
		stateMachines: stateMachines,
		rules:         rules,
		logger:        logger,
		now:           time.Now,
	}
}

// WithActivity enables the recent failover activity section, read from
// the function's log group over the trailing window.
func (c *Collector) WithActivity(reader ActivityReader, window time.Duration) *Collector {
	if window <= 0 {
		window = DefaultActivityWindow
	}
	c.activity = reader
	c.window = window
	return c
}

// Collect builds a snapshot. Only a failure to read the VPC itself is
// returned as an error; other sections record their errors in the
// snapshot and are left incomplete.
func (c *Collector) Collect(ctx context.Context, t Target) (Snapshot, error) {
	if t.VPCID == "" {
		return Snapshot{}, reconcile.ErrMissingVPCID
	}

	snap := Snapshot{CollectedAt: c.now()}
	info, err := c.network.GetVPC(ctx, t.VPCID)
	if err != nil {
		return Snapshot{}, err
	}
	snap.VPC = info

	if t.InstanceID != "" {
		inst, err := c.instances.GetInstance(ctx, t.InstanceID)
		if err != nil {
			snap.fail("instance", err)
		} else {
			snap.Instance = &inst
		}
	}

	routes, err := c.routes(ctx, t.VPCID, t.InstanceID)
	if err != nil {
		snap.fail("routes", err)
	}
	snap.Routes = routes

	if t.SecurityGroupID != "" {
		rules, err := c.network.ListSecurityGroupRules(ctx, t.SecurityGroupID)
		if err != nil {
			snap.fail("security group", err)
		}
		for _, r := range rules {
			if r.Direction == "inbound" {
				snap.Ingress = append(snap.Ingress, r)
			}
		}
	}

	trigger, err := c.trigger(ctx, t.StateMachineName, t.RuleName)
	if err != nil {
		snap.fail("trigger", err)
	}
	snap.Trigger = trigger

	if t.FunctionName != "" && c.activity != nil {
		events, err := c.activity.RecentEvents(ctx, logs.Query{
			Group:   logs.LambdaLogGroup(t.FunctionName),
			Since:   snap.CollectedAt.Add(-c.window),
			Pattern: activityPattern,
			Limit:   activityLimit,
		})
		if err != nil {
			snap.fail("activity", err)
		}
		snap.Activity = events
	}

	c.logger.Debug("collected status",
		slog.String("vpc", t.VPCID),
		slog.Int("private_subnets", len(snap.Routes)),
		slog.Int("drifted", snap.Drifted()),
		slog.Int("errors", len(snap.Errors)),
	)
	return snap, nil
}

func (s *Snapshot) fail(section string, err error) {
	s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", section, err))
}

func (c *Collector) routes(ctx context.Context, vpcID, instanceID string) ([]SubnetRoute, error) {
	subnets, err := c.network.ListSubnets(ctx, vpcID)
	if err != nil {
		return nil, err
	}
	tables, err := c.network.ListRouteTables(ctx, vpcID)
	if err != nil {
		return nil, err
	}

	var main *vpc.RouteTableInfo
	bySubnet := make(map[string]*vpc.RouteTableInfo)
	for i := range tables {
		if tables[i].IsMain {
			main = &tables[i]
		}
		for _, a := range tables[i].Associations {
			bySubnet[a.SubnetID] = &tables[i]
		}
	}

	var out []SubnetRoute
	for _, s := range subnets {
		name, ok := reconcile.IsPrivate(s.Tags)
		if !ok {
			continue
		}
		sr := SubnetRoute{SubnetID: s.SubnetID, SubnetName: name, State: RouteMissing}

		table, explicit := bySubnet[s.SubnetID]
		if !explicit {
			table = main
			sr.ViaMainTable = true
		}
		if table != nil {
			sr.RouteTableID = table.RouteTableID
			sr.RouteTableName = table.Name
			if route, ok := table.Route(reconcile.DefaultRoute); ok {
				sr.Target = route.Target
				sr.RouteStatus = route.Status
				sr.State = RouteDrift
				if instanceID != "" && route.Target == instanceID && route.Status != "blackhole" {
					sr.State = RouteOK
				}
			}
		}
		out = append(out, sr)
	}
	return out, nil
}

func (c *Collector) trigger(ctx context.Context, smName, ruleName string) (TriggerState, error) {
	ts := TriggerState{StateMachineName: smName, RuleName: ruleName}

	if smName != "" {
		arn, found, err := reconcile.NewListingFinder(c.stateMachines).FindStateMachine(ctx, smName)
		if err != nil {
			return ts, err
		}
		if found {
			detail, err := c.stateMachines.DescribeStateMachine(ctx, arn)
			if err != nil {
				return ts, err
			}
			ts.Found = true
			ts.StateMachineARN = arn
			ts.Armed = !sameDefinition(detail.Definition, reconcile.NoOpDefinition)
		}
	}

	if ruleName != "" {
		rule, err := c.rules.DescribeRule(ctx, ruleName)
		if err != nil {
			return ts, err
		}
		ts.RuleState = rule.State
		ts.Schedule = rule.ScheduleExpression
	}
	return ts, nil
}

func sameDefinition(a, b string) bool {
	var ca, cb bytes.Buffer
	if json.Compact(&ca, []byte(a)) != nil || json.Compact(&cb, []byte(b)) != nil {
		return a == b
	}
	return ca.String() == cb.String()
}
