package status

import (
	"time"

	"natify.dev/natify/internal/aws/ec2"
	"natify.dev/natify/internal/aws/logs"
	"natify.dev/natify/internal/aws/vpc"
)

type RouteState string

const (
	RouteOK      RouteState = "OK"
	RouteDrift   RouteState = "DRIFT"
	RouteMissing RouteState = "MISSING"
)

// SubnetRoute is one private subnet's effective default route.
type SubnetRoute struct {
	SubnetID       string
	SubnetName     string
	RouteTableID   string
	RouteTableName string
	ViaMainTable   bool
	Target         string
	RouteStatus    string
	State          RouteState
}

type TriggerState struct {
	StateMachineName string
	StateMachineARN  string
	Found            bool
	Armed            bool
	RuleName         string
	RuleState        string
	Schedule         string
}

// Snapshot is a point-in-time view of a VPC's NAT failover wiring.
type Snapshot struct {
	VPC         vpc.VPCInfo
	Instance    *ec2.Instance
	Routes      []SubnetRoute
	Ingress     []vpc.SecurityGroupRule
	Trigger     TriggerState
	Activity    []logs.LogEvent
	CollectedAt time.Time
	Errors      []string
}

// Drifted counts private subnets whose default route does not point at
// the NAT instance.
func (s Snapshot) Drifted() int {
	n := 0
	for _, r := range s.Routes {
		if r.State != RouteOK {
			n++
		}
	}
	return n
}
