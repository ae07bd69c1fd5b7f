package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"natify.dev/natify/internal/aws/vpc"
)

// DefaultRoute is the destination repointed at the NAT instance.
const DefaultRoute = "0.0.0.0/0"

type RouteAction string

const (
	RouteAdded    RouteAction = "added"
	RouteModified RouteAction = "modified"
)

// TableResult is the outcome for one route table. Err is set when the
// table could not be converged; RouteTableID is empty when the failure
// happened while resolving the subnet's tables.
type TableResult struct {
	SubnetID       string
	RouteTableID   string
	RouteTableName string
	Action         RouteAction
	Err            error
}

type RouteReport struct {
	Subnets []PrivateSubnet
	Tables  []TableResult
}

func (r RouteReport) Failed() int {
	n := 0
	for _, t := range r.Tables {
		if t.Err != nil {
			n++
		}
	}
	return n
}

// Status summarizes the report as "modified", "partial" or "failed".
func (r RouteReport) Status() string {
	failed := r.Failed()
	switch {
	case failed == 0:
		return "modified"
	case failed < len(r.Tables):
		return "partial"
	default:
		return "failed"
	}
}

// ReconcileRoutes points the default route of every route table associated
// with a private subnet of the VPC at instanceID. Tables are converged
// independently: a failing table does not stop the others, and the
// returned error combines every per-table failure.
func (r *Reconciler) ReconcileRoutes(ctx context.Context, vpcID, instanceID string) (RouteReport, error) {
	if instanceID == "" {
		return RouteReport{}, ErrMissingInstanceID
	}
	subnets, err := r.DiscoverPrivateSubnets(ctx, vpcID)
	if err != nil {
		return RouteReport{}, err
	}

	report := RouteReport{Subnets: subnets}
	seen := make(map[string]bool)
	var errs error

	for _, subnet := range subnets {
		tables, err := r.clients.Network.ListRouteTablesForSubnet(ctx, subnet.SubnetID)
		if err != nil {
			err = fmt.Errorf("subnet %s: %w", subnet.SubnetID, err)
			report.Tables = append(report.Tables, TableResult{SubnetID: subnet.SubnetID, Err: err})
			errs = multierr.Append(errs, err)
			r.logger.Error("listing route tables failed",
				"subnet", subnet.SubnetID,
				"error", err,
			)
			continue
		}
		if len(tables) == 0 {
			r.logger.Warn("private subnet has no explicit route table association",
				"subnet", subnet.SubnetID,
			)
		}

		for _, table := range tables {
			if seen[table.RouteTableID] {
				continue
			}
			seen[table.RouteTableID] = true

			res := r.reconcileTable(ctx, subnet, table, instanceID)
			report.Tables = append(report.Tables, res)
			errs = multierr.Append(errs, res.Err)
		}
	}

	return report, errs
}

func (r *Reconciler) reconcileTable(ctx context.Context, subnet PrivateSubnet, table vpc.RouteTableInfo, instanceID string) TableResult {
	name := table.Name
	if name == "" {
		name = "Unnamed"
	}
	res := TableResult{
		SubnetID:       subnet.SubnetID,
		RouteTableID:   table.RouteTableID,
		RouteTableName: name,
	}

	var err error
	if _, ok := table.Route(DefaultRoute); ok {
		res.Action = RouteModified
		err = r.clients.Network.ReplaceRoute(ctx, table.RouteTableID, DefaultRoute, instanceID)
		if hasErrorCode(err, codeRouteNotFound) {
			// Removed since the table was read.
			res.Action = RouteAdded
			err = r.clients.Network.CreateRoute(ctx, table.RouteTableID, DefaultRoute, instanceID)
		}
	} else {
		res.Action = RouteAdded
		err = r.clients.Network.CreateRoute(ctx, table.RouteTableID, DefaultRoute, instanceID)
		if hasErrorCode(err, codeRouteAlreadyExists) {
			// Another invocation added it since the table was read.
			res.Action = RouteModified
			err = r.clients.Network.ReplaceRoute(ctx, table.RouteTableID, DefaultRoute, instanceID)
		}
	}

	if err != nil {
		res.Err = fmt.Errorf("route table %s: %w", table.RouteTableID, err)
		r.logger.Error("route reconciliation failed",
			"action", string(res.Action),
			"subnet", subnet.SubnetID,
			"route_table", name,
			"route_table_id", table.RouteTableID,
			"error", err,
		)
		return res
	}

	r.logger.Info("route "+string(res.Action),
		"action", string(res.Action),
		"subnet", subnet.SubnetID,
		"route_table", name,
		"route_table_id", table.RouteTableID,
		"target", instanceID,
	)
	return res
}
