package reconcile

import (
	"context"
	"strings"

	"natify.dev/natify/internal/aws/vpc"
)

// PrivateSubnet is a subnet whose name tag marks it private.
type PrivateSubnet struct {
	SubnetID string
	Name     string
}

// IsPrivate reports whether the tags mark a subnet as private: a tag whose
// key is "name" in any casing with a value containing "private" in any
// casing. The first such name tag decides.
func IsPrivate(tags []vpc.Tag) (string, bool) {
	for _, tag := range tags {
		if !strings.EqualFold(tag.Key, "name") {
			continue
		}
		if strings.Contains(strings.ToLower(tag.Value), "private") {
			return tag.Value, true
		}
	}
	return "", false
}

// DiscoverPrivateSubnets lists the VPC's subnets and keeps the private ones,
// in provider order.
func (r *Reconciler) DiscoverPrivateSubnets(ctx context.Context, vpcID string) ([]PrivateSubnet, error) {
	if vpcID == "" {
		return nil, ErrMissingVPCID
	}

	subnets, err := r.clients.Network.ListSubnets(ctx, vpcID)
	if err != nil {
		return nil, err
	}

	var private []PrivateSubnet
	for _, s := range subnets {
		if name, ok := IsPrivate(s.Tags); ok {
			private = append(private, PrivateSubnet{SubnetID: s.SubnetID, Name: name})
		}
	}

	r.logger.Debug("discovered private subnets",
		"vpc", vpcID,
		"total", len(subnets),
		"private", len(private),
	)
	return private, nil
}
