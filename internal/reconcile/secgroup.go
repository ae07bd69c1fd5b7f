package reconcile

import (
	"context"
	"fmt"

	"natify.dev/natify/internal/aws/vpc"
)

// IngressResult describes the all-protocol ingress rule from the VPC CIDR.
type IngressResult struct {
	GroupID string
	CIDR    string
	// AlreadyAuthorized is set when the rule existed before this call.
	AlreadyAuthorized bool
}

const ingressDescription = "natify: all traffic from VPC"

// AuthorizeVPCIngress lets every host in the VPC reach the NAT instance on
// any protocol. An existing identical rule counts as success.
func (r *Reconciler) AuthorizeVPCIngress(ctx context.Context, vpcID, groupID string) (IngressResult, error) {
	if vpcID == "" {
		return IngressResult{}, ErrMissingVPCID
	}
	if groupID == "" {
		return IngressResult{}, ErrMissingGroupID
	}

	v, err := r.clients.Network.GetVPC(ctx, vpcID)
	if err != nil {
		return IngressResult{}, err
	}
	res := IngressResult{GroupID: groupID, CIDR: v.CIDR}

	err = r.clients.Network.AuthorizeIngressFromCIDR(ctx, groupID, v.CIDR, ingressDescription)
	switch {
	case hasErrorCode(err, codeDuplicatePermission):
		res.AlreadyAuthorized = true
		r.logger.Info("security group ingress already authorized",
			"group", groupID,
			"cidr", v.CIDR,
			"protocol", vpc.AllProtocols,
		)
		return res, nil
	case err != nil:
		return res, fmt.Errorf("security group %s: %w", groupID, err)
	}

	r.logger.Info("security group ingress authorized",
		"group", groupID,
		"cidr", v.CIDR,
		"protocol", vpc.AllProtocols,
	)
	return res, nil
}
