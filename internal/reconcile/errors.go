package reconcile

import (
	"errors"

	"github.com/aws/smithy-go"
)

var (
	ErrMissingVPCID      = errors.New("vpc id is required")
	ErrMissingInstanceID = errors.New("nat instance id is required")
	ErrMissingGroupID    = errors.New("security group id is required")
)

// EC2 error codes the reconciler treats as expected outcomes.
const (
	codeDuplicatePermission = "InvalidPermission.Duplicate"
	codeRouteAlreadyExists  = "RouteAlreadyExists"
	codeRouteNotFound       = "InvalidRoute.NotFound"
)

func hasErrorCode(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}
