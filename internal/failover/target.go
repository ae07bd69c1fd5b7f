package failover

import "fmt"

// Target names the resources one failover run converges. Field tags match
// the Lambda environment variables and event keys.
type Target struct {
	VPCID            string `json:"VPC_ID,omitempty"`
	InstanceID       string `json:"NAT_INSTANCE_ID,omitempty"`
	SecurityGroupID  string `json:"NAT_SECURITY_GROUP_ID,omitempty"`
	StateMachineName string `json:"NATIFYLAMBDA_STATE_MACHINE_NAME,omitempty"`
	EventRuleName    string `json:"EVENT_RULE_NAME,omitempty"`
}

// MissingConfigError reports a required setting that was not provided.
type MissingConfigError struct {
	Field string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("%s not found", e.Field)
}

// Validate checks the settings every step depends on. The trigger names
// are optional.
func (t Target) Validate() error {
	switch {
	case t.VPCID == "":
		return &MissingConfigError{Field: "VPC_ID"}
	case t.InstanceID == "":
		return &MissingConfigError{Field: "NAT_INSTANCE_ID"}
	case t.SecurityGroupID == "":
		return &MissingConfigError{Field: "NAT_SECURITY_GROUP_ID"}
	}
	return nil
}

// NeedsVPCLookup reports whether the VPC ID is the only required setting
// left unset. A name lookup is pointless while Validate would reject the
// target for another field.
func (t Target) NeedsVPCLookup() bool {
	return t.VPCID == "" && t.InstanceID != "" && t.SecurityGroupID != ""
}

// Merge returns t with every non-empty field of override applied.
func (t Target) Merge(override Target) Target {
	if override.VPCID != "" {
		t.VPCID = override.VPCID
	}
	if override.InstanceID != "" {
		t.InstanceID = override.InstanceID
	}
	if override.SecurityGroupID != "" {
		t.SecurityGroupID = override.SecurityGroupID
	}
	if override.StateMachineName != "" {
		t.StateMachineName = override.StateMachineName
	}
	if override.EventRuleName != "" {
		t.EventRuleName = override.EventRuleName
	}
	return t
}
