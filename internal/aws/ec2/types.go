package ec2

// Instance is the subset of an EC2 instance the NAT path cares about.
type Instance struct {
	InstanceID       string
	Name             string
	Type             string
	State            string
	PrivateIP        string
	SourceDestCheck  bool
	SecurityGroupIDs []string
	VPCID            string
}
