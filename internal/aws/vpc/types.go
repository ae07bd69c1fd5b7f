package vpc

type VPCInfo struct {
	VPCID string
	Name  string
	CIDR  string
	State string
}

// Tag is a resource tag. Keys keep their original casing.
type Tag struct {
	Key   string
	Value string
}

type SubnetInfo struct {
	SubnetID string
	Name     string
	CIDR     string
	AZ       string
	Tags     []Tag
}

type RouteTableInfo struct {
	RouteTableID string
	Name         string
	IsMain       bool
	Routes       []RouteEntry
	Associations []RouteTableAssociation
}

// Route returns the route for destination, if the table has one.
func (rt RouteTableInfo) Route(destination string) (RouteEntry, bool) {
	for _, r := range rt.Routes {
		if r.Destination == destination {
			return r, true
		}
	}
	return RouteEntry{}, false
}

type RouteEntry struct {
	Destination string // CIDR or prefix list
	Target      string // i-xxx, igw-xxx, nat-xxx, local, etc.
	Status      string // active, blackhole
	Origin      string // CreateRouteTable, CreateRoute, EnableVgwRoutePropagation
}

type RouteTableAssociation struct {
	SubnetID string
	IsMain   bool
}

type SecurityGroupRule struct {
	Direction   string // "inbound" or "outbound"
	Protocol    string // TCP, UDP, ICMP, All, or number
	PortRange   string // "80", "80-443", "All"
	Source      string // CIDR, security group ID, or prefix list
	Description string
}
