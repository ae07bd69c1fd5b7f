package vpc

import "fmt"

// AllProtocols is the EC2 protocol value matching every IP protocol.
const AllProtocols = "-1"

// NormalizeProtocol converts AWS numeric protocol strings to human-readable names.
func NormalizeProtocol(protocol string) string {
	switch protocol {
	case AllProtocols:
		return "All"
	case "6":
		return "TCP"
	case "17":
		return "UDP"
	case "1":
		return "ICMP"
	case "58":
		return "ICMPv6"
	default:
		return protocol
	}
}

func portRange(from, to int32) string {
	if from == -1 || (from == 0 && to == 0) {
		return "All"
	}
	if from == to {
		return fmt.Sprintf("%d", from)
	}
	return fmt.Sprintf("%d-%d", from, to)
}
