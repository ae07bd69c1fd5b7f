package utils

import "strings"

// ShortName extracts the resource name from an ARN. Resource IDs with a
// path ("stack/NatifyStack/abc") yield the segment after the first "/";
// colon-separated ARNs ("stateMachine:natify-trigger") yield the last
// ":" segment. Anything else is returned unchanged.
func ShortName(arn string) string {
	if !strings.HasPrefix(arn, "arn:") {
		if i := strings.LastIndex(arn, "/"); i >= 0 {
			return arn[i+1:]
		}
		return arn
	}

	parts := strings.SplitN(arn, ":", 6)
	if len(parts) < 6 {
		return arn
	}
	resource := parts[5]
	if i := strings.Index(resource, "/"); i >= 0 {
		rest := resource[i+1:]
		if j := strings.Index(rest, "/"); j >= 0 {
			return rest[:j]
		}
		return rest
	}
	if i := strings.LastIndex(resource, ":"); i >= 0 {
		return resource[i+1:]
	}
	return resource
}
