package vpc

import "testing"

func TestNormalizeProtocol(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"-1", "All"},
		{"6", "TCP"},
		{"17", "UDP"},
		{"1", "ICMP"},
		{"58", "ICMPv6"},
		{"47", "47"},   // passthrough for unknown
		{"", ""},       // empty passthrough
		{"tcp", "tcp"}, // already named, passthrough
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeProtocol(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeProtocol(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPortRange(t *testing.T) {
	tests := []struct {
		from, to int32
		want     string
	}{
		{-1, -1, "All"},
		{0, 0, "All"},
		{443, 443, "443"},
		{8080, 8090, "8080-8090"},
	}

	for _, tt := range tests {
		if got := portRange(tt.from, tt.to); got != tt.want {
			t.Errorf("portRange(%d, %d) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}
