package catalog

import "testing"

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"PT1H2M3S", 3723},
		{"PT15M33S", 933},
		{"PT42S", 42},
		{"PT2H", 7200},
		{"PT1H5S", 3605},
		{"PT0S", 0},
		{"", 0},
		{"P1DT2H", 0},    // days not in the subset, lenient zero
		{"1h30m", 0},     // not ISO at all
		{"PTXS", 0},      // junk components
		{"PT90M", 5400},  // over-an-hour minutes are legal
	}
	for _, tt := range tests {
		if got := ParseISODuration(tt.in); got != tt.want {
			t.Errorf("ParseISODuration(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
