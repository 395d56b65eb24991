package utils

import "testing"

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost", true},
		{"http://localhost:7455", true},
		{"https://localhost:3000", true},

		{"http://192.168.1.20", true},
		{"http://192.168.1.20:7455", true},
		{"http://10.0.0.5:8080", true},
		{"http://172.16.0.1", true},
		{"http://172.31.255.255:443", true},
		{"http://127.0.0.1:3000", true},
		{"http://169.254.1.1", true},

		{"http://shelfbox.local", true},
		{"http://shelfbox.local:7455", true},
		{"http://shelfbox:7455", true},

		{"http://example.com", false},
		{"https://evil.example", false},
		{"http://shelfbox.local.evil.example", false},
		{"http://8.8.8.8", false},
		{"http://1.1.1.1", false},

		{"", false},
		{"not-a-url", false},
	}

	for _, tt := range tests {
		got := IsAllowedOrigin(tt.origin)
		if got != tt.allowed {
			t.Errorf("IsAllowedOrigin(%q) = %v, want %v", tt.origin, got, tt.allowed)
		}
	}
}
