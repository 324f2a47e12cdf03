package main

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/chubibyy/Vidar-DEV/internal/cloudenv"
)

func TestResolveServerPort(t *testing.T) {
	mapped := cloudenv.Runtime{
		Ports: &cloudenv.PortsMapping{Ports: map[string]cloudenv.PortMapping{
			"game": {Internal: 9999, External: 31000},
		}},
	}

	tests := []struct {
		name       string
		serverPort string
		flagPort   int
		rt         cloudenv.Runtime
		expected   int
	}{
		{
			name:       "SERVER_PORT wins over the flag",
			serverPort: "8888",
			flagPort:   7000,
			expected:   8888,
		},
		{
			name:     "flag wins when SERVER_PORT is absent",
			flagPort: 7000,
			rt:       mapped,
			expected: 7000,
		},
		{
			name:       "unusable SERVER_PORT falls through to the flag",
			serverPort: "not-a-port",
			flagPort:   7000,
			expected:   7000,
		},
		{
			name:       "out-of-range SERVER_PORT falls through",
			serverPort: "70000",
			flagPort:   7000,
			expected:   7000,
		},
		{
			name:     "ports mapping fills in when flag and env are absent",
			flagPort: 0,
			rt:       mapped,
			expected: 9999,
		},
		{
			name:     "built-in default when nothing selects a port",
			flagPort: 0,
			expected: defaultServerPort,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Setenv("SERVER_PORT", test.serverPort)

			if got := resolveServerPort(test.flagPort, test.rt, zerolog.Nop()); got != test.expected {
				t.Fatalf("expected port %d, got %d", test.expected, got)
			}
		})
	}
}
