package cloudenv

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Orchestrator-injected variables all carry this marker in their name.
const envMarker = "ARBITRIUM_"

type DeploymentLocation struct {
	City                   string  `json:"city"`
	Country                string  `json:"country"`
	Continent              string  `json:"continent"`
	AdministrativeDivision string  `json:"administrative_division"`
	Timezone               string  `json:"timezone"`
	Latitude               float64 `json:"latitude"`
	Longitude              float64 `json:"longitude"`
}

type PortMapping struct {
	Name     string `json:"name"`
	Internal int    `json:"internal"`
	External int    `json:"external"`
	Protocol string `json:"protocol"`
}

type PortsMapping struct {
	Ports map[string]PortMapping `json:"ports"`
}

// Runtime is everything the orchestrator told this container about itself.
type Runtime struct {
	Location   *DeploymentLocation
	Ports      *PortsMapping
	SimpleEnvs map[string]string
}

// Parse walks the given environment ("KEY=VALUE" entries, os.Environ shape)
// and picks out the orchestrator-managed variables. Location and ports
// mapping are JSON-decoded; everything else is passed through as-is.
// A malformed JSON payload is logged and skipped rather than failing boot.
func Parse(environ []string, logger zerolog.Logger) Runtime {
	rt := Runtime{SimpleEnvs: make(map[string]string)}

	for _, entry := range environ {
		key, value, found := strings.Cut(entry, "=")
		if !found || !strings.Contains(key, envMarker) {
			continue
		}

		switch {
		case strings.Contains(key, "DEPLOYMENT_LOCATION"):
			var loc DeploymentLocation
			if err := json.Unmarshal([]byte(value), &loc); err != nil {
				logger.Warn().Err(err).Str("env", key).Msg("skipping malformed deployment location")
				continue
			}
			rt.Location = &loc

		case strings.Contains(key, "PORTS_MAPPING"):
			var ports PortsMapping
			if err := json.Unmarshal([]byte(value), &ports); err != nil {
				logger.Warn().Err(err).Str("env", key).Msg("skipping malformed ports mapping")
				continue
			}
			rt.Ports = &ports

		default:
			rt.SimpleEnvs[key] = value
		}
	}

	return rt
}

// ValidateGamePort checks that the port the server is about to listen on
// actually appears as an internal port in the orchestrator's mapping.
// Outside an orchestrated runtime there is no mapping and nothing to check.
func (rt Runtime) ValidateGamePort(port int) error {
	if rt.Ports == nil {
		return nil
	}

	for _, pm := range rt.Ports.Ports {
		if pm.Internal == port {
			return nil
		}
	}
	return fmt.Errorf("port %d is not present in the orchestrator ports mapping", port)
}

// GamePort returns the first mapped internal port, used as a fallback when
// neither the -port flag nor SERVER_PORT selected one.
func (rt Runtime) GamePort() (int, bool) {
	if rt.Ports == nil {
		return 0, false
	}
	for _, pm := range rt.Ports.Ports {
		if pm.Internal > 0 {
			return pm.Internal, true
		}
	}
	return 0, false
}
