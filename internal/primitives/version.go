// Package primitives provides versioning utilities for MachineConfig.
package primitives

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// ComputeVersion returns a deterministic version for a MachineConfig.
// Priority: the user-provided config.Version, else the first 8 bytes of the
// SHA256 of the config's JSON. Configs holding closures are not portable and
// get the "local" version.
func ComputeVersion(config *MachineConfig) string {
	if config.Version != "" {
		return config.Version
	}
	data, err := json.Marshal(config)
	if err != nil {
		return "local"
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}
