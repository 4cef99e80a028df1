// Package config loads the on-disk SandboxProfile: the YAML document
// naming the cgroup mount locations and default resource limits an
// installation reuses across invocations, so the CLI does not need a
// dozen repeated flags for values that rarely change on a given judge
// host.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aero31aero/crux-judge/sandbox"
)

// SandboxProfile is the persisted, per-host defaults document.
type SandboxProfile struct {
	Cgroups  sandbox.CgroupLocations `yaml:"cgroups"`
	Limits   sandbox.ResourceLimits  `yaml:"defaultLimits"`
	JailRoot string                  `yaml:"jailRoot"`
}

// Load reads and parses a SandboxProfile from path.
func Load(path string) (*SandboxProfile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var p SandboxProfile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &p, nil
}
