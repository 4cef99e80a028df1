package sandbox

import "fmt"

// ResourceLimits configures the caps enforced by the resource-limit
// installer. All fields are required to be strictly positive.
type ResourceLimits struct {
	MemoryBytes uint64 `yaml:"memoryBytes"` // maximum resident memory, in bytes
	WallClockMs uint64 `yaml:"wallClockMs"` // maximum wall-clock time, in milliseconds
	MaxTasks    uint64 `yaml:"maxTasks"`    // maximum number of processes/threads
}

// Validate checks the strictly-positive invariant from §3.
func (r ResourceLimits) Validate() error {
	if r.MemoryBytes == 0 {
		return fmt.Errorf("sandbox: MemoryBytes must be positive")
	}
	if r.WallClockMs == 0 {
		return fmt.Errorf("sandbox: WallClockMs must be positive")
	}
	if r.MaxTasks == 0 {
		return fmt.Errorf("sandbox: MaxTasks must be positive")
	}
	return nil
}

// CgroupLocations names the parent directory under which each
// controller's per-invocation, per-pid subdirectory is created. Each
// path must be absolute and its parent must already exist and be
// writable by the supervisor.
type CgroupLocations struct {
	Memory  string `yaml:"memory"`
	Pids    string `yaml:"pids"`
	CPUAcct string `yaml:"cpuacct"`
}

// Validate checks that every location is a non-empty absolute path.
func (c CgroupLocations) Validate() error {
	for name, p := range map[string]string{
		"Memory":  c.Memory,
		"Pids":    c.Pids,
		"CPUAcct": c.CPUAcct,
	} {
		if p == "" {
			return fmt.Errorf("sandbox: CgroupLocations.%s must not be empty", name)
		}
		if p[0] != '/' {
			return fmt.Errorf("sandbox: CgroupLocations.%s must be absolute, got %q", name, p)
		}
	}
	return nil
}

// Config is the immutable parameter block a caller builds once per
// invocation and hands to Run. It corresponds to the ChildPayload plus
// the resource/cgroup configuration from §3 of the design.
type Config struct {
	// ExePath is the executable path, interpreted *post-chroot* (e.g.
	// "/prog"), per §6's canonical contract.
	ExePath string

	// JailRoot is the absolute, host-view path that becomes the
	// child's filesystem root via chroot.
	JailRoot string

	// InputPath and OutputPath are host-view paths, opened by the
	// supervisor before chroot and wired onto the child's stdin/stdout.
	InputPath  string
	OutputPath string

	// WhitelistPath is a host-view path to the newline-delimited
	// syscall whitelist, opened before chroot (the whitelist may live
	// outside the jail).
	WhitelistPath string

	Limits  ResourceLimits
	Cgroups CgroupLocations

	// UID and GID are the target credential. Both must be non-zero:
	// the sandboxed program must never run as root.
	UID uint32
	GID uint32

	// Verbose enables debug-level logging of every bootstrap/control
	// step, mirroring the original's SB_VERBOSE.
	Verbose bool
}

// Validate checks the invariants from §3: all paths non-empty, uid/gid
// non-zero, and every composite field's own invariants.
func (c Config) Validate() error {
	if c.ExePath == "" {
		return fmt.Errorf("sandbox: ExePath must not be empty")
	}
	if c.JailRoot == "" {
		return fmt.Errorf("sandbox: JailRoot must not be empty")
	}
	if c.InputPath == "" {
		return fmt.Errorf("sandbox: InputPath must not be empty")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("sandbox: OutputPath must not be empty")
	}
	if c.WhitelistPath == "" {
		return fmt.Errorf("sandbox: WhitelistPath must not be empty")
	}
	if c.UID == 0 {
		return fmt.Errorf("sandbox: UID must be non-zero, refusing to exec as root")
	}
	if c.GID == 0 {
		return fmt.Errorf("sandbox: GID must be non-zero, refusing to exec as root")
	}
	if err := c.Limits.Validate(); err != nil {
		return err
	}
	if err := c.Cgroups.Validate(); err != nil {
		return err
	}
	return nil
}
