// Command sandboxrun is the CLI front end for the sandbox driver: it
// parses flags, optionally loads a SandboxProfile for shared defaults,
// builds a sandbox.Config, and prints a UOJ-style status line after
// the run completes.
package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/aero31aero/crux-judge/internal/config"
	"github.com/aero31aero/crux-judge/sandbox"
)

// uojStatus mirrors the run_program status codes contest judges parse
// from stdout; main also uses the same value as its process exit code.
type uojStatus int

const (
	uojNormal uojStatus = iota
	uojInvalid
	uojRE
	uojMLE
	uojTLE
	uojOLE
	uojBan
	uojFatal
)

func toUOJStatus(o sandbox.Outcome) uojStatus {
	switch o {
	case sandbox.OK:
		return uojNormal
	case sandbox.RuntimeError:
		return uojRE
	case sandbox.MemoryExceeded:
		return uojMLE
	case sandbox.TimeExceeded:
		return uojTLE
	case sandbox.TaskExceeded:
		return uojBan
	default:
		return uojFatal
	}
}

func main() {
	sandbox.MaybeRunChild()

	var (
		profilePath   = flag.String("profile", "", "path to a SandboxProfile YAML file supplying shared defaults")
		exePath       = flag.String("exe", "", "post-chroot path of the executable to run")
		jailRoot      = flag.String("jail", "", "host-view path to become the chroot jail root")
		inputPath     = flag.String("input", "", "host-view path providing the program's stdin")
		outputPath    = flag.String("output", "", "host-view path receiving the program's stdout")
		whitelistPath = flag.String("whitelist", "", "host-view path to the syscall whitelist file")
		uid           = flag.Uint32("uid", 0, "uid the sandboxed program runs as")
		gid           = flag.Uint32("gid", 0, "gid the sandboxed program runs as")
		memoryBytes   = flag.Uint64("memory", 0, "memory cap in bytes")
		wallClockMs   = flag.Uint64("time", 0, "wall-clock cap in milliseconds")
		maxTasks      = flag.Uint64("tasks", 0, "maximum process/thread count")
		cgMemory      = flag.String("cgroup-memory", "", "parent path of the memory cgroup controller")
		cgPids        = flag.String("cgroup-pids", "", "parent path of the pids cgroup controller")
		cgCPUAcct     = flag.String("cgroup-cpuacct", "", "parent path of the cpuacct cgroup controller")
		verbose       = flag.BoolP("verbose", "v", false, "enable debug logging")
	)
	flag.Parse()

	cfg := sandbox.Config{
		ExePath:       *exePath,
		JailRoot:      *jailRoot,
		InputPath:     *inputPath,
		OutputPath:    *outputPath,
		WhitelistPath: *whitelistPath,
		UID:           *uid,
		GID:           *gid,
		Verbose:       *verbose,
		Limits: sandbox.ResourceLimits{
			MemoryBytes: *memoryBytes,
			WallClockMs: *wallClockMs,
			MaxTasks:    *maxTasks,
		},
		Cgroups: sandbox.CgroupLocations{
			Memory:  *cgMemory,
			Pids:    *cgPids,
			CPUAcct: *cgCPUAcct,
		},
	}

	if *profilePath != "" {
		profile, err := config.Load(*profilePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "sandboxrun:", err)
			os.Exit(2)
		}
		applyProfileDefaults(&cfg, profile)
	}

	outcome, err := sandbox.Run(context.Background(), cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sandboxrun:", err)
	}

	fmt.Printf("%d %s\n", toUOJStatus(outcome), outcome)
	os.Exit(int(toUOJStatus(outcome)))
}

// applyProfileDefaults fills any flag left at its zero value from the
// loaded profile, so a flag the caller actually set always wins.
func applyProfileDefaults(cfg *sandbox.Config, profile *config.SandboxProfile) {
	if cfg.JailRoot == "" {
		cfg.JailRoot = profile.JailRoot
	}
	if cfg.Cgroups.Memory == "" {
		cfg.Cgroups.Memory = profile.Cgroups.Memory
	}
	if cfg.Cgroups.Pids == "" {
		cfg.Cgroups.Pids = profile.Cgroups.Pids
	}
	if cfg.Cgroups.CPUAcct == "" {
		cfg.Cgroups.CPUAcct = profile.Cgroups.CPUAcct
	}
	if cfg.Limits.MemoryBytes == 0 {
		cfg.Limits.MemoryBytes = profile.Limits.MemoryBytes
	}
	if cfg.Limits.WallClockMs == 0 {
		cfg.Limits.WallClockMs = profile.Limits.WallClockMs
	}
	if cfg.Limits.MaxTasks == 0 {
		cfg.Limits.MaxTasks = profile.Limits.MaxTasks
	}
}
