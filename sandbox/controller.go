//go:build linux

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/aero31aero/crux-judge/internal/limiter"
	"github.com/aero31aero/crux-judge/internal/xlog"
)

// Run is the parent-side entry point implementing §4.3: it clones the
// child bootstrap into a fresh pid namespace via a re-exec of the
// current binary, waits for the rendezvous handshake, installs the
// resource limits, releases the child, and classifies the outcome
// once it exits or is killed by the terminator.
//
// ctx is passed to exec.CommandContext: cancelling it kills the child
// (SIGKILL) at any point until it has been reaped. A child killed this
// way after release is classified like any other signaled death.
func Run(ctx context.Context, cfg Config) (Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return Failure, err
	}

	log := xlog.New(cfg.Verbose)
	defer log.Sync()

	notify, err := newNotifyChannel()
	if err != nil {
		return Failure, fmt.Errorf("sandbox: %w", err)
	}
	defer notify.Close()

	self := "/proc/self/exe"
	cmd := exec.CommandContext(ctx, self, reexecArg)
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{notify.parentEnd, notify.childEnd}
	cmd.Env = append(os.Environ(),
		envExePath+"="+cfg.ExePath,
		envJailRoot+"="+cfg.JailRoot,
		envInputPath+"="+cfg.InputPath,
		envOutputPath+"="+cfg.OutputPath,
		envWhitelistPath+"="+cfg.WhitelistPath,
		envUID+"="+strconv.FormatUint(uint64(cfg.UID), 10),
		envGID+"="+strconv.FormatUint(uint64(cfg.GID), 10),
		envVerbose+"="+boolEnv(cfg.Verbose),
		envMemoryBytes+"="+strconv.FormatUint(cfg.Limits.MemoryBytes, 10),
	)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Cloneflags: unix.CLONE_NEWPID,
	}

	if err := cmd.Start(); err != nil {
		return Failure, fmt.Errorf("sandbox: start child: %w", err)
	}
	pid := cmd.Process.Pid

	// §4.3 step 3: wait for the child to announce it has opened its
	// files and reached the rendezvous point, before it has chrooted or
	// dropped privilege.
	if err := readToken(notify.parentEnd); err != nil {
		cmd.Process.Signal(syscall.SIGTERM)
		cmd.Wait()
		return Failure, fmt.Errorf("sandbox: rendezvous: %w", err)
	}

	installed, err := limiter.Install(pid, limiter.Limits{
		MemoryBytes: cfg.Limits.MemoryBytes,
		WallClockMs: cfg.Limits.WallClockMs,
		MaxTasks:    cfg.Limits.MaxTasks,
	}, limiter.Locations{
		Memory:  cfg.Cgroups.Memory,
		Pids:    cfg.Cgroups.Pids,
		CPUAcct: cfg.Cgroups.CPUAcct,
	}, log)
	if err != nil {
		log.Err("sandbox: install limits failed", err)
		cmd.Process.Signal(syscall.SIGTERM)
		cmd.Wait()
		return Failure, fmt.Errorf("sandbox: install limits: %w", err)
	}

	// §4.3 step 5: release the child now that it is a member of every
	// controller and the wall-clock terminator is armed.
	if err := writeToken(notify.childEnd); err != nil {
		installed.StopWatching()
		installed.Terminator.Cancel()
		cmd.Process.Signal(syscall.SIGTERM)
		cmd.Wait()
		installed.Cgroups.Destroy()
		return Failure, fmt.Errorf("sandbox: release child: %w", err)
	}
	notify.Close()

	waitErr := cmd.Wait()

	installed.Terminator.MarkTerminated()
	installed.Terminator.Cancel()
	installed.StopWatching()

	if err := installed.Cgroups.Destroy(); err != nil {
		log.Err("sandbox: cgroup cleanup failed", err)
	}

	return classify(installed.Exceeded(), waitErr), nil
}

func classify(cause ExceededCause, waitErr error) Outcome {
	switch cause {
	case ExceededFatal:
		return Failure
	case ExceededMemory:
		return MemoryExceeded
	case ExceededWallClock:
		return TimeExceeded
	case ExceededTasks:
		return TaskExceeded
	}

	if waitErr == nil {
		return OK
	}

	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		return Failure
	}

	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
		if status.Signaled() {
			return RuntimeError
		}
		if status.ExitStatus() == childSetupFailure {
			return Failure
		}
		if status.Exited() {
			// Any other normal exit, whatever its status code, is the
			// sandboxed program's own business, not the driver's: §4.3
			// step 12 / sandbox.c's WIFEXITED-and-not-signaled path both
			// classify this as OK.
			return OK
		}
	}
	return Failure
}

func boolEnv(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
