//go:build linux

package sandbox

import (
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/aero31aero/crux-judge/internal/rlimit"
	"github.com/aero31aero/crux-judge/internal/seccompfilter"
	"github.com/aero31aero/crux-judge/internal/whitelist"
	"github.com/aero31aero/crux-judge/internal/xlog"
)

// MaybeRunChild checks whether the current process was re-exec'd as
// the sandbox's child bootstrap (argv[1] == reexecArg). If so it runs
// the §4.2 bootstrap to completion and never returns: it either
// execve's the target binary or os.Exit's with childSetupFailure. If
// the sentinel is absent it returns immediately so the caller's normal
// main can proceed.
//
// Callers must invoke this as the first statement of main(), before
// any flag parsing or other setup, matching the container-init
// convention this is grounded on.
func MaybeRunChild() {
	if len(os.Args) < 2 || os.Args[1] != reexecArg {
		return
	}

	// Locked for the remainder of the process's life: setgid/setuid
	// below must land on the same OS thread that later calls execve,
	// or the credential drop would apply to the wrong thread and the
	// exec'd program could retain elevated privileges.
	runtime.LockOSThread()

	log := xlog.New(os.Getenv(envVerbose) == "1")
	childBootstrap(log)
	// unreachable
}

func childBootstrap(log *xlog.Logger) {
	exePath := os.Getenv(envExePath)
	jailRoot := os.Getenv(envJailRoot)
	inputPath := os.Getenv(envInputPath)
	outputPath := os.Getenv(envOutputPath)
	whitelistPath := os.Getenv(envWhitelistPath)
	uid, uidErr := strconv.ParseUint(os.Getenv(envUID), 10, 32)
	gid, gidErr := strconv.ParseUint(os.Getenv(envGID), 10, 32)
	if uidErr != nil || gidErr != nil {
		log.Err("child: malformed uid/gid in environment", uidErr)
		os.Exit(childSetupFailure)
	}
	memoryBytes, memErr := strconv.ParseUint(os.Getenv(envMemoryBytes), 10, 64)
	if memErr != nil {
		log.Err("child: malformed memory limit in environment", memErr)
		os.Exit(childSetupFailure)
	}

	// Step 1: open input/output while still in host filesystem view.
	in, err := os.OpenFile(inputPath, os.O_RDONLY, 0)
	if err != nil {
		log.Err("child: open input failed", err)
		os.Exit(childSetupFailure)
	}
	out, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outputFileMode)
	if err != nil {
		log.Err("child: open output failed", err)
		os.Exit(childSetupFailure)
	}

	// Step 2: redirect stdio, then close the originals.
	if err := unix.Dup2(int(in.Fd()), 0); err != nil {
		log.Err("child: dup2(stdin) failed", err)
		os.Exit(childSetupFailure)
	}
	if err := unix.Dup2(int(out.Fd()), 1); err != nil {
		log.Err("child: dup2(stdout) failed", err)
		os.Exit(childSetupFailure)
	}
	in.Close()
	out.Close()

	parentEnd := os.NewFile(childParentEndFd, "sandbox-notify-parent")
	childEnd := os.NewFile(childChildEndFd, "sandbox-notify-child")

	// Step 3: announce readiness to take limits.
	if err := writeToken(parentEnd); err != nil {
		log.Err("child: notify parent failed", err)
		os.Exit(childSetupFailure)
	}

	// Step 4: block until the parent has installed limits.
	if err := readToken(childEnd); err != nil {
		log.Err("child: wait for parent release failed", err)
		os.Exit(childSetupFailure)
	}
	parentEnd.Close()
	childEnd.Close()

	// Step 5: open the whitelist while still in host view; it may
	// live outside the jail.
	wl, err := unix.Open(whitelistPath, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		log.Errno("child: open whitelist failed", err.(unix.Errno))
		os.Exit(childSetupFailure)
	}
	whitelistFile := os.NewFile(uintptr(wl), whitelistPath)
	syscalls, err := whitelist.ParseFile(whitelistFile)
	if err != nil {
		log.Err("child: parse whitelist failed", err)
		os.Exit(childSetupFailure)
	}

	// Step 6: chdir + chroot. No host path is reachable after this.
	if err := unix.Chdir(jailRoot); err != nil {
		log.Err("child: chdir(jail) failed", err)
		os.Exit(childSetupFailure)
	}
	if err := unix.Chroot("."); err != nil {
		log.Err("child: chroot failed", err)
		os.Exit(childSetupFailure)
	}

	// Step 7: drop group, then user. Order is mandatory: once uid is
	// unprivileged, setgid would fail with EPERM.
	if err := unix.Setgid(int(gid)); err != nil {
		log.Err("child: setgid failed", err)
		os.Exit(childSetupFailure)
	}
	if err := unix.Setuid(int(uid)); err != nil {
		log.Err("child: setuid failed", err)
		os.Exit(childSetupFailure)
	}

	// Defense in depth alongside the cgroup memory controller: RLIMIT_AS
	// makes an over-large allocation fail synchronously, at the syscall that
	// requested it, rather than waiting for the watcher's next poll.
	// RLIMIT_CORE disables core dumps so a crashing submission does not
	// fill the jail with them before the syscall filter even matters.
	if err := rlimit.Apply(rlimit.RLimits{
		AddressSpace: memoryBytes,
		DisableCore:  true,
	}); err != nil {
		log.Err("child: setrlimit failed", err)
		os.Exit(childSetupFailure)
	}

	// Step 8: install the syscall filter. Any syscall outside the
	// whitelist now kills the process.
	if err := seccompfilter.Install(syscalls); err != nil {
		log.Err("child: install syscall filter failed", err)
		os.Exit(childSetupFailure)
	}

	// Step 9: exec. Never returns on success.
	if err := unix.Exec(exePath, []string{exePath}, nil); err != nil {
		log.Err("child: execve failed", err)
	}
	os.Exit(childSetupFailure)
}
