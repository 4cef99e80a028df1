// Package limiter implements the resource-limit installer contract
// from §4.4: given a child pid and the configured caps, it creates the
// per-pid cgroup controller directories, writes the caps, joins the
// child to them, arms the wall-clock terminator, and exposes the
// shared ExceededCause the parent controller consults after reap.
package limiter

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aero31aero/crux-judge/internal/cgroup"
	"github.com/aero31aero/crux-judge/internal/terminator"
	"github.com/aero31aero/crux-judge/internal/xlog"
)

// Cause is the tagged value produced by the installer/terminator,
// mirroring the original's `exceeded` variable. NONE is the zero
// value; it is mutated at most once.
type Cause int32

// Recognized causes.
const (
	CauseNone Cause = iota
	CauseFatal
	CauseMemory
	CauseWallClock
	CauseTasks
)

func (c Cause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseFatal:
		return "fatal"
	case CauseMemory:
		return "memory"
	case CauseWallClock:
		return "wall-clock"
	case CauseTasks:
		return "tasks"
	default:
		return "unknown"
	}
}

// Limits is the resource-limit installer's own view of §3's
// ResourceLimits, duplicated here (rather than imported from the
// sandbox package) to keep this package import-cycle-free; sandbox
// converts its exported ResourceLimits into this shape at the call
// site.
type Limits struct {
	MemoryBytes uint64
	WallClockMs uint64
	MaxTasks    uint64
}

// Locations is this package's view of §3's CgroupLocations.
type Locations = cgroup.Locations

// Installed is returned by Install on success: the live cgroup set,
// the armed terminator handle, and the shared exceeded cause the
// watcher/terminator will write into at most once.
type Installed struct {
	Cgroups    *cgroup.Set
	Terminator *terminator.Handle
	exceeded   int32 // atomic Cause
	stopWatch  chan struct{}
}

// Exceeded atomically reads the current cause.
func (in *Installed) Exceeded() Cause {
	return Cause(atomic.LoadInt32(&in.exceeded))
}

func (in *Installed) setExceeded(c Cause) {
	atomic.CompareAndSwapInt32(&in.exceeded, int32(CauseNone), int32(c))
}

// StopWatching tells the breach-polling goroutine to exit. Idempotent.
func (in *Installed) StopWatching() {
	select {
	case <-in.stopWatch:
	default:
		close(in.stopWatch)
	}
}

// watchPollInterval is how often the installer polls the memory/pids
// controllers for a breach. Cgroup v1 does not push breach
// notifications the way a wall-clock timer can be driven by
// time.Timer, so a short poll is the pragmatic middle ground (it also
// matches the granularity contest judges typically need: tens of
// milliseconds, not microseconds).
const watchPollInterval = 20 * time.Millisecond

// Install implements §4.4: create the controller directories, apply
// the caps, join pid, arm the terminator, and start the breach
// watcher. On failure it cleans up anything it already created and
// returns an error; the caller (parent controller) is still
// responsible for SIGTERM'ing the child and any channel cleanup.
func Install(pid int, limits Limits, locs Locations, log *xlog.Logger) (*Installed, error) {
	set, err := cgroup.Create(locs, pid)
	if err != nil {
		return nil, fmt.Errorf("limiter: create cgroups: %w", err)
	}

	if err := set.SetMemoryLimitInBytes(limits.MemoryBytes); err != nil {
		set.Destroy()
		return nil, fmt.Errorf("limiter: set memory limit: %w", err)
	}
	// pids.max is set one above the configured cap: the kernel enforces
	// pids.max as a hard fork-time ceiling, so writing it equal to
	// MaxTasks would make pids.current > MaxTasks impossible to ever
	// observe and CauseTasks unreachable. Writing MaxTasks+1 lets the
	// breaching fork succeed so the watcher can see and report it; the
	// task-count cap is enforced here by the watcher's comparison, not
	// by the kernel's hard refusal.
	if err := set.SetPidsMax(limits.MaxTasks + 1); err != nil {
		set.Destroy()
		return nil, fmt.Errorf("limiter: set pids limit: %w", err)
	}
	if err := set.AddProc(pid); err != nil {
		set.Destroy()
		return nil, fmt.Errorf("limiter: add proc: %w", err)
	}

	in := &Installed{
		Cgroups:   set,
		stopWatch: make(chan struct{}),
	}

	in.Terminator = terminator.Arm(pid, time.Duration(limits.WallClockMs)*time.Millisecond, log, func() {
		in.setExceeded(CauseWallClock)
	})

	go in.watch(set, limits)

	return in, nil
}

// watch polls the memory and pids controllers for a breach until
// stopped or a breach is observed. It never overwrites an
// already-set cause (setExceeded is CAS-guarded against CauseNone),
// matching §5's "exceeded is written by at most one party" guarantee
// even though both the watcher and the terminator can race to write
// it.
func (in *Installed) watch(set *cgroup.Set, limits Limits) {
	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-in.stopWatch:
			return
		case <-ticker.C:
			if mle, err := set.MemoryLimitExceeded(); err == nil && mle {
				in.setExceeded(CauseMemory)
				return
			}
			if tasks, err := set.CurrentTasks(); err == nil && tasks > limits.MaxTasks {
				in.setExceeded(CauseTasks)
				return
			}
		}
	}
}
