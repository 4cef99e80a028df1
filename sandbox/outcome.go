package sandbox

import "github.com/aero31aero/crux-judge/internal/limiter"

// Outcome is the sum type returned by Run, mirroring the original
// SB_OK / SB_RUNTIME_ERR / ... constants.
type Outcome int

// Possible outcomes of a sandbox invocation.
const (
	OK Outcome = iota
	RuntimeError
	MemoryExceeded
	TimeExceeded
	TaskExceeded
	Failure
)

var outcomeString = [...]string{
	"OK",
	"RuntimeError",
	"MemoryExceeded",
	"TimeExceeded",
	"TaskExceeded",
	"Failure",
}

func (o Outcome) String() string {
	if int(o) < 0 || int(o) >= len(outcomeString) {
		return "Unknown"
	}
	return outcomeString[o]
}

// ExceededCause is the tagged value written by the limit installer /
// terminator and consulted by the controller during classification.
// It is an alias for limiter.Cause: the installer is the party that
// produces it, the controller only reads it back.
type ExceededCause = limiter.Cause

// Recognized exceeded causes. ExceededNone is the zero value so a
// freshly allocated ExceededCause starts unexceeded.
const (
	ExceededNone       = limiter.CauseNone
	ExceededFatal      = limiter.CauseFatal
	ExceededMemory     = limiter.CauseMemory
	ExceededWallClock  = limiter.CauseWallClock
	ExceededTasks      = limiter.CauseTasks
)

// childSetupFailure is the sentinel exit status the re-exec'd child
// bootstrap uses to signal a setup failure distinguishable from any
// exit code a normal user program can produce.
const childSetupFailure = 125
