package sandbox

import "testing"

func TestOutcomeString(t *testing.T) {
	cases := map[Outcome]string{
		OK:             "OK",
		RuntimeError:   "RuntimeError",
		MemoryExceeded: "MemoryExceeded",
		TimeExceeded:   "TimeExceeded",
		TaskExceeded:   "TaskExceeded",
		Failure:        "Failure",
		Outcome(99):    "Unknown",
	}
	for o, want := range cases {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", o, got, want)
		}
	}
}

func TestExceededCauseString(t *testing.T) {
	cases := map[ExceededCause]string{
		ExceededNone:      "none",
		ExceededFatal:     "fatal",
		ExceededMemory:    "memory",
		ExceededWallClock: "wall-clock",
		ExceededTasks:     "tasks",
	}
	for c, want := range cases {
		if got := c.String(); got != want {
			t.Errorf("ExceededCause(%d).String() = %q, want %q", c, got, want)
		}
	}
}
