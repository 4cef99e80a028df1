package rlimit

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestPrepareOnlyIncludesSetFields(t *testing.T) {
	r := RLimits{AddressSpace: 1 << 20}
	got := r.prepare()
	if len(got) != 1 {
		t.Fatalf("prepare() returned %d limits, want 1", len(got))
	}
	if got[0].res != unix.RLIMIT_AS {
		t.Fatalf("prepare() res = %d, want RLIMIT_AS", got[0].res)
	}
	if got[0].rlim.Cur != 1<<20 || got[0].rlim.Max != 1<<20 {
		t.Fatalf("prepare() rlim = %+v, want Cur=Max=1<<20", got[0].rlim)
	}
}

func TestPrepareEmpty(t *testing.T) {
	if got := (RLimits{}).prepare(); len(got) != 0 {
		t.Fatalf("prepare() on zero value = %v, want empty", got)
	}
}

func TestPrepareDisableCore(t *testing.T) {
	got := RLimits{DisableCore: true}.prepare()
	if len(got) != 1 {
		t.Fatalf("prepare() returned %d limits, want 1", len(got))
	}
	if got[0].rlim.Cur != 0 || got[0].rlim.Max != 0 {
		t.Fatalf("DisableCore rlim = %+v, want {0,0}", got[0].rlim)
	}
}
