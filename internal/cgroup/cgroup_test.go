package cgroup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeLocations(t *testing.T) Locations {
	t.Helper()
	base := t.TempDir()
	locs := Locations{
		Memory:  filepath.Join(base, "memory"),
		Pids:    filepath.Join(base, "pids"),
		CPUAcct: filepath.Join(base, "cpuacct"),
	}
	for _, p := range []string{locs.Memory, locs.Pids, locs.CPUAcct} {
		if err := os.MkdirAll(p, 0o755); err != nil {
			t.Fatalf("setup mkdir %s: %v", p, err)
		}
	}
	return locs
}

func TestCreateMakesPerPidDirs(t *testing.T) {
	locs := makeLocations(t)
	set, err := Create(locs, 4242)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, p := range []string{set.Memory.Path(), set.Pids.Path(), set.CPUAcct.Path()} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory at %s, err=%v", p, err)
		}
	}
}

func TestCreateRollsBackOnPartialFailure(t *testing.T) {
	locs := makeLocations(t)
	// Pre-create the pids per-pid dir so the second mkdir in Create fails.
	if err := os.Mkdir(filepath.Join(locs.Pids, "99"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	_, err := Create(locs, 99)
	if err == nil {
		t.Fatalf("expected Create to fail on pre-existing pids dir")
	}
	if _, statErr := os.Stat(filepath.Join(locs.Memory, "99")); !os.IsNotExist(statErr) {
		t.Fatalf("Create left behind the memory dir after rollback")
	}
}

func TestWriteReadUint(t *testing.T) {
	locs := makeLocations(t)
	set, err := Create(locs, 7)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := set.SetMemoryLimitInBytes(256 << 20); err != nil {
		t.Fatalf("SetMemoryLimitInBytes: %v", err)
	}
	got, err := set.Memory.ReadUint("memory.limit_in_bytes")
	if err != nil {
		t.Fatalf("ReadUint: %v", err)
	}
	if got != 256<<20 {
		t.Fatalf("ReadUint() = %d, want %d", got, 256<<20)
	}

	if err := set.SetPidsMax(32); err != nil {
		t.Fatalf("SetPidsMax: %v", err)
	}
}

func TestAddProcWritesCgroupProcs(t *testing.T) {
	locs := makeLocations(t)
	set, err := Create(locs, 11)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := set.AddProc(os.Getpid()); err != nil {
		t.Fatalf("AddProc: %v", err)
	}
	got, err := set.Memory.ReadUint("cgroup.procs")
	if err != nil {
		t.Fatalf("ReadUint(cgroup.procs): %v", err)
	}
	if got != uint64(os.Getpid()) {
		t.Fatalf("cgroup.procs = %d, want %d", got, os.Getpid())
	}
}

func TestMemoryLimitExceeded(t *testing.T) {
	locs := makeLocations(t)
	set, err := Create(locs, 5)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := set.Memory.WriteUint("memory.failcnt", 0); err != nil {
		t.Fatalf("seed failcnt: %v", err)
	}
	exceeded, err := set.MemoryLimitExceeded()
	if err != nil {
		t.Fatalf("MemoryLimitExceeded: %v", err)
	}
	if exceeded {
		t.Fatalf("MemoryLimitExceeded() = true with failcnt 0")
	}

	if err := set.Memory.WriteUint("memory.failcnt", 3); err != nil {
		t.Fatalf("bump failcnt: %v", err)
	}
	exceeded, err = set.MemoryLimitExceeded()
	if err != nil {
		t.Fatalf("MemoryLimitExceeded: %v", err)
	}
	if !exceeded {
		t.Fatalf("MemoryLimitExceeded() = false with failcnt 3")
	}
}

func TestCurrentTasks(t *testing.T) {
	locs := makeLocations(t)
	set, err := Create(locs, 6)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := set.Pids.WriteUint("pids.current", 2); err != nil {
		t.Fatalf("seed pids.current: %v", err)
	}
	got, err := set.CurrentTasks()
	if err != nil {
		t.Fatalf("CurrentTasks: %v", err)
	}
	if got != 2 {
		t.Fatalf("CurrentTasks() = %d, want 2", got)
	}
}

func TestDestroyRemovesAllDirsAndIsIdempotent(t *testing.T) {
	locs := makeLocations(t)
	// Deliberately create the directories without writing any control
	// files into them: on a plain filesystem (unlike real cgroupfs,
	// where rmdir is special-cased to ignore the fixed control files)
	// a populated directory would make rmdir fail with ENOTEMPTY.
	set, err := Create(locs, 8)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := set.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	for _, p := range []string{set.Memory.Path(), set.Pids.Path(), set.CPUAcct.Path()} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", p, err)
		}
	}

	// Destroy is tolerant of directories already gone (no double-remove
	// failure) and of partially-missing controllers on a degraded Set.
	if err := set.Destroy(); err != nil {
		t.Fatalf("second Destroy() = %v, want nil", err)
	}
}

func TestSubCgroupPath(t *testing.T) {
	locs := makeLocations(t)
	set, err := Create(locs, 123)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(locs.Memory, "123"), set.Memory.Path())
	require.Equal(t, filepath.Join(locs.Pids, "123"), set.Pids.Path())
	require.Equal(t, filepath.Join(locs.CPUAcct, "123"), set.CPUAcct.Path())
}
