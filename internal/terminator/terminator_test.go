package terminator

import (
	"os/exec"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aero31aero/crux-judge/internal/xlog"
)

func spawnSleeper(t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("sleep", "5")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot spawn helper process: %v", err)
	}
	return cmd
}

func TestArmFiresAndKills(t *testing.T) {
	cmd := spawnSleeper(t)
	var fired int32
	h := Arm(cmd.Process.Pid, 30*time.Millisecond, xlog.Nop(), func() {
		atomic.StoreInt32(&fired, 1)
	})

	h.WaitDone()

	if atomic.LoadInt32(&fired) != 1 {
		t.Fatalf("onFire was not invoked")
	}
	if !h.Fired() {
		t.Fatalf("Fired() = false after firing")
	}
	cmd.Wait()
}

func TestCancelBeforeFireSuppressesOnFire(t *testing.T) {
	cmd := spawnSleeper(t)
	defer cmd.Process.Kill()
	defer cmd.Wait()

	var fired int32
	h := Arm(cmd.Process.Pid, time.Hour, xlog.Nop(), func() {
		atomic.StoreInt32(&fired, 1)
	})

	h.Cancel()

	if atomic.LoadInt32(&fired) != 0 {
		t.Fatalf("onFire invoked after Cancel before expiry")
	}
	if h.Fired() {
		t.Fatalf("Fired() = true after Cancel, want false")
	}
}

func TestMarkTerminatedSuppressesKill(t *testing.T) {
	cmd := spawnSleeper(t)
	cmd.Wait() // already reaped, pid is gone/recyclable

	var fired int32
	h := Arm(cmd.Process.Pid, 20*time.Millisecond, xlog.Nop(), func() {
		atomic.StoreInt32(&fired, 1)
	})
	h.MarkTerminated()

	h.WaitDone()

	if atomic.LoadInt32(&fired) != 0 {
		t.Fatalf("onFire invoked despite MarkTerminated")
	}
}
