package xlog

import "testing"

func TestFileLine(t *testing.T) {
	got := fileLine("sandbox/child_linux.go", 42)
	want := "sandbox/child_linux.go:42"
	if got != want {
		t.Fatalf("fileLine() = %q, want %q", got, want)
	}
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop()
	l.Err("boom", nil)
	l.Debug("tick")
	l.Info("tock")
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync() on Nop logger returned %v, want nil-ish", err)
	}
}

func TestNewBuildsUsableLogger(t *testing.T) {
	l := New(true)
	if l == nil || l.z == nil {
		t.Fatalf("New(true) returned an unusable logger")
	}
	l.Debug("verbose line")
}
