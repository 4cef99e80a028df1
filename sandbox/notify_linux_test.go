//go:build linux

package sandbox

import (
	"testing"
	"time"
)

func TestNotifyChannelRoundTrip(t *testing.T) {
	nc, err := newNotifyChannel()
	if err != nil {
		t.Fatalf("newNotifyChannel: %v", err)
	}
	defer nc.Close()

	if err := writeToken(nc.parentEnd); err != nil {
		t.Fatalf("writeToken(parentEnd): %v", err)
	}

	readDone := make(chan error, 1)
	go func() {
		readDone <- readToken(nc.parentEnd)
	}()

	select {
	case err := <-readDone:
		if err != nil {
			t.Fatalf("readToken(parentEnd): %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("readToken(parentEnd) blocked, token was not delivered")
	}
}

func TestNotifyChannelCloseIsIdempotent(t *testing.T) {
	nc, err := newNotifyChannel()
	if err != nil {
		t.Fatalf("newNotifyChannel: %v", err)
	}
	nc.Close()
	nc.Close()
}
