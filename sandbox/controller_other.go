//go:build !linux

package sandbox

import (
	"context"
	"fmt"
)

// Run always fails on non-Linux platforms; the sandbox core depends on
// Linux pid namespaces, chroot and seccomp (§1 non-goals).
func Run(ctx context.Context, cfg Config) (Outcome, error) {
	return Failure, fmt.Errorf("sandbox: unsupported platform")
}
