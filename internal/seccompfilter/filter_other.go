//go:build !linux

package seccompfilter

import "fmt"

// Install always fails on non-Linux platforms; seccomp-BPF is a Linux
// kernel facility and portability is an explicit non-goal (§1).
func Install(names []string) error {
	return fmt.Errorf("seccompfilter: unsupported platform")
}
