//go:build !linux

package sandbox

// MaybeRunChild is a no-op on non-Linux platforms. The sandbox core
// requires Linux namespaces, chroot and seccomp; portability to other
// kernels is an explicit non-goal (§1).
func MaybeRunChild() {}
