// Package rlimit applies POSIX resource limits to the calling process
// via setrlimit, adapted from the Builder pattern of constructing an
// RLimits value and walking its non-zero fields. In the sandbox
// bootstrap these act as a coarse, in-process backstop alongside the
// cgroup controllers: a cgroup breach is observed asynchronously by a
// polling watcher, while RLIMIT_AS makes the offending allocation fail
// synchronously, at the syscall that requested it.
package rlimit

import "golang.org/x/sys/unix"

// RLimits is the subset of setrlimit resources relevant to a
// sandboxed judge submission. Zero-valued fields are left untouched
// (not set to zero) except DisableCore, which is a boolean switch.
type RLimits struct {
	AddressSpace uint64 // RLIMIT_AS, in bytes
	FileSize     uint64 // RLIMIT_FSIZE, in bytes
	Stack        uint64 // RLIMIT_STACK, in bytes
	DisableCore  bool   // RLIMIT_CORE set to {0,0}
}

type limit struct {
	res  int
	rlim unix.Rlimit
}

func (r RLimits) prepare() []limit {
	var out []limit
	if r.AddressSpace > 0 {
		out = append(out, limit{unix.RLIMIT_AS, unix.Rlimit{Cur: r.AddressSpace, Max: r.AddressSpace}})
	}
	if r.FileSize > 0 {
		out = append(out, limit{unix.RLIMIT_FSIZE, unix.Rlimit{Cur: r.FileSize, Max: r.FileSize}})
	}
	if r.Stack > 0 {
		out = append(out, limit{unix.RLIMIT_STACK, unix.Rlimit{Cur: r.Stack, Max: r.Stack}})
	}
	if r.DisableCore {
		out = append(out, limit{unix.RLIMIT_CORE, unix.Rlimit{Cur: 0, Max: 0}})
	}
	return out
}

// Apply sets every configured limit on the calling process, stopping
// and returning at the first failure. Call it before exec: rlimits
// are inherited across execve.
func Apply(r RLimits) error {
	for _, l := range r.prepare() {
		rl := l.rlim
		if err := unix.Setrlimit(l.res, &rl); err != nil {
			return err
		}
	}
	return nil
}
