// Package cgroup creates and tears down the per-invocation, per-pid
// cgroup v1 controller directories the resource-limit installer (§4.4)
// needs: memory, pids, and cpuacct. It is grounded on the teacher's
// pkg/cgroup Builder/SubCGroup split, adapted to the spec's explicit
// CgroupLocations contract (§3): directories are created as named
// children of caller-supplied absolute paths, not auto-discovered
// under /sys/fs/cgroup.
package cgroup

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	cgroupProcsFile = "cgroup.procs"
	dirPerm         = 0o755
	filePerm        = 0o644
)

// SubCgroup is a single controller directory, supporting the atomic
// uint64 read/write primitives every controller file uses.
type SubCgroup struct {
	path string
}

// NewSubCgroup wraps an existing controller directory path.
func NewSubCgroup(path string) *SubCgroup {
	return &SubCgroup{path: path}
}

// Path returns the controller directory's absolute path.
func (s *SubCgroup) Path() string {
	return s.path
}

// WriteUint writes a decimal uint64 into the named controller file.
func (s *SubCgroup) WriteUint(filename string, v uint64) error {
	p := filepath.Join(s.path, filename)
	if err := ioutil.WriteFile(p, []byte(strconv.FormatUint(v, 10)), filePerm); err != nil {
		return fmt.Errorf("cgroup: write %s: %w", p, err)
	}
	return nil
}

// ReadUint reads a decimal uint64 from the named controller file.
func (s *SubCgroup) ReadUint(filename string) (uint64, error) {
	p := filepath.Join(s.path, filename)
	b, err := ioutil.ReadFile(p)
	if err != nil {
		return 0, fmt.Errorf("cgroup: read %s: %w", p, err)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cgroup: parse %s: %w", p, err)
	}
	return v, nil
}

// AddProc writes the given pid to cgroup.procs, joining the
// controller.
func (s *SubCgroup) AddProc(pid int) error {
	return s.WriteUint(cgroupProcsFile, uint64(pid))
}

// Set is the three controllers a single invocation needs: memory,
// pids (task-count accounting) and cpuacct (cpu-time accounting; the
// child is joined to it, but nothing in this module reads it).
type Set struct {
	Memory  *SubCgroup
	Pids    *SubCgroup
	CPUAcct *SubCgroup
}

// Locations names the parent path for each controller; mirrors
// sandbox.CgroupLocations without importing the sandbox package
// (avoiding an import cycle, since sandbox imports cgroup).
type Locations struct {
	Memory  string
	Pids    string
	CPUAcct string
}

// Create makes the three per-pid subdirectories, named by pid, under
// each location in locs. On any failure it removes whatever it
// already created and returns the error.
func Create(locs Locations, pid int) (set *Set, err error) {
	name := strconv.Itoa(pid)
	var made []string
	defer func() {
		if err != nil {
			for _, p := range made {
				os.Remove(p)
			}
		}
	}()

	mk := func(parent string) (string, error) {
		p := filepath.Join(parent, name)
		if mkErr := os.Mkdir(p, dirPerm); mkErr != nil {
			return "", fmt.Errorf("cgroup: mkdir %s: %w", p, mkErr)
		}
		made = append(made, p)
		return p, nil
	}

	memPath, err := mk(locs.Memory)
	if err != nil {
		return nil, err
	}
	pidsPath, err := mk(locs.Pids)
	if err != nil {
		return nil, err
	}
	cpuacctPath, err := mk(locs.CPUAcct)
	if err != nil {
		return nil, err
	}

	return &Set{
		Memory:  NewSubCgroup(memPath),
		Pids:    NewSubCgroup(pidsPath),
		CPUAcct: NewSubCgroup(cpuacctPath),
	}, nil
}

// AddProc joins pid to all three controllers.
func (s *Set) AddProc(pid int) error {
	for _, c := range []*SubCgroup{s.Memory, s.Pids, s.CPUAcct} {
		if err := c.AddProc(pid); err != nil {
			return err
		}
	}
	return nil
}

// SetMemoryLimitInBytes writes memory.limit_in_bytes.
func (s *Set) SetMemoryLimitInBytes(v uint64) error {
	return s.Memory.WriteUint("memory.limit_in_bytes", v)
}

// MemoryLimitExceeded reports whether the controller ever recorded a
// failed charge against the memory cap (memory.failcnt > 0), the
// cgroup v1 way of observing an MLE without a synchronous OOM kill.
func (s *Set) MemoryLimitExceeded() (bool, error) {
	n, err := s.Memory.ReadUint("memory.failcnt")
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetPidsMax writes pids.max.
func (s *Set) SetPidsMax(v uint64) error {
	return s.Pids.WriteUint("pids.max", v)
}

// CurrentTasks reads pids.current, the live process/thread count.
func (s *Set) CurrentTasks() (uint64, error) {
	return s.Pids.ReadUint("pids.current")
}

// Destroy removes all three controller directories and returns the
// first error; every removal is attempted regardless of earlier
// failures, since an orphaned directory on one controller must not
// prevent cleanup of the others (§7: cleanup failures must not leave
// the system in an unsafe, leaking state).
func (s *Set) Destroy() error {
	var firstErr error
	for _, c := range []*SubCgroup{s.Memory, s.Pids, s.CPUAcct} {
		if c == nil {
			continue
		}
		if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("cgroup: remove %s: %w", c.path, err)
			}
		}
	}
	return firstErr
}
