//go:build unix

package sysmon

import (
	"time"

	"golang.org/x/sys/unix"
)

// ChildCPUTime returns the CPU time used by all terminated and waited-for
// children of this process. ok is false when the platform cannot report it.
func ChildCPUTime() (t CPUTime, ok bool) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_CHILDREN, &ru); err != nil {
		return CPUTime{}, false
	}
	return CPUTime{
		User:   time.Duration(ru.Utime.Nano()),
		System: time.Duration(ru.Stime.Nano()),
	}, true
}

// SelfCPUTime returns the CPU time used by this process.
func SelfCPUTime() (t CPUTime, ok bool) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return CPUTime{}, false
	}
	return CPUTime{
		User:   time.Duration(ru.Utime.Nano()),
		System: time.Duration(ru.Stime.Nano()),
	}, true
}
