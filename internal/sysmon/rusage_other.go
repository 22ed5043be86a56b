//go:build !unix

package sysmon

// ChildCPUTime is not available on this platform.
func ChildCPUTime() (t CPUTime, ok bool) { return CPUTime{}, false }

// SelfCPUTime is not available on this platform.
func SelfCPUTime() (t CPUTime, ok bool) { return CPUTime{}, false }
