// Package sysmon samples host CPU and memory usage and the CPU time spent by
// reaped child processes, for benchmark reports.
package sysmon

import (
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of system-wide resource usage.
type Stats struct {
	CPUPercent float64 // 0.0 .. 100.0
	MemPercent float64 // 0.0 .. 100.0
}

// Sample collects a single system-wide CPU and memory snapshot.
// CPU uses interval=0 (delta since last call). Returns zero values on error.
func Sample() Stats {
	var s Stats
	cpuPcts, err := cpu.Percent(0, false)
	if err == nil && len(cpuPcts) > 0 {
		s.CPUPercent = cpuPcts[0]
	}
	vmem, err := mem.VirtualMemory()
	if err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	return s
}

// Host describes the machine a benchmark ran on.
type Host struct {
	Model         string
	LogicalCores  int
	PhysicalCores int
	TotalMemory   uint64
}

// DescribeHost reads the CPU model, core counts and memory size. Fields that
// cannot be read are left zero.
func DescribeHost() Host {
	var h Host
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		h.Model = infos[0].ModelName
	}
	if n, err := cpu.Counts(true); err == nil {
		h.LogicalCores = n
	}
	if n, err := cpu.Counts(false); err == nil {
		h.PhysicalCores = n
	}
	if vmem, err := mem.VirtualMemory(); err == nil && vmem != nil {
		h.TotalMemory = vmem.Total
	}
	return h
}

// CPUTime is user plus system CPU time.
type CPUTime struct {
	User   time.Duration
	System time.Duration
}

// Total returns User + System.
func (c CPUTime) Total() time.Duration { return c.User + c.System }

// Sub returns the CPU time accumulated since before.
func (c CPUTime) Sub(before CPUTime) CPUTime {
	return CPUTime{User: c.User - before.User, System: c.System - before.System}
}
