package config

import (
	"runtime"
	"slices"
)

// baseBenchJobs are the job counts benchmarked on every host.
var baseBenchJobs = []int{1, 2, 4, 6, 8}

// DefaultBenchJobs returns the job counts benchmarked when none are given:
// 1, 2, 4, 6 and 8, plus the number of logical CPUs when it is larger, so the
// sweep always reaches full occupancy of the host.
func DefaultBenchJobs() []int {
	return benchJobsFor(runtime.NumCPU())
}

func benchJobsFor(numCPU int) []int {
	jobs := slices.Clone(baseBenchJobs)
	if numCPU > jobs[len(jobs)-1] {
		jobs = append(jobs, numCPU)
	}
	return jobs
}
