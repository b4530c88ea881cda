package analysis

import (
	"math"
	"math/bits"

	"github.com/joshharrison/srpa/internal/model"
)

// Solve computes the worst-case response time of target as the smallest
// fixed point of
//
//	L = wcet + blocking + sum over h in higher of releases(L, h) * h.wcet
//
// iterating L(k+1) = rhs(L(k)) from mode's initial estimate. The iteration
// stops unschedulable as soon as an iterate exceeds the deadline, and
// succeeds once an iterate no longer grows. Every task in higher must have
// a positive inter-arrival time.
func Solve(target *model.Task, blocking uint32, higher model.Tasks, mode Mode, releases ReleaseCount) Solution {
	return solve(target, blocking, higher, mode, releases, nil)
}

func solve(target *model.Task, blocking uint32, higher model.Tasks, mode Mode, releases ReleaseCount, log func(iter int, l uint64)) Solution {
	base := uint64(target.WCET()) + uint64(blocking)
	deadline := uint64(target.Deadline)

	// rhs saturates at math.MaxUint64 so that an overflowing sum is a miss,
	// never a wrapped value mistaken for a fixed point.
	rhs := func(l uint64) uint64 {
		total := base
		for i := range higher {
			hi, demand := bits.Mul64(releases.Count(l, higher[i].InterArrival), uint64(higher[i].WCET()))
			sum, carry := bits.Add64(total, demand, 0)
			if hi != 0 || carry != 0 {
				return math.MaxUint64
			}
			total = sum
		}
		return total
	}

	cur := base
	if mode == ModeBounded {
		cur = deadline
	}

	var sol Solution
	for {
		next := rhs(cur)
		sol.Iterations++
		if log != nil {
			log(sol.Iterations, next)
		}
		if next > deadline {
			return sol
		}
		if next <= cur {
			sol.ResponseTime = uint32(next)
			sol.OK = true
			return sol
		}
		cur = next
	}
}
