package analysis

import "github.com/joshharrison/srpa/internal/model"

// TraceBlocking returns the longest critical section in tr that can block
// target. A node whose ceiling reaches the target's priority contributes its
// own duration and its children are not searched, since the node already
// covers them. Otherwise the maximum over the children is returned.
func TraceBlocking(tr *model.Trace, target *model.Task, ceilings PriorityMap, cmp Comparison) uint32 {
	if p, ok := ceilings[tr.ID]; ok && cmp.Reaches(p, target.Prio) {
		return tr.Duration()
	}

	var blocking uint32
	for i := range tr.Inner {
		if b := TraceBlocking(&tr.Inner[i], target, ceilings, cmp); b > blocking {
			blocking = b
		}
	}
	return blocking
}

// TaskBlocking returns the blocking that candidate can impose on target.
func TaskBlocking(candidate, target *model.Task, ceilings PriorityMap, cmp Comparison) uint32 {
	return TraceBlocking(&candidate.Trace, target, ceilings, cmp)
}

// SetBlocking returns the worst-case blocking of target: the maximum, not
// the sum, over all strictly lower-priority tasks. Under a ceiling protocol
// a task is blocked by at most one critical section.
func SetBlocking(tasks model.Tasks, target *model.Task, ceilings PriorityMap, cmp Comparison) uint32 {
	return setBlocking(tasks, target, ceilings, cmp, nil)
}

func setBlocking(tasks model.Tasks, target *model.Task, ceilings PriorityMap, cmp Comparison, log func(candidate string, b uint32)) uint32 {
	lower := tasks.Lower(target)

	var blocking uint32
	for i := range lower {
		b := TaskBlocking(&lower[i], target, ceilings, cmp)
		if log != nil {
			log(lower[i].ID, b)
		}
		if b > blocking {
			blocking = b
		}
	}
	return blocking
}
