package model

import (
	"fmt"
	"strings"
)

// Duration returns End - Start, or 0 for an inverted interval.
func (tr *Trace) Duration() uint32 {
	if tr.End < tr.Start {
		return 0
	}
	return tr.End - tr.Start
}

// Walk visits tr and its descendants in pre-order. Returning false from fn
// skips the children of the node just visited.
func (tr *Trace) Walk(fn func(*Trace) bool) {
	if !fn(tr) {
		return
	}
	for i := range tr.Inner {
		tr.Inner[i].Walk(fn)
	}
}

// Depth returns the nesting depth of the tree; a trace with no children has depth 1.
func (tr *Trace) Depth() int {
	deepest := 0
	for i := range tr.Inner {
		if d := tr.Inner[i].Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

func (tr *Trace) String() string {
	var b strings.Builder
	tr.write(&b, 0)
	return b.String()
}

func (tr *Trace) write(b *strings.Builder, level int) {
	fmt.Fprintf(b, "%sid %s [%d...%d]\n", strings.Repeat("    ", level), tr.ID, tr.Start, tr.End)
	for i := range tr.Inner {
		tr.Inner[i].write(b, level+1)
	}
}

// WCET is the worst-case execution time of the task: the duration of its root trace.
func (t *Task) WCET() uint32 {
	return t.Trace.Duration()
}

// Utilization returns WCET / InterArrival, or 0 when InterArrival is unset.
func (t *Task) Utilization() float64 {
	if t.InterArrival == 0 {
		return 0
	}
	return float64(t.WCET()) / float64(t.InterArrival)
}

func (t *Task) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "id            %s\n", t.ID)
	fmt.Fprintf(&b, "prio          %d\n", t.Prio)
	fmt.Fprintf(&b, "deadline      %d\n", t.Deadline)
	fmt.Fprintf(&b, "inter_arrival %d\n", t.InterArrival)
	fmt.Fprintf(&b, "trace:\n%s", t.Trace.String())
	return b.String()
}

// Lower returns the tasks with strictly lower priority than t, in set order.
func (ts Tasks) Lower(t *Task) Tasks {
	return ts.Filter(func(o *Task) bool { return o.Prio < t.Prio })
}

// Higher returns the tasks with strictly higher priority than t, in set order.
func (ts Tasks) Higher(t *Task) Tasks {
	return ts.Filter(func(o *Task) bool { return o.Prio > t.Prio })
}

// Filter returns the tasks matching pred, preserving order.
func (ts Tasks) Filter(pred func(*Task) bool) Tasks {
	var out Tasks
	for i := range ts {
		if pred(&ts[i]) {
			out = append(out, ts[i])
		}
	}
	return out
}

// Find returns the task with the given ID.
func (ts Tasks) Find(id string) (*Task, bool) {
	for i := range ts {
		if ts[i].ID == id {
			return &ts[i], true
		}
	}
	return nil, false
}

// TotalUtilization sums per-task utilization.
func (ts Tasks) TotalUtilization() float64 {
	total := 0.0
	for i := range ts {
		total += ts[i].Utilization()
	}
	return total
}

func (ts Tasks) String() string {
	var b strings.Builder
	for i := range ts {
		b.WriteString(ts[i].String())
		b.WriteString("\n")
	}
	return b.String()
}
