package taskset

import (
	"errors"
	"fmt"

	"github.com/joshharrison/srpa/internal/model"
)

// Validate checks the structural invariants the analysis relies on: unique
// non-empty task IDs, positive inter-arrival times, well-formed intervals,
// children nested within their parent and siblings not overlapping.
// All problems are reported together, wrapped in ErrInvalidTaskSet.
func Validate(tasks model.Tasks) error {
	var problems []error
	seen := make(map[string]bool, len(tasks))

	for i := range tasks {
		t := &tasks[i]
		name := t.ID
		if name == "" {
			name = fmt.Sprintf("task[%d]", i)
			problems = append(problems, fmt.Errorf("%s: empty id", name))
		} else if seen[t.ID] {
			problems = append(problems, fmt.Errorf("task %s: duplicate id", t.ID))
		}
		seen[t.ID] = true

		if t.InterArrival == 0 {
			problems = append(problems, fmt.Errorf("task %s: inter_arrival must be positive", name))
		}
		problems = append(problems, checkTrace(name, &t.Trace)...)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTaskSet, errors.Join(problems...))
	}
	return nil
}

func checkTrace(task string, tr *model.Trace) []error {
	var problems []error
	if tr.End < tr.Start {
		problems = append(problems, fmt.Errorf("task %s: %s [%d...%d] ends before it starts", task, tr.ID, tr.Start, tr.End))
	}
	for i := range tr.Inner {
		c := &tr.Inner[i]
		if c.Start < tr.Start || c.End > tr.End {
			problems = append(problems, fmt.Errorf("task %s: %s [%d...%d] lies outside %s [%d...%d]",
				task, c.ID, c.Start, c.End, tr.ID, tr.Start, tr.End))
		}
		if i > 0 && c.Start < tr.Inner[i-1].End {
			problems = append(problems, fmt.Errorf("task %s: %s [%d...%d] overlaps %s [%d...%d]",
				task, c.ID, c.Start, c.End, tr.Inner[i-1].ID, tr.Inner[i-1].Start, tr.Inner[i-1].End))
		}
		problems = append(problems, checkTrace(task, c)...)
	}
	return problems
}

// Lint returns advisory warnings that do not prevent analysis: shared
// priorities, root traces not named after their task, and deadlines beyond
// the inter-arrival time.
func Lint(tasks model.Tasks) []string {
	var warnings []string
	byPrio := make(map[int]string)
	for i := range tasks {
		t := &tasks[i]
		if other, ok := byPrio[t.Prio]; ok {
			warnings = append(warnings, fmt.Sprintf("tasks %s and %s share priority %d", other, t.ID, t.Prio))
		} else {
			byPrio[t.Prio] = t.ID
		}
		if t.Trace.ID != t.ID {
			warnings = append(warnings, fmt.Sprintf("task %s: root trace id is %q", t.ID, t.Trace.ID))
		}
		if t.Deadline > t.InterArrival {
			warnings = append(warnings, fmt.Sprintf("task %s: deadline %d exceeds inter_arrival %d", t.ID, t.Deadline, t.InterArrival))
		}
	}
	return warnings
}
