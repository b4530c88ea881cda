package analysis

import (
	"testing"

	"github.com/joshharrison/srpa/internal/model"
)

// nestedR1 is R1[10,20] holding R2 twice: [12,14] and [14,18].
func nestedR1() model.Trace {
	return model.Trace{
		ID: "R1", Start: 10, End: 20,
		Inner: []model.Trace{
			{ID: "R2", Start: 12, End: 14},
			{ID: "R2", Start: 14, End: 18},
		},
	}
}

func TestTraceBlocking_OuterSectionWins(t *testing.T) {
	tr := nestedR1()
	ip := PriorityMap{"R1": 1, "R2": 2}
	target := &model.Task{Prio: 0}

	if b := TraceBlocking(&tr, target, ip, CeilingInclusive); b != 10 {
		t.Errorf("expected blocking 10, got %d", b)
	}
}

func TestTraceBlocking_CeilingEqualsPriority(t *testing.T) {
	tr := nestedR1()
	ip := PriorityMap{"R1": 1, "R2": 2}
	target := &model.Task{Prio: 1}

	// Inclusive: R1's ceiling equals the priority and the whole section blocks.
	if b := TraceBlocking(&tr, target, ip, CeilingInclusive); b != 10 {
		t.Errorf("inclusive: expected blocking 10, got %d", b)
	}
	// Strict: R1 does not block, the longest nested R2 section does.
	if b := TraceBlocking(&tr, target, ip, CeilingStrict); b != 4 {
		t.Errorf("strict: expected blocking 4, got %d", b)
	}
}

func TestTraceBlocking_NothingReaches(t *testing.T) {
	tr := nestedR1()
	ip := PriorityMap{"R1": 1, "R2": 2}
	target := &model.Task{Prio: 3}

	if b := TraceBlocking(&tr, target, ip, CeilingInclusive); b != 0 {
		t.Errorf("expected blocking 0, got %d", b)
	}
}

func TestTraceBlocking_UnknownIDRecurses(t *testing.T) {
	tr := model.Trace{ID: "X", End: 50, Inner: []model.Trace{nestedR1()}}
	ip := PriorityMap{"R2": 5}
	target := &model.Task{Prio: 5}

	if b := TraceBlocking(&tr, target, ip, CeilingInclusive); b != 4 {
		t.Errorf("expected blocking 4, got %d", b)
	}
}

func TestSetBlocking_TaskSet1(t *testing.T) {
	ts := taskSet1()
	ip := DeriveCeilings(ts)

	tests := []struct {
		task      string
		inclusive uint32
		strict    uint32
	}{
		{"T1", 0, 0},
		{"T2", 0, 0},
		{"T3", 4, 0}, // R2 nested in T2's R1, ceiling 3 == T3's priority
	}
	for _, tt := range tests {
		target, _ := ts.Find(tt.task)
		if b := SetBlocking(ts, target, ip, CeilingInclusive); b != tt.inclusive {
			t.Errorf("task %s inclusive: expected blocking %d, got %d", tt.task, tt.inclusive, b)
		}
		if b := SetBlocking(ts, target, ip, CeilingStrict); b != tt.strict {
			t.Errorf("task %s strict: expected blocking %d, got %d", tt.task, tt.strict, b)
		}
	}
}

func TestSetBlocking_MaxNotSum(t *testing.T) {
	ts := taskSet2()
	ip := DeriveCeilings(ts)

	// T3 (prio 4) is blocked by T2's nested R2 (4) or nothing from T0.
	// T2 (prio 3) is blocked by T0's R1 (20); T0's R3 has ceiling 1.
	target, _ := ts.Find("T2")
	if b := SetBlocking(ts, target, ip, CeilingInclusive); b != 20 {
		t.Errorf("expected T2 blocking 20, got %d", b)
	}
	target, _ = ts.Find("T3")
	if b := SetBlocking(ts, target, ip, CeilingInclusive); b != 4 {
		t.Errorf("expected T3 blocking 4, got %d", b)
	}
}

func TestSetBlocking_NoCriticalSections(t *testing.T) {
	ts := model.Tasks{
		simpleTask("a", 1, 10, 100, 100),
		simpleTask("b", 2, 10, 100, 100),
		simpleTask("c", 3, 10, 100, 100),
	}
	ip := DeriveCeilings(ts)
	for i := range ts {
		if b := SetBlocking(ts, &ts[i], ip, CeilingInclusive); b != 0 {
			t.Errorf("task %s: expected blocking 0, got %d", ts[i].ID, b)
		}
	}
}

func TestSetBlocking_BoundedByLongestLowerSection(t *testing.T) {
	for _, ts := range []model.Tasks{taskSet1(), taskSet2()} {
		ip := DeriveCeilings(ts)
		for i := range ts {
			target := &ts[i]
			var longest uint32
			for _, lower := range ts.Lower(target) {
				for j := range lower.Trace.Inner {
					lower.Trace.Inner[j].Walk(func(tr *model.Trace) bool {
						if d := tr.Duration(); d > longest {
							longest = d
						}
						return true
					})
				}
			}
			for _, cmp := range []Comparison{CeilingInclusive, CeilingStrict} {
				if b := SetBlocking(ts, target, ip, cmp); b > longest {
					t.Errorf("task %s (%s): blocking %d exceeds longest lower section %d", target.ID, cmp, b, longest)
				}
			}
		}
	}
}
