package analysis

import (
	"testing"

	"github.com/joshharrison/srpa/internal/model"
)

func TestSolve_DeadlineMiss(t *testing.T) {
	task := simpleTask("late", 1, 10, 5, 5)

	for _, mode := range []Mode{ModeExact, ModeBounded} {
		sol := Solve(&task, 0, nil, mode, ReleasesCeil)
		if sol.OK {
			t.Errorf("%s: expected deadline miss, got response time %d", mode, sol.ResponseTime)
		}
	}
}

func TestSolve_NoInterference(t *testing.T) {
	task := simpleTask("solo", 1, 10, 50, 50)

	sol := Solve(&task, 5, nil, ModeExact, ReleasesCeil)
	if !sol.OK || sol.ResponseTime != 15 {
		t.Errorf("expected response time 15, got %d (ok=%v)", sol.ResponseTime, sol.OK)
	}
	if sol.Iterations != 1 {
		t.Errorf("expected 1 iteration, got %d", sol.Iterations)
	}
}

func TestSolve_ExactConverges(t *testing.T) {
	ts := taskSet1()
	t1, _ := ts.Find("T1")

	// 10 -> 70 -> 100 -> 100
	sol := Solve(t1, 0, ts.Higher(t1), ModeExact, ReleasesCeil)
	if !sol.OK || sol.ResponseTime != 100 {
		t.Errorf("expected response time 100, got %d (ok=%v)", sol.ResponseTime, sol.OK)
	}
	if sol.Iterations != 3 {
		t.Errorf("expected 3 iterations, got %d", sol.Iterations)
	}

	t2, _ := ts.Find("T2")
	// 30 -> 60 -> 90 -> 90
	sol = Solve(t2, 0, ts.Higher(t2), ModeExact, ReleasesCeil)
	if !sol.OK || sol.ResponseTime != 90 {
		t.Errorf("expected response time 90, got %d (ok=%v)", sol.ResponseTime, sol.OK)
	}
}

func TestSolve_FloorPlusOneCountsBoundaryRelease(t *testing.T) {
	ts := taskSet1()
	t1, _ := ts.Find("T1")

	// 10 -> 70 -> 100 -> 130 > 100: the release of T3 at exactly 100 is charged.
	sol := Solve(t1, 0, ts.Higher(t1), ModeExact, ReleasesFloorPlusOne)
	if sol.OK {
		t.Errorf("expected deadline miss, got response time %d", sol.ResponseTime)
	}
	if sol.Iterations != 3 {
		t.Errorf("expected 3 iterations, got %d", sol.Iterations)
	}
}

func TestSolve_BoundedStartsAtDeadline(t *testing.T) {
	ts := taskSet1()
	t2, _ := ts.Find("T2")

	// rhs(200) = 30 + ceil(200/50)*30 = 150
	sol := Solve(t2, 0, ts.Higher(t2), ModeBounded, ReleasesCeil)
	if !sol.OK || sol.ResponseTime != 150 {
		t.Errorf("expected bounded response time 150, got %d (ok=%v)", sol.ResponseTime, sol.OK)
	}

	exact := Solve(t2, 0, ts.Higher(t2), ModeExact, ReleasesCeil)
	if exact.ResponseTime > sol.ResponseTime {
		t.Errorf("exact response %d exceeds bounded response %d", exact.ResponseTime, sol.ResponseTime)
	}
}

func TestSolve_ResponseAtLeastWCETPlusBlocking(t *testing.T) {
	ts := taskSet2()
	for i := range ts {
		task := &ts[i]
		for _, blocking := range []uint32{0, 3, 20} {
			for _, mode := range []Mode{ModeExact, ModeBounded} {
				sol := Solve(task, blocking, ts.Higher(task), mode, ReleasesCeil)
				if sol.OK && sol.ResponseTime < task.WCET()+blocking {
					t.Errorf("task %s (%s, blocking %d): response %d below wcet+blocking %d",
						task.ID, mode, blocking, sol.ResponseTime, task.WCET()+blocking)
				}
			}
		}
	}
}

func TestSolve_ConvergenceBound(t *testing.T) {
	sets := []model.Tasks{
		taskSet1(),
		taskSet2(),
		{
			simpleTask("h1", 5, 1, 7, 7),
			simpleTask("h2", 4, 2, 11, 11),
			simpleTask("h3", 3, 1, 13, 13),
			simpleTask("lo", 1, 3, 1000, 1000),
		},
	}

	for _, ts := range sets {
		for i := range ts {
			task := &ts[i]
			higher := ts.Higher(task)

			bound := 2
			for _, h := range higher {
				bound += int(task.Deadline / h.InterArrival)
			}

			for _, rc := range []ReleaseCount{ReleasesCeil, ReleasesFloorPlusOne} {
				sol := Solve(task, 0, higher, ModeExact, rc)
				if sol.Iterations > bound {
					t.Errorf("task %s (%s): %d iterations exceeds bound %d", task.ID, rc, sol.Iterations, bound)
				}
			}
		}
	}
}

func TestReleaseCount(t *testing.T) {
	tests := []struct {
		rc   ReleaseCount
		l    uint64
		ia   uint32
		want uint64
	}{
		{ReleasesCeil, 0, 50, 0},
		{ReleasesCeil, 1, 50, 1},
		{ReleasesCeil, 50, 50, 1},
		{ReleasesCeil, 51, 50, 2},
		{ReleasesFloorPlusOne, 0, 50, 1},
		{ReleasesFloorPlusOne, 49, 50, 1},
		{ReleasesFloorPlusOne, 50, 50, 2},
	}
	for _, tt := range tests {
		if got := tt.rc.Count(tt.l, tt.ia); got != tt.want {
			t.Errorf("%s count(%d, %d): expected %d, got %d", tt.rc, tt.l, tt.ia, tt.want, got)
		}
	}
}

func TestSolve_OverflowingDemandMisses(t *testing.T) {
	const maxU32 = ^uint32(0)
	lo := simpleTask("lo", 1, maxU32, maxU32, maxU32)
	higher := model.Tasks{
		simpleTask("h1", 2, 1<<31, maxU32, 1),
		simpleTask("h2", 3, 1<<31, maxU32, 1),
		simpleTask("h3", 4, 1, maxU32, 1),
	}

	for _, mode := range []Mode{ModeExact, ModeBounded} {
		for _, rc := range []ReleaseCount{ReleasesCeil, ReleasesFloorPlusOne} {
			sol := Solve(&lo, 0, higher, mode, rc)
			if sol.OK {
				t.Errorf("%s/%s: expected deadline miss, got response time %d", mode, rc, sol.ResponseTime)
			}
		}
	}
}

func TestAnalyze_OverflowingDemandMisses(t *testing.T) {
	const maxU32 = ^uint32(0)
	ts := model.Tasks{
		simpleTask("lo", 1, maxU32, maxU32, maxU32),
		simpleTask("h1", 2, 1<<31, maxU32, 1),
		simpleTask("h2", 3, 1<<31, maxU32, 1),
		simpleTask("h3", 4, 1, maxU32, 1),
	}

	res, err := Analyze(ts, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	lo, _ := res.Get("lo")
	if lo.ResponseTime != nil {
		t.Errorf("expected lo to miss, got response time %d", *lo.ResponseTime)
	}
	if lo.Interference != nil {
		t.Errorf("expected no interference for a miss, got %d", *lo.Interference)
	}
}
