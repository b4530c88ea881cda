package analysis

import "github.com/joshharrison/srpa/internal/model"

// taskSet1 is the three-task example: T2 holds R1 with R2 nested inside it,
// T3 holds R2.
func taskSet1() model.Tasks {
	return model.Tasks{
		{
			ID: "T1", Prio: 1, Deadline: 100, InterArrival: 100,
			Trace: model.Trace{ID: "T1", Start: 0, End: 10},
		},
		{
			ID: "T2", Prio: 2, Deadline: 200, InterArrival: 200,
			Trace: model.Trace{
				ID: "T2", Start: 0, End: 30,
				Inner: []model.Trace{
					{ID: "R1", Start: 10, End: 20, Inner: []model.Trace{
						{ID: "R2", Start: 12, End: 16},
					}},
					{ID: "R1", Start: 22, End: 28},
				},
			},
		},
		{
			ID: "T3", Prio: 3, Deadline: 50, InterArrival: 50,
			Trace: model.Trace{
				ID: "T3", Start: 0, End: 30,
				Inner: []model.Trace{
					{ID: "R2", Start: 10, End: 20},
				},
			},
		},
	}
}

// flatTaskSet is the three-task scenario without nesting: T2 holds R1 and
// T3 holds R2, each for 10 units. No resource ceiling reaches a higher
// priority than its users, so nothing is blocked.
func flatTaskSet() model.Tasks {
	return model.Tasks{
		{
			ID: "T1", Prio: 1, Deadline: 100, InterArrival: 100,
			Trace: model.Trace{ID: "T1", Start: 0, End: 10},
		},
		{
			ID: "T2", Prio: 2, Deadline: 200, InterArrival: 200,
			Trace: model.Trace{ID: "T2", Start: 0, End: 30, Inner: []model.Trace{
				{ID: "R1", Start: 10, End: 20},
			}},
		},
		{
			ID: "T3", Prio: 3, Deadline: 50, InterArrival: 50,
			Trace: model.Trace{ID: "T3", Start: 0, End: 30, Inner: []model.Trace{
				{ID: "R2", Start: 10, End: 20},
			}},
		},
	}
}

// taskSet2 adds a fourth, lowest-priority task holding R1 for a long time
// so the middle tasks see non-zero blocking.
func taskSet2() model.Tasks {
	ts := taskSet1()
	for i := range ts {
		ts[i].Prio++
	}
	return append(ts, model.Task{
		ID: "T0", Prio: 1, Deadline: 400, InterArrival: 400,
		Trace: model.Trace{
			ID: "T0", Start: 0, End: 40,
			Inner: []model.Trace{
				{ID: "R1", Start: 5, End: 25},
				{ID: "R3", Start: 30, End: 38},
			},
		},
	})
}

func simpleTask(id string, prio int, wcet, deadline, interArrival uint32) model.Task {
	return model.Task{
		ID: id, Prio: prio, Deadline: deadline, InterArrival: interArrival,
		Trace: model.Trace{ID: id, Start: 0, End: wcet},
	}
}
