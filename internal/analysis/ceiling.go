package analysis

import "github.com/joshharrison/srpa/internal/model"

// DeriveCeilings walks every task's trace tree once and records, for each
// task or resource ID, the highest priority of a task that executes it.
// Only the maximum matters, so the result does not depend on task order.
func DeriveCeilings(tasks model.Tasks) PriorityMap {
	pm := make(PriorityMap)
	for i := range tasks {
		prio := tasks[i].Prio
		tasks[i].Trace.Walk(func(tr *model.Trace) bool {
			if old, ok := pm[tr.ID]; !ok || prio > old {
				pm[tr.ID] = prio
			}
			return true
		})
	}
	return pm
}
