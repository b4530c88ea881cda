package analysis

import (
	"log/slog"
	"sort"

	"github.com/joshharrison/srpa/internal/model"
)

// PriorityMap maps a task or resource ID to its ceiling: the highest
// priority of any task whose trace contains that ID.
type PriorityMap map[string]int

// Ceiling returns the recorded ceiling for id.
func (pm PriorityMap) Ceiling(id string) (int, bool) {
	p, ok := pm[id]
	return p, ok
}

// IDs returns the map's keys sorted for stable output.
func (pm PriorityMap) IDs() []string {
	keys := make([]string, 0, len(pm))
	for k := range pm {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Options selects the analysis variant.
type Options struct {
	Mode     Mode
	Ceiling  Comparison
	Releases ReleaseCount
	Workers  int          // >1 analyses tasks concurrently
	Logger   *slog.Logger // nil discards
}

// Solution is the outcome of one busy-period iteration.
type Solution struct {
	ResponseTime uint32
	OK           bool // false: an iterate exceeded the deadline
	Iterations   int  // right-hand side evaluations
}

// TaskResult is the analysis output for one task.
type TaskResult struct {
	Task         model.Task `json:"task"`
	Mode         Mode       `json:"mode"`
	ResponseTime *uint32    `json:"response_time,omitempty"` // nil: deadline missed
	WCET         uint32     `json:"wcet"`
	Blocking     uint32     `json:"blocking"`
	Interference *uint32    `json:"interference,omitempty"` // nil exactly when ResponseTime is nil
	Iterations   int        `json:"iterations"`
}

// Schedulable reports whether a response time within the deadline was found.
func (r *TaskResult) Schedulable() bool {
	return r.ResponseTime != nil
}

// TasksResult holds one TaskResult per input task, in input order.
type TasksResult struct {
	Results  []TaskResult `json:"results"`
	Ceilings PriorityMap  `json:"ceilings"`
	Mode     Mode         `json:"mode"`
	Ceiling  Comparison   `json:"ceiling"`
	Releases ReleaseCount `json:"releases"`
}

// Schedulable reports whether every task meets its deadline.
func (tr *TasksResult) Schedulable() bool {
	for i := range tr.Results {
		if !tr.Results[i].Schedulable() {
			return false
		}
	}
	return true
}

// Missed returns the IDs of tasks without a response time, in input order.
func (tr *TasksResult) Missed() []string {
	var ids []string
	for i := range tr.Results {
		if !tr.Results[i].Schedulable() {
			ids = append(ids, tr.Results[i].Task.ID)
		}
	}
	return ids
}

// TotalUtilization sums WCET / inter-arrival over the analysed tasks.
func (tr *TasksResult) TotalUtilization() float64 {
	total := 0.0
	for i := range tr.Results {
		total += tr.Results[i].Task.Utilization()
	}
	return total
}

// Get returns the result for the task with the given ID.
func (tr *TasksResult) Get(id string) (*TaskResult, bool) {
	for i := range tr.Results {
		if tr.Results[i].Task.ID == id {
			return &tr.Results[i], true
		}
	}
	return nil, false
}
