package model

// Trace is a node in a task's execution-interval tree. The root carries the
// owning task's ID; nested nodes carry resource IDs and model critical
// sections held during part of the parent's execution.
type Trace struct {
	ID    string  `json:"id"`
	Start uint32  `json:"start"`
	End   uint32  `json:"end"`
	Inner []Trace `json:"inner"`
}

// Task is a single periodic real-time task.
type Task struct {
	ID           string `json:"id"`
	Prio         int    `json:"prio"` // larger value = higher precedence
	Deadline     uint32 `json:"deadline"`
	InterArrival uint32 `json:"inter_arrival"`
	Trace        Trace  `json:"trace"`
}

// Tasks is an ordered task set. Order carries no meaning beyond iteration
// order, which analysis results mirror.
type Tasks []Task
