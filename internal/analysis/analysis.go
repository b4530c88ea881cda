package analysis

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/joshharrison/srpa/internal/model"
)

// ErrInvalidTaskSet is returned when a task set violates a precondition of
// the analysis, such as a zero inter-arrival time.
var ErrInvalidTaskSet = errors.New("invalid task set")

// Analyze computes blocking, interference and worst-case response time for
// every task. Results mirror the input order regardless of priority. The
// ceiling map is derived once and shared read-only by all per-task analyses,
// which run concurrently when opts.Workers > 1.
func Analyze(tasks model.Tasks, opts Options) (*TasksResult, error) {
	for i := range tasks {
		if tasks[i].InterArrival == 0 {
			return nil, fmt.Errorf("%w: task %s has zero inter_arrival", ErrInvalidTaskSet, tasks[i].ID)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ceilings := DeriveCeilings(tasks)
	logger.Debug("derived priority ceilings", "ids", len(ceilings))
	for _, id := range ceilings.IDs() {
		logger.Debug("ceiling", "id", id, "prio", ceilings[id])
	}

	result := &TasksResult{
		Results:  make([]TaskResult, len(tasks)),
		Ceilings: ceilings,
		Mode:     opts.Mode,
		Ceiling:  opts.Ceiling,
		Releases: opts.Releases,
	}

	if opts.Workers <= 1 {
		for i := range tasks {
			result.Results[i] = analyzeTask(tasks, &tasks[i], ceilings, opts, logger)
		}
		return result, nil
	}

	// Each worker writes only its own slot; ceilings and tasks are read-only.
	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i := range tasks {
		g.Go(func() error {
			result.Results[i] = analyzeTask(tasks, &tasks[i], ceilings, opts, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func analyzeTask(tasks model.Tasks, t *model.Task, ceilings PriorityMap, opts Options, logger *slog.Logger) TaskResult {
	log := logger.With("task", t.ID)

	blocking := setBlocking(tasks, t, ceilings, opts.Ceiling, func(candidate string, b uint32) {
		log.Debug("blocking candidate", "by", candidate, "blocking", b)
	})

	sol := solve(t, blocking, tasks.Higher(t), opts.Mode, opts.Releases, func(iter int, l uint64) {
		log.Debug("busy period iterate", "iter", iter, "length", l, "deadline", t.Deadline)
	})

	tr := TaskResult{
		Task:       *t,
		Mode:       opts.Mode,
		WCET:       t.WCET(),
		Blocking:   blocking,
		Iterations: sol.Iterations,
	}
	if sol.OK {
		rt := sol.ResponseTime
		interference := rt - (tr.WCET + blocking)
		tr.ResponseTime = &rt
		tr.Interference = &interference
		log.Debug("response time", "response", rt, "wcet", tr.WCET, "blocking", blocking, "interference", interference)
	} else {
		log.Debug("deadline missed", "deadline", t.Deadline, "iterations", sol.Iterations)
	}
	return tr
}
