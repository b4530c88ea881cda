package taskset

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/joshharrison/srpa/internal/model"
)

// hclFile is the top-level structure of an HCL task set:
//
//	task "T2" {
//	  prio          = 2
//	  deadline      = 200
//	  inter_arrival = 200
//	  trace {
//	    start = 0
//	    end   = 30
//	    section "R1" {
//	      start = 10
//	      end   = 20
//	    }
//	  }
//	}
//
// The root trace takes its ID from the task label.
type hclFile struct {
	Tasks []*hclTask `hcl:"task,block"`
}

type hclTask struct {
	ID           string   `hcl:"id,label"`
	Prio         int      `hcl:"prio"`
	Deadline     int64    `hcl:"deadline"`
	InterArrival int64    `hcl:"inter_arrival"`
	Trace        hclTrace `hcl:"trace,block"`
}

type hclTrace struct {
	Start    int64         `hcl:"start"`
	End      int64         `hcl:"end"`
	Sections []*hclSection `hcl:"section,block"`
}

type hclSection struct {
	ID       string        `hcl:"id,label"`
	Start    int64         `hcl:"start"`
	End      int64         `hcl:"end"`
	Sections []*hclSection `hcl:"section,block"`
}

func decodeHCL(data []byte, name string) (model.Tasks, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, name)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: parse HCL %s: %w", ErrInvalidTaskSet, name, diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("%w: decode HCL %s: %w", ErrInvalidTaskSet, name, diags)
	}

	tasks := make(model.Tasks, 0, len(parsed.Tasks))
	for _, ht := range parsed.Tasks {
		deadline, err := toOffset(ht.ID, "deadline", ht.Deadline)
		if err != nil {
			return nil, err
		}
		interArrival, err := toOffset(ht.ID, "inter_arrival", ht.InterArrival)
		if err != nil {
			return nil, err
		}
		trace, err := convertTrace(ht.ID, ht.ID, ht.Trace.Start, ht.Trace.End, ht.Trace.Sections)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, model.Task{
			ID:           ht.ID,
			Prio:         ht.Prio,
			Deadline:     deadline,
			InterArrival: interArrival,
			Trace:        trace,
		})
	}
	return tasks, nil
}

func convertTrace(taskID, id string, start, end int64, sections []*hclSection) (model.Trace, error) {
	s, err := toOffset(taskID, id+".start", start)
	if err != nil {
		return model.Trace{}, err
	}
	e, err := toOffset(taskID, id+".end", end)
	if err != nil {
		return model.Trace{}, err
	}

	tr := model.Trace{ID: id, Start: s, End: e}
	for _, sec := range sections {
		child, err := convertTrace(taskID, sec.ID, sec.Start, sec.End, sec.Sections)
		if err != nil {
			return model.Trace{}, err
		}
		tr.Inner = append(tr.Inner, child)
	}
	return tr, nil
}

func toOffset(taskID, field string, v int64) (uint32, error) {
	if v < 0 || v > int64(^uint32(0)) {
		return 0, fmt.Errorf("%w: task %s: %s out of range: %d", ErrInvalidTaskSet, taskID, field, v)
	}
	return uint32(v), nil
}
