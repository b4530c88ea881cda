package taskset

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/joshharrison/srpa/internal/model"
)

// decodeJSON checks the document shape with gjson first so that missing or
// negative fields are reported by position instead of as a generic
// unmarshal error.
func decodeJSON(data []byte) (model.Tasks, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidTaskSet)
	}

	root := gjson.ParseBytes(data)
	if root.IsObject() {
		root = root.Get("tasks")
		if !root.Exists() {
			return nil, fmt.Errorf("%w: object has no \"tasks\" array", ErrInvalidTaskSet)
		}
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of tasks", ErrInvalidTaskSet)
	}

	var problems []error
	i := 0
	root.ForEach(func(_, task gjson.Result) bool {
		problems = append(problems, checkTaskJSON(fmt.Sprintf("task[%d]", i), task)...)
		i++
		return true
	})
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTaskSet, errors.Join(problems...))
	}

	var tasks model.Tasks
	if err := json.Unmarshal([]byte(root.Raw), &tasks); err != nil {
		return nil, fmt.Errorf("%w: parse JSON: %v", ErrInvalidTaskSet, err)
	}
	return tasks, nil
}

func checkTaskJSON(path string, task gjson.Result) []error {
	if !task.IsObject() {
		return []error{fmt.Errorf("%s: expected an object", path)}
	}

	var problems []error
	if !task.Get("id").Exists() {
		problems = append(problems, fmt.Errorf("%s: missing \"id\"", path))
	}
	if id := task.Get("id").String(); id != "" {
		path = fmt.Sprintf("%s (%s)", path, id)
	}
	problems = append(problems, checkUnsigned(path, task, "prio", "deadline", "inter_arrival")...)

	trace := task.Get("trace")
	if !trace.Exists() {
		return append(problems, fmt.Errorf("%s: missing \"trace\"", path))
	}
	return append(problems, checkTraceJSON(path+".trace", trace)...)
}

func checkTraceJSON(path string, trace gjson.Result) []error {
	if !trace.IsObject() {
		return []error{fmt.Errorf("%s: expected an object", path)}
	}

	var problems []error
	if !trace.Get("id").Exists() {
		problems = append(problems, fmt.Errorf("%s: missing \"id\"", path))
	}
	problems = append(problems, checkUnsigned(path, trace, "start", "end")...)

	inner := trace.Get("inner")
	if inner.Exists() && inner.Type != gjson.Null && !inner.IsArray() {
		return append(problems, fmt.Errorf("%s.inner: expected an array", path))
	}
	j := 0
	inner.ForEach(func(_, child gjson.Result) bool {
		problems = append(problems, checkTraceJSON(fmt.Sprintf("%s.inner[%d]", path, j), child)...)
		j++
		return true
	})
	return problems
}

func checkUnsigned(path string, obj gjson.Result, fields ...string) []error {
	var problems []error
	for _, f := range fields {
		v := obj.Get(f)
		switch {
		case !v.Exists():
			problems = append(problems, fmt.Errorf("%s: missing %q", path, f))
		case v.Type != gjson.Number:
			problems = append(problems, fmt.Errorf("%s: %q must be a number", path, f))
		case v.Num < 0:
			problems = append(problems, fmt.Errorf("%s: %q must not be negative", path, f))
		}
	}
	return problems
}
