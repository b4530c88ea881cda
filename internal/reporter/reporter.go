package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/joshharrison/srpa/internal/analysis"
	"github.com/joshharrison/srpa/internal/model"
	"github.com/joshharrison/srpa/internal/ui"
)

// Reporter renders analysis results for the terminal and as JSON.
type Reporter struct {
	Name   string // task set label, usually the input path
	Result *analysis.TasksResult
}

// New creates a new Reporter.
func New(name string, result *analysis.TasksResult) *Reporter {
	return &Reporter{Name: name, Result: result}
}

// PrintTable writes one row per task in input order.
func (r *Reporter) PrintTable(w io.Writer) {
	fmt.Fprintf(w, "%s %s  %s\n\n",
		ui.BoldCyan("SRP analysis"), ui.Dim(r.Name), r.settings())

	fmt.Fprintf(w, "    %-10s %5s %8s %8s %8s %8s %8s %8s %5s\n",
		"TASK", "PRIO", "WCET", "BLOCK", "INTERF", "RESP", "DEADLINE", "PERIOD", "ITER")
	for i := range r.Result.Results {
		r.printRow(w, &r.Result.Results[i])
	}
	fmt.Fprintln(w)
}

func (r *Reporter) printRow(w io.Writer, tr *analysis.TaskResult) {
	interf, resp := "-", ui.Red(fmt.Sprintf("%8s", "missed"))
	if tr.Schedulable() {
		interf = fmt.Sprint(*tr.Interference)
		resp = fmt.Sprintf("%8d", *tr.ResponseTime)
	}

	id := tr.Task.ID
	if len(id) > 10 {
		id = id[:9] + "~"
	}
	// Pad before coloring so escape codes do not skew the columns.
	label := ui.TaskLabel(id) + strings.Repeat(" ", 10-len(id))

	fmt.Fprintf(w, "  %s %s %5d %8d %8d %8s %s %8d %8d %5d\n",
		ui.StatusIcon(tr.Schedulable()), label, tr.Task.Prio,
		tr.WCET, tr.Blocking, interf, resp,
		tr.Task.Deadline, tr.Task.InterArrival, tr.Iterations)
}

func (r *Reporter) settings() string {
	return ui.Dim(fmt.Sprintf("[mode=%s ceiling=%s releases=%s]",
		r.Result.Mode, r.Result.Ceiling, r.Result.Releases))
}

// PrintSummary writes the verdict, utilization and missed tasks. The output
// is also returned as a string for reuse as context for explanations.
func (r *Reporter) PrintSummary(w io.Writer) string {
	var b strings.Builder
	mw := io.MultiWriter(w, &b)

	res := r.Result
	statusEmoji := "✅"
	if !res.Schedulable() {
		statusEmoji = "❌"
	}

	fmt.Fprintf(mw, "\n%s %s\n", statusEmoji, ui.BoldCyan("SRP Analysis Summary"))
	fmt.Fprintf(mw, "%s\n", ui.Cyan("════════════════════"))
	fmt.Fprintf(mw, "Task set:     %s\n", ui.Dim(r.Name))
	fmt.Fprintf(mw, "Verdict:      %s\n", ui.Verdict(res.Schedulable()))
	fmt.Fprintf(mw, "Settings:     mode=%s ceiling=%s releases=%s\n", res.Mode, res.Ceiling, res.Releases)
	fmt.Fprintf(mw, "Tasks:        %d total, %s, %s\n", len(res.Results),
		ui.Green(fmt.Sprintf("%d schedulable", len(res.Results)-len(res.Missed()))),
		ui.Red(fmt.Sprintf("%d missed", len(res.Missed()))))
	fmt.Fprintf(mw, "Utilization:  %s\n", formatUtilization(res.TotalUtilization()))

	if missed := res.Missed(); len(missed) > 0 {
		fmt.Fprintf(mw, "\n%s\n", ui.BoldRed("Deadline misses:"))
		for _, id := range missed {
			tr, _ := res.Get(id)
			fmt.Fprintf(mw, "  %s %s  %s\n", ui.Red("✗"), ui.BoldMagenta(id),
				ui.Dim(fmt.Sprintf("(wcet %d + blocking %d, deadline %d)", tr.WCET, tr.Blocking, tr.Task.Deadline)))
		}
	}

	fmt.Fprintln(mw)
	for i := range res.Results {
		tr := &res.Results[i]
		if tr.Schedulable() {
			fmt.Fprintf(mw, "  %s %s responds in %d of %d (wcet %d, blocking %d, interference %d)\n",
				ui.Green("✓"), ui.BoldMagenta(tr.Task.ID), *tr.ResponseTime, tr.Task.Deadline,
				tr.WCET, tr.Blocking, *tr.Interference)
		}
	}

	return b.String()
}

func formatUtilization(u float64) string {
	s := fmt.Sprintf("%.3f", u)
	if u > 1 {
		return ui.Red(s + " (overloaded)")
	}
	return s
}

type taskOutput struct {
	ID           string  `json:"id"`
	Prio         int     `json:"prio"`
	Deadline     uint32  `json:"deadline"`
	InterArrival uint32  `json:"inter_arrival"`
	WCET         uint32  `json:"wcet"`
	Blocking     uint32  `json:"blocking"`
	Interference *uint32 `json:"interference"`
	ResponseTime *uint32 `json:"response_time"`
	Schedulable  bool    `json:"schedulable"`
	Iterations   int     `json:"iterations"`
	Utilization  float64 `json:"utilization"`
}

type output struct {
	Name        string                `json:"name"`
	Mode        analysis.Mode         `json:"mode"`
	Ceiling     analysis.Comparison   `json:"ceiling"`
	Releases    analysis.ReleaseCount `json:"releases"`
	Schedulable bool                  `json:"schedulable"`
	Utilization float64               `json:"utilization"`
	Missed      []string              `json:"missed"`
	Ceilings    analysis.PriorityMap  `json:"ceilings"`
	Tasks       []taskOutput          `json:"tasks"`
}

func (r *Reporter) output() output {
	res := r.Result
	o := output{
		Name:        r.Name,
		Mode:        res.Mode,
		Ceiling:     res.Ceiling,
		Releases:    res.Releases,
		Schedulable: res.Schedulable(),
		Utilization: res.TotalUtilization(),
		Missed:      res.Missed(),
		Ceilings:    res.Ceilings,
		Tasks:       make([]taskOutput, 0, len(res.Results)),
	}
	if o.Missed == nil {
		o.Missed = []string{}
	}

	for i := range res.Results {
		tr := &res.Results[i]
		o.Tasks = append(o.Tasks, taskOutput{
			ID:           tr.Task.ID,
			Prio:         tr.Task.Prio,
			Deadline:     tr.Task.Deadline,
			InterArrival: tr.Task.InterArrival,
			WCET:         tr.WCET,
			Blocking:     tr.Blocking,
			Interference: tr.Interference,
			ResponseTime: tr.ResponseTime,
			Schedulable:  tr.Schedulable(),
			Iterations:   tr.Iterations,
			Utilization:  tr.Task.Utilization(),
		})
	}
	return o
}

// JSON returns machine-readable results.
func (r *Reporter) JSON() ([]byte, error) {
	return json.MarshalIndent(r.output(), "", "  ")
}

// CBOR returns the same document as JSON in CBOR encoding. Field names
// follow the JSON tags.
func (r *Reporter) CBOR() ([]byte, error) {
	return cbor.Marshal(r.output())
}

// Save writes the results to path as JSON or CBOR depending on its extension.
func (r *Reporter) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = r.JSON()
	case ".cbor":
		data, err = r.CBOR()
	default:
		return fmt.Errorf("unsupported output format %q (use .json or .cbor)", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// PrintCeilings writes the ceiling of every task and resource ID, sorted by ID.
func PrintCeilings(w io.Writer, pm analysis.PriorityMap) {
	fmt.Fprintf(w, "%s\n", ui.BoldCyan("Priority ceilings"))
	for _, id := range pm.IDs() {
		p, _ := pm.Ceiling(id)
		fmt.Fprintf(w, "  %-12s %d\n", id, p)
	}
}

// PrintUtilization writes per-task and total utilization.
func PrintUtilization(w io.Writer, tasks model.Tasks) {
	fmt.Fprintf(w, "%s\n", ui.BoldCyan("Utilization"))
	for i := range tasks {
		t := &tasks[i]
		fmt.Fprintf(w, "  %-12s %5d / %-6d %.3f\n", t.ID, t.WCET(), t.InterArrival, t.Utilization())
	}
	fmt.Fprintf(w, "  %-12s %14s %s\n", "total", "", formatUtilization(tasks.TotalUtilization()))
}

// PrintTasks writes each task's parameters followed by its indented trace.
func PrintTasks(w io.Writer, tasks model.Tasks) {
	for i := range tasks {
		t := &tasks[i]
		fmt.Fprintf(w, "%s prio %d deadline %d inter_arrival %d wcet %d\n",
			ui.TaskLabel(t.ID), t.Prio, t.Deadline, t.InterArrival, t.WCET())
		io.WriteString(w, t.Trace.String())
	}
}
