// Package chart renders analysis results as an SVG bar chart: one row per
// task with WCET, blocking and interference stacked against the deadline.
package chart

import (
	"bytes"
	"fmt"
	"io"
	"text/template"

	"github.com/joshharrison/srpa/internal/analysis"
)

const (
	marginLeft  = 90
	marginRight = 30
	marginTop   = 40
	plotWidth   = 600
	rowHeight   = 28
	barHeight   = 16
	legendSpace = 40
)

const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" font-family="monospace" font-size="12">
<style>
.wcet { fill: #4e79a7; }
.blocking { fill: #f28e2b; }
.interference { fill: #b07aa1; }
.deadline { stroke: #e15759; stroke-width: 2; }
.missed { fill: #e15759; }
</style>
<text x="{{.MarginLeft}}" y="20" font-weight="bold">{{.Title | xml}}</text>
{{- range .Rows}}
<g class="task" data-task="{{.ID | xml}}">
<text x="{{$.LabelX}}" y="{{.TextY}}" text-anchor="end">{{.ID | xml}}</text>
{{- range .Segments}}
<rect class="{{.Class}}" x="{{.X | px}}" y="{{.Y}}" width="{{.W | px}}" height="{{$.BarHeight}}"><title>{{.Class}} {{.Value}}</title></rect>
{{- end}}
<line class="deadline" x1="{{.DeadlineX | px}}" x2="{{.DeadlineX | px}}" y1="{{.LineTop}}" y2="{{.LineBottom}}"><title>deadline {{.Deadline}}</title></line>
{{- if .Missed}}
<text class="missed" x="{{.NoteX | px}}" y="{{.TextY}}">missed</text>
{{- else}}
<text x="{{.NoteX | px}}" y="{{.TextY}}">R={{.Response}}</text>
{{- end}}
</g>
{{- end}}
<g class="legend">
<rect class="wcet" x="{{.MarginLeft}}" y="{{.LegendY}}" width="12" height="12"/><text x="{{add .MarginLeft 16}}" y="{{add .LegendY 11}}">wcet</text>
<rect class="blocking" x="{{add .MarginLeft 80}}" y="{{.LegendY}}" width="12" height="12"/><text x="{{add .MarginLeft 96}}" y="{{add .LegendY 11}}">blocking</text>
<rect class="interference" x="{{add .MarginLeft 184}}" y="{{.LegendY}}" width="12" height="12"/><text x="{{add .MarginLeft 200}}" y="{{add .LegendY 11}}">interference</text>
</g>
</svg>
`

var funcs = template.FuncMap{
	"xml": template.HTMLEscapeString,
	"px":  func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"add": func(a, b int) int { return a + b },
}

var svg = template.Must(template.New("chart").Funcs(funcs).Parse(svgTemplate))

type segment struct {
	Class string
	Value uint32
	X, W  float64
	Y     int
}

type row struct {
	ID         string
	Segments   []segment
	Deadline   uint32
	DeadlineX  float64
	Response   uint32
	Missed     bool
	NoteX      float64
	TextY      int
	LineTop    int
	LineBottom int
}

type chartData struct {
	Title      string
	Width      int
	Height     int
	MarginLeft int
	LabelX     int
	BarHeight  int
	LegendY    int
	Rows       []row
}

// Render writes the chart for res to w.
func Render(w io.Writer, title string, res *analysis.TasksResult) error {
	data := layout(title, res)
	if err := svg.Execute(w, data); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// SVG returns the chart for res as a byte slice.
func SVG(title string, res *analysis.TasksResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, title, res); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// layout scales every task against the largest deadline or response time
// so that all rows share one time axis.
func layout(title string, res *analysis.TasksResult) chartData {
	var span uint32 = 1
	for i := range res.Results {
		tr := &res.Results[i]
		span = max(span, tr.Task.Deadline, tr.WCET+tr.Blocking)
		if tr.ResponseTime != nil {
			span = max(span, *tr.ResponseTime)
		}
	}
	scale := float64(plotWidth) / float64(span)

	data := chartData{
		Title:      title,
		Width:      marginLeft + plotWidth + marginRight + 60,
		Height:     marginTop + len(res.Results)*rowHeight + legendSpace,
		MarginLeft: marginLeft,
		LabelX:     marginLeft - 8,
		BarHeight:  barHeight,
		LegendY:    marginTop + len(res.Results)*rowHeight + 12,
	}

	for i := range res.Results {
		tr := &res.Results[i]
		y := marginTop + i*rowHeight
		r := row{
			ID:         tr.Task.ID,
			Deadline:   tr.Task.Deadline,
			DeadlineX:  marginLeft + float64(tr.Task.Deadline)*scale,
			Missed:     !tr.Schedulable(),
			TextY:      y + barHeight - 3,
			LineTop:    y - 4,
			LineBottom: y + barHeight + 4,
		}

		x := float64(marginLeft)
		add := func(class string, v uint32) {
			if v == 0 {
				return
			}
			w := float64(v) * scale
			r.Segments = append(r.Segments, segment{Class: class, Value: v, X: x, W: w, Y: y})
			x += w
		}
		add("wcet", tr.WCET)
		add("blocking", tr.Blocking)
		if tr.Schedulable() {
			r.Response = *tr.ResponseTime
			add("interference", *tr.Interference)
		}
		r.NoteX = max(x, r.DeadlineX) + 6

		data.Rows = append(data.Rows, r)
	}
	return data
}
