package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintBanner renders the srpa header to stderr.
func PrintBanner() {
	w := os.Stderr
	frame := color.New(color.FgCyan)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +------------------------+")
	brand.Fprintln(w, "   |   S   R   P   A        |")
	frame.Fprintln(w, "   +------------------------+")
	tag.Fprintln(w, "   Stack Resource Policy response-time analysis")
	fmt.Fprintln(w)
}

// taskColors is a palette of distinct bold colors for differentiating tasks.
var taskColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// taskColorIndex hashes a task ID to a palette index.
func taskColorIndex(taskID string) int {
	var h uint32
	for _, c := range taskID {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(taskColors)))
}

// TaskLabel returns the task ID in its palette color. The same ID always
// gets the same color.
func TaskLabel(taskID string) string {
	return taskColors[taskColorIndex(taskID)](taskID)
}

// StatusIcon returns a colored icon for a task's schedulability.
func StatusIcon(schedulable bool) string {
	if schedulable {
		return Green("✓")
	}
	return Red("✗")
}

// Verdict returns the colored set-level verdict.
func Verdict(schedulable bool) string {
	if schedulable {
		return BoldGreen("schedulable")
	}
	return BoldRed("not schedulable")
}

// Warnf prints a yellow warning line to w.
func Warnf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", Yellow("warning:"), fmt.Sprintf(format, args...))
}
