package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joshharrison/srpa/internal/analysis"
	"github.com/joshharrison/srpa/internal/chart"
	"github.com/joshharrison/srpa/internal/claude"
	"github.com/joshharrison/srpa/internal/config"
	"github.com/joshharrison/srpa/internal/ctxlog"
	"github.com/joshharrison/srpa/internal/model"
	"github.com/joshharrison/srpa/internal/reporter"
	"github.com/joshharrison/srpa/internal/taskset"
	"github.com/joshharrison/srpa/internal/ui"
	"github.com/joshharrison/srpa/internal/viewer"
)

var (
	flagConfig   string
	flagVerbose  bool
	flagJSON     bool
	flagMode     string
	flagCeiling  string
	flagReleases string
	flagWorkers  int
)

// errDeadlineMissed makes analyze --fail-on-miss exit with status 2.
var errDeadlineMissed = errors.New("deadline missed")

func main() {
	rootCmd := newRootCmd()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.BoldRed("error:"), err)
		if errors.Is(err, errDeadlineMissed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "srpa",
		Short: "Response-time analysis for fixed-priority tasks under the Stack Resource Policy",
		Long: `srpa reads a set of periodic tasks with nested critical sections, derives
resource ceilings, and computes each task's worst-case blocking, interference
and response time, reporting any task that can miss its deadline.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := ctxlog.New(os.Stderr, flagVerbose)
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Defaults file (default $HOME/"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log analysis steps to stderr")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(ceilingsCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(utilCmd())
	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(chartCmd())
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(explainCmd())

	return rootCmd
}

// addAnalysisFlags registers the flags that override the defaults file.
func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagMode, "mode", "exact", "Busy-period start: exact (wcet+blocking) or bounded (deadline)")
	cmd.Flags().StringVar(&flagCeiling, "ceiling", "inclusive", "Ceiling test: inclusive (>=) or strict (>)")
	cmd.Flags().StringVar(&flagReleases, "releases", "ceil", "Higher-priority release count: ceil (default) or floor+1, as in the original tool")
	cmd.Flags().IntVar(&flagWorkers, "workers", 1, "Tasks analysed concurrently")
}

// loadConfig reads the defaults file and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		ctxlog.FromContext(cmd.Context()).Debug("loaded defaults", "path", cfg.Path)
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = flagMode
	}
	if flags.Changed("ceiling") {
		cfg.Ceiling = flagCeiling
	}
	if flags.Changed("releases") {
		cfg.Releases = flagReleases
	}
	if flags.Changed("workers") {
		cfg.Workers = flagWorkers
	}
	return cfg, nil
}

func resolveOptions(cmd *cobra.Command) (analysis.Options, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return analysis.Options{}, nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return analysis.Options{}, nil, err
	}
	opts.Logger = ctxlog.FromContext(cmd.Context())
	return opts, cfg, nil
}

// loadTasks loads and validates a task set, printing lint warnings.
func loadTasks(ctx context.Context, path string) (model.Tasks, error) {
	tasks, err := taskset.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	for _, w := range taskset.Lint(tasks) {
		ui.Warnf(os.Stderr, "%s", w)
	}
	return tasks, nil
}

func analyzeFile(cmd *cobra.Command, path string) (*analysis.TasksResult, *config.Config, error) {
	opts, cfg, err := resolveOptions(cmd)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := loadTasks(cmd.Context(), path)
	if err != nil {
		return nil, nil, err
	}
	res, err := analysis.Analyze(tasks, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	return res, cfg, nil
}

func analyzeCmd() *cobra.Command {
	var (
		flagOutput     string
		flagFailOnMiss bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <taskset>",
		Short: "Compute blocking, interference and response time for every task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := analyzeFile(cmd, args[0])
			if err != nil {
				return err
			}
			rpt := reporter.New(args[0], res)

			if flagOutput != "" {
				if err := rpt.Save(flagOutput); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "📄 Results written to %s\n", flagOutput)
			}

			if flagJSON {
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			} else {
				rpt.PrintTable(os.Stdout)
				rpt.PrintSummary(os.Stdout)
			}

			if flagFailOnMiss && !res.Schedulable() {
				return fmt.Errorf("%w: %s", errDeadlineMissed, strings.Join(res.Missed(), ", "))
			}
			return nil
		},
	}

	addAnalysisFlags(cmd)
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Also write results to a .json or .cbor file")
	cmd.Flags().BoolVar(&flagFailOnMiss, "fail-on-miss", false, "Exit with status 2 if any task misses its deadline")

	return cmd
}

func ceilingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ceilings <taskset>",
		Short: "Print the priority ceiling of every task and resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := loadTasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ceilings := analysis.DeriveCeilings(tasks)
			if flagJSON {
				return outputJSON(ceilings)
			}
			reporter.PrintCeilings(os.Stdout, ceilings)
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <taskset>",
		Short: "Print tasks and their trace trees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := loadTasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(tasks)
			}
			reporter.PrintTasks(os.Stdout, tasks)
			return nil
		},
	}
}

func utilCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "util <taskset>",
		Short: "Print per-task and total processor utilization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := loadTasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				type taskUtil struct {
					ID          string  `json:"id"`
					Utilization float64 `json:"utilization"`
				}
				out := struct {
					Tasks []taskUtil `json:"tasks"`
					Total float64    `json:"total"`
				}{Tasks: []taskUtil{}, Total: tasks.TotalUtilization()}
				for i := range tasks {
					out.Tasks = append(out.Tasks, taskUtil{ID: tasks[i].ID, Utilization: tasks[i].Utilization()})
				}
				return outputJSON(out)
			}
			reporter.PrintUtilization(os.Stdout, tasks)
			return nil
		},
	}
}

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a task set between JSON, HCL (read only) and CBOR",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := loadTasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := taskset.Store(cmd.Context(), args[1], tasks); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✅ Wrote %d tasks to %s\n", len(tasks), args[1])
			return nil
		},
	}
}

func chartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart <taskset> <out.svg>",
		Short: "Render response times against deadlines as an SVG chart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := analyzeFile(cmd, args[0])
			if err != nil {
				return err
			}
			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("create chart: %w", err)
			}
			if err := chart.Render(f, args[0], res); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			fmt.Fprintf(os.Stderr, "📊 Chart written to %s\n", args[1])
			return nil
		},
	}
	addAnalysisFlags(cmd)
	return cmd
}

func viewCmd() *cobra.Command {
	var flagPort int

	cmd := &cobra.Command{
		Use:   "view <taskset>",
		Short: "Serve results and chart on a local HTTP port",
		Long: `Analyses the task set and serves the report at /api/results, the chart at
/chart.svg and an index page at /. Further task sets can be POSTed as JSON to
/api/analyze. If a viewer is already listening on the port, the task set is
sent to it instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, _, err := resolveOptions(cmd)
			if err != nil {
				return err
			}
			tasks, err := loadTasks(ctx, args[0])
			if err != nil {
				return err
			}

			addr := fmt.Sprintf("http://localhost:%d", flagPort)
			if viewer.IsPortOpen(fmt.Sprintf("localhost:%d", flagPort)) {
				if err := viewer.PostTaskSet(ctx, addr, args[0], tasks); err != nil {
					return err
				}
				fmt.Printf("✅ Task set sent to viewer at %s\n", addr)
				return nil
			}

			srv := viewer.New(opts, opts.Logger)
			if _, err := srv.Load(args[0], tasks); err != nil {
				return fmt.Errorf("analyze %s: %w", args[0], err)
			}
			addr, err = viewer.Start(ctx, flagPort, srv.Handler())
			if err != nil {
				return err
			}
			fmt.Printf("🌐 Viewer running at %s (Ctrl-C to stop)\n", addr)

			<-ctx.Done()
			return nil
		},
	}

	addAnalysisFlags(cmd)
	cmd.Flags().IntVar(&flagPort, "port", 7171, "HTTP port")

	return cmd
}

func explainCmd() *cobra.Command {
	var flagModel string

	cmd := &cobra.Command{
		Use:   "explain <taskset>",
		Short: "Use Claude to explain what drives each task's response time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, cfg, err := analyzeFile(cmd, args[0])
			if err != nil {
				return err
			}

			modelName := cfg.Model
			if cmd.Flags().Changed("model") {
				modelName = flagModel
			}
			client, err := claude.NewClient("", modelName)
			if err != nil {
				return err
			}

			report, err := reporter.New(args[0], res).JSON()
			if err != nil {
				return err
			}
			tasks := make(model.Tasks, len(res.Results))
			for i := range res.Results {
				tasks[i] = res.Results[i].Task
			}

			fmt.Fprintf(os.Stderr, "🤖 Asking Claude about %d tasks...\n", len(tasks))
			explanation, err := client.Explain(cmd.Context(), tasks, string(report))
			if err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(explanation)
			}

			fmt.Printf("\n%s\n\n", ui.BoldCyan("Explanation"))
			for _, f := range explanation.Findings {
				tr, _ := res.Get(f.TaskID)
				fmt.Printf("  %s %s  %s\n", ui.StatusIcon(tr.Schedulable()), ui.TaskLabel(f.TaskID), f.Cause)
				if f.Suggestion != "" {
					fmt.Printf("      %s %s\n", ui.Yellow("→"), f.Suggestion)
				}
			}
			fmt.Printf("\n%s\n", explanation.Summary)
			return nil
		},
	}

	addAnalysisFlags(cmd)
	cmd.Flags().StringVar(&flagModel, "model", "", "Claude model (default "+claude.DefaultModel+")")

	return cmd
}

// --- Output helpers ---

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
