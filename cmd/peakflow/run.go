package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/peakflow/internal/config"
	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	"github.com/alexisbeaulieu97/peakflow/internal/engine"
	"github.com/alexisbeaulieu97/peakflow/internal/events"
	infraevents "github.com/alexisbeaulieu97/peakflow/internal/infrastructure/events"
	"github.com/alexisbeaulieu97/peakflow/internal/infrastructure/metrics"
	"github.com/alexisbeaulieu97/peakflow/internal/logger"
	"github.com/alexisbeaulieu97/peakflow/internal/progress"
	"github.com/alexisbeaulieu97/peakflow/internal/tui"
	"github.com/alexisbeaulieu97/peakflow/pkg/diff"
)

type runOptions struct {
	WorkflowPath   string
	SessionPath    string
	OutputPath     string
	MetricsAddr    string
	Parallel       int
	ShowDiff       bool
	Blocking       bool
	NonInteractive bool
	PollInterval   time.Duration
}

var isInteractive = func(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newRunCmd(app *appContext) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a workflow over a session and print the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFileFlag("workflow", opts.WorkflowPath); err != nil {
				return err
			}
			if err := validateFileFlag("session", opts.SessionPath); err != nil {
				return err
			}
			if opts.Parallel < 0 {
				return fmt.Errorf("--parallel must not be negative")
			}
			opts.NonInteractive = opts.NonInteractive || !isInteractive(cmd.OutOrStdout())
			return runWorkflow(cmd.Context(), cmd.OutOrStdout(), app, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.WorkflowPath, "workflow", "w", "", "Path to the workflow file (.yaml, .yml, .toml)")
	cmd.Flags().StringVarP(&opts.SessionPath, "session", "s", "", "Path to the session file (.yaml, .yml, .toml)")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "Write the processed session to this file")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 0, "Injections processed concurrently (overrides the workflow setting)")
	cmd.Flags().BoolVar(&opts.Blocking, "blocking", false, "Run in the foreground without a progress display")
	cmd.Flags().BoolVar(&opts.ShowDiff, "diff", false, "Print how the processed session differs from the input")
	cmd.Flags().BoolVar(&opts.NonInteractive, "no-tui", false, "Report progress as log lines instead of the interactive display")
	cmd.Flags().DurationVar(&opts.PollInterval, "poll-interval", 500*time.Millisecond, "Progress refresh period")
	cmd.MarkFlagRequired("workflow") //nolint:errcheck
	cmd.MarkFlagRequired("session")  //nolint:errcheck

	return cmd
}

func runWorkflow(ctx context.Context, out io.Writer, app *appContext, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := app.Logger
	if log == nil {
		log = logger.Nop()
	}

	wf, err := config.LoadWorkflow(opts.WorkflowPath, app.Registry)
	if err != nil {
		return err
	}
	session, err := config.LoadSession(opts.SessionPath)
	if err != nil {
		return err
	}
	if opts.Parallel > 0 {
		wf.Settings.Parallel = opts.Parallel
	}

	var before string
	if opts.ShowDiff {
		if before, err = renderSession(session); err != nil {
			return err
		}
	}

	collector := metrics.NewPrometheus(log)
	if opts.MetricsAddr != "" {
		stop, err := serveMetrics(opts.MetricsAddr, collector, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	dispatcher := events.NewDispatcher()
	tracker := progress.NewTracker()
	dispatcher.Subscribe(tracker)
	interactive := !opts.NonInteractive && !opts.Blocking
	if !interactive {
		dispatcher.Subscribe(infraevents.NewLoggingObserver(log))
	}

	runner := engine.NewRunner(dispatcher, engine.WithLogger(log), engine.WithMetrics(collector))
	if !runner.Submit(ctx, session, wf.Selectors, wf, opts.Blocking) {
		return fmt.Errorf("a workflow is already running")
	}

	switch {
	case opts.Blocking:
		dispatcher.DrainAndDeliver()
	case interactive:
		model := tui.NewModel(wf.Name, dispatcher, tracker, runner).WithInterval(min(opts.PollInterval, tui.DefaultInterval))
		if _, err := tea.NewProgram(model, tea.WithOutput(out)).Run(); err != nil {
			log.Error(err, "progress display failed")
		}
		waitForRunner(runner, dispatcher, opts.PollInterval, nil)
	default:
		waitForRunner(runner, dispatcher, opts.PollInterval, func() {
			snap := tracker.Snapshot()
			fields := map[string]any{
				"progress": fmt.Sprintf("%.0f%%", snap.Progress*100),
				"commands": fmt.Sprintf("%d/%d", snap.CompletedCommandSteps, snap.TotalCommands()),
			}
			if snap.HasETA {
				fields["eta"] = snap.ETA.Round(100 * time.Millisecond).String()
			}
			log.WithFields(fields).Info("workflow progress")
		})
	}

	var result workflow.Session
	if err := runner.TakeResult(&result); err != nil {
		return err
	}

	fmt.Fprintln(out, resultsTable(&result))
	fmt.Fprintf(out, "finished in %s\n", runner.LastRunDuration().Round(time.Millisecond))

	if opts.ShowDiff {
		after, err := renderSession(&result)
		if err != nil {
			return err
		}
		inserted, deleted := diff.Stats(before, after)
		fmt.Fprintf(out, "session changes: %d lines added, %d removed\n", inserted, deleted)
		fmt.Fprint(out, diff.Lines(before, after, opts.SessionPath, "result"))
	}

	if opts.OutputPath != "" {
		if err := config.WriteSession(opts.OutputPath, &result); err != nil {
			return err
		}
		log.With("path", opts.OutputPath).Info("processed session written")
	}

	if runErr := runner.Err(); runErr != nil {
		return fmt.Errorf("workflow %q failed: %w", wf.Name, runErr)
	}
	return nil
}

// waitForRunner drains notifications until the runner is done. report, when
// set, is called after every drain.
func waitForRunner(runner *engine.Runner, dispatcher *events.Dispatcher, interval time.Duration, report func()) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done := runner.IsDone()
		dispatcher.DrainAndDeliver()
		if report != nil {
			report()
		}
		if done {
			return
		}
		<-ticker.C
	}
}

func serveMetrics(addr string, collector *metrics.Prometheus, log *logger.Logger) (func(), error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", collector.Handler())

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.With("addr", listener.Addr().String()).Info("serving metrics")
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "metrics server error")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}

func renderSession(session *workflow.Session) (string, error) {
	var b strings.Builder
	if err := config.EncodeSession(&b, config.FormatYAML, session); err != nil {
		return "", err
	}
	return b.String(), nil
}

func resultsTable(session *workflow.Session) string {
	var rows [][]string
	for _, kind := range workflow.Kinds {
		for _, entity := range session.Entities(kind) {
			if len(entity.Results) == 0 {
				rows = append(rows, []string{kind.String(), entity.Name, "-", ""})
				continue
			}
			for _, key := range slices.Sorted(maps.Keys(entity.Results)) {
				v := entity.Results[key]
				rows = append(rows, []string{kind.String(), entity.Name, key, v.Quote()})
			}
		}
	}
	return renderTable([]string{"Kind", "Entity", "Result", "Value"}, rows, nil)
}
