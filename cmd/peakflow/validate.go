package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/peakflow/internal/config"
	"github.com/alexisbeaulieu97/peakflow/internal/domain/workflow"
	"github.com/alexisbeaulieu97/peakflow/internal/engine"
)

type validateOptions struct {
	WorkflowPath string
	SessionPath  string
}

func newValidateCmd(app *appContext) *cobra.Command {
	opts := validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a workflow, and optionally a session, without running anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFileFlag("workflow", opts.WorkflowPath); err != nil {
				return err
			}
			if opts.SessionPath != "" {
				if err := validateFileFlag("session", opts.SessionPath); err != nil {
					return err
				}
			}
			return runValidate(cmd.OutOrStdout(), app, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.WorkflowPath, "workflow", "w", "", "Path to the workflow file (.yaml, .yml, .toml)")
	cmd.Flags().StringVarP(&opts.SessionPath, "session", "s", "", "Path to a session file to check the workflow against")
	cmd.MarkFlagRequired("workflow") //nolint:errcheck

	return cmd
}

func runValidate(out io.Writer, app *appContext, opts validateOptions) error {
	wf, err := config.LoadWorkflow(opts.WorkflowPath, app.Registry)
	if err != nil {
		return err
	}

	runs := engine.BuildRuns(wf.Commands)
	fmt.Fprintf(out, "workflow %q: %d commands in %d runs\n", wf.Name, len(wf.Commands), len(runs))
	fmt.Fprint(out, engine.DescribeRuns(runs))

	if opts.SessionPath == "" {
		return nil
	}

	session, err := config.LoadSession(opts.SessionPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "session %q: %d injections, %d segments, %d groups\n",
		session.Name, len(session.Injections), len(session.Segments), len(session.Groups))

	for _, kind := range workflow.Kinds {
		_, missing := session.Select(kind, wf.Selectors.For(kind))
		for _, name := range missing {
			fmt.Fprintf(out, "warning: selected %s %q is not in the session\n", kind, name)
		}
	}

	for _, cmd := range wf.Commands {
		_, ignored, err := cmd.Method.Schema().Resolve(session.Parameters[cmd.Name()])
		if err != nil {
			return fmt.Errorf("parameters of %s: %w", cmd.Name(), err)
		}
		for _, name := range ignored {
			fmt.Fprintf(out, "warning: parameter %q is not declared by %s\n", name, cmd.Name())
		}
	}

	fmt.Fprintln(out, "ok")
	return nil
}
