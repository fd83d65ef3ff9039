// File: cmd/run.go
package cmd

import (
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-probe/internal/browser/session"
	"github.com/xkilldash9x/scalpel-probe/internal/reporting"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		flags    outputFlags
		planPath string
	)

	cmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Execute a plan of interactions, exporting the page before each step",
		Long: `Reads a JSON array of steps ([{"id": 3}, {"id": 5, "args": "text"}]),
loads the page and for every step exports the elements, then interacts with
the element the step names. The page the plan ends on is exported too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(cmd, a.cfg); err != nil {
				return err
			}
			path, err := homedir.Expand(planPath)
			if err != nil {
				return fmt.Errorf("invalid plan path: %w", err)
			}
			steps, err := session.LoadPlan(path)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			s, cleanup, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := s.Navigate(ctx, args[0]); err != nil {
				return err
			}
			dumper := reporting.NewDumper(a.cfg.Output(), a.logger)
			reports, err := s.RunPlan(ctx, steps, dumper)
			for _, r := range reports {
				line := fmt.Sprintf("step %d: %d elements on %s", r.Step, len(r.Extraction.Elements), r.Extraction.URL)
				if r.Action != nil {
					line += fmt.Sprintf(", then element %d", r.Action.ElementID)
					if r.TargetXPath != "" {
						line += " at " + r.TargetXPath
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			if err != nil {
				return err
			}
			a.logger.Info("Plan complete.", zap.Int("steps", len(steps)), zap.String("output", dumper.Dir()))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&planPath, "plan", "", "path to the JSON plan")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}
