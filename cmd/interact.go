// File: cmd/interact.go
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-probe/internal/reporting"
)

func newInteractCmd(a *app) *cobra.Command {
	var (
		flags outputFlags
		id    int
		text  string
	)

	cmd := &cobra.Command{
		Use:   "interact <url>",
		Short: "Click or fill one extracted element",
		Long: `Extracts the page, then clicks the element with the given id when it is
a button or a link, or types --args into it when it is an input. The page is
extracted again afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(cmd, a.cfg); err != nil {
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
			if _, err := s.Export(ctx, 0, dumper); err != nil {
				return err
			}
			if err := s.InteractByID(ctx, id, text); err != nil {
				return err
			}
			after, err := s.Export(ctx, 1, dumper)
			if err != nil {
				return err
			}

			a.logger.Info("Interaction complete.",
				zap.Int("element_id", id),
				zap.String("url", after.Extraction.URL))
			return reporting.NewWriterReporter(cmd.OutOrStdout(), a.cfg.Output().Format).Write(after.Extraction)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&id, "id", -1, "id of the element to interact with")
	cmd.Flags().StringVar(&text, "args", "", "text to type into an input")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
