// File: cmd/extract.go
package cmd

import (
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-probe/internal/config"
	"github.com/xkilldash9x/scalpel-probe/internal/reporting"
)

// outputFlags are the overrides shared by every command that exports.
type outputFlags struct {
	annotate   bool
	output     string
	driver     string
	format     string
	screenshot bool
	markdown   bool
	indexMode  string
	headless   bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.annotate, "annotate", false, "draw numbered highlights over the extracted elements")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output folder for element dumps and screenshots")
	cmd.Flags().StringVar(&f.driver, "driver", "", "browser driver (chromedp or rod)")
	cmd.Flags().StringVar(&f.format, "format", "", "dump format (json, minified or both)")
	cmd.Flags().BoolVar(&f.screenshot, "screenshot", true, "save a screenshot per step")
	cmd.Flags().BoolVar(&f.markdown, "markdown", true, "save the page content as markdown per step")
	cmd.Flags().StringVar(&f.indexMode, "index-mode", "", "id counter across shadow roots (shared or per-root)")
	cmd.Flags().BoolVar(&f.headless, "headless", true, "run the browser without a window")
}

// apply copies the flags the user set onto the configuration and validates
// the result.
func (f *outputFlags) apply(cmd *cobra.Command, cfg config.Interface) error {
	flags := cmd.Flags()
	if flags.Changed("annotate") {
		cfg.SetProbeAnnotate(f.annotate)
	}
	if flags.Changed("output") {
		dir, err := homedir.Expand(f.output)
		if err != nil {
			return fmt.Errorf("invalid output folder: %w", err)
		}
		cfg.SetOutputDir(dir)
	}
	if flags.Changed("driver") {
		cfg.SetBrowserDriver(f.driver)
	}
	if flags.Changed("format") {
		cfg.SetOutputFormat(f.format)
	}
	if flags.Changed("screenshot") {
		cfg.SetOutputScreenshot(f.screenshot)
	}
	if flags.Changed("markdown") {
		cfg.SetOutputMarkdown(f.markdown)
	}
	if flags.Changed("index-mode") {
		cfg.SetProbeIndexMode(f.indexMode)
	}
	if flags.Changed("headless") {
		cfg.SetBrowserHeadless(f.headless)
	}
	if c, ok := cfg.(*config.Config); ok {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return nil
}

func newExtractCmd(a *app) *cobra.Command {
	var flags outputFlags

	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Extract the interactive elements of a page",
		Long: `Loads the page, lists its visible interactive elements (shadow DOM
included) with an id and a selector for each, prints them and writes them to
the output folder.`,
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
			report, err := s.Export(ctx, 0, dumper)
			if err != nil {
				return err
			}

			a.logger.Info("Extraction complete.",
				zap.String("url", report.Extraction.URL),
				zap.Int("elements", len(report.Extraction.Elements)),
				zap.Strings("files", report.Files))
			return reporting.NewWriterReporter(cmd.OutOrStdout(), a.cfg.Output().Format).Write(report.Extraction)
		},
	}
	flags.register(cmd)
	return cmd
}
