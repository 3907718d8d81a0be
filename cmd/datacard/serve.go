package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/datacard/internal/lsp"
	"github.com/dshills/datacard/internal/watcher"
)

func newServeCmd(c *cli) *cobra.Command {
	var stdio bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the language server on stdin and stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.vocabulary()
			if err != nil {
				return err
			}
			engine, err := c.linter(cmd.Context())
			if err != nil {
				return err
			}
			defer engine.Close()

			server := lsp.NewServer(cmd.InOrStdin(), cmd.OutOrStdout(),
				lsp.WithLogger(c.logger.Named("lsp")),
				lsp.WithVocabulary(v),
				lsp.WithAligner(c.aligner()),
				lsp.WithLinter(engine),
				lsp.WithVersion(version),
			)
			return server.Run(cmd.Context())
		},
	}
	// Editors pass --stdio; it is the only transport.
	cmd.Flags().BoolVar(&stdio, "stdio", true, "communicate over stdin and stdout")
	return cmd
}

func newWatchCmd(c *cli) *cobra.Command {
	var alignOnSave bool
	cmd := &cobra.Command{
		Use:   "watch PATH...",
		Short: "Re-check datacards whenever they change",
		Long: `Watch files or directories and re-run detection and lint on every
change to a file with a configured extension. With --align-on-save (or
align.onSave in the config) changed cards are aligned in place.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("align-on-save") {
				c.cfg.Align.OnSave = alignOnSave
			}

			engine, err := c.linter(cmd.Context())
			if err != nil {
				return err
			}
			defer engine.Close()

			fsw, err := watcher.NewFSNotifyWatcher(
				watcher.WithExtensions(c.cfg.Watch.Extensions),
				watcher.WithDebounceDelay(c.cfg.Watch.Debounce.Duration),
			)
			if err != nil {
				return err
			}
			w := watcher.NewDebouncedWatcher(fsw, c.cfg.Watch.Debounce.Duration)
			defer w.Close()

			for _, path := range args {
				if err := w.Watch(path); err != nil {
					return fmt.Errorf("watch %s: %w", path, err)
				}
			}

			out := cmd.OutOrStdout()
			runner := watcher.NewRunner(w,
				watcher.WithLogger(c.logger.Named("watch")),
				watcher.WithLinter(engine),
				watcher.WithAligner(c.aligner()),
				watcher.WithAlignOnSave(c.cfg.Align.OnSave),
				watcher.WithReportFunc(func(rep watcher.Report) {
					if !rep.Detected {
						return
					}
					if rep.Aligned {
						fmt.Fprintf(out, "%s: aligned\n", rep.Path)
					}
					for _, d := range rep.Diagnostics {
						fmt.Fprintf(out, "%s:%s\n", rep.Path, d)
					}
				}),
			)
			defer runner.Close()
			c.logger.Info("watching", zap.Strings("paths", args), zap.Bool("alignOnSave", c.cfg.Align.OnSave))
			return runner.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&alignOnSave, "align-on-save", false, "align changed cards in place")
	return cmd
}
