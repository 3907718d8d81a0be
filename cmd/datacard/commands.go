package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/datacard/internal/datacard"
	"github.com/dshills/datacard/internal/engine/buffer"
	"github.com/dshills/datacard/internal/highlight"
	"github.com/dshills/datacard/internal/lint"
	"github.com/dshills/datacard/internal/watcher"
)

// errNotAligned is returned by "align --check" when a card would change.
var errNotAligned = errors.New("not aligned")

func newDetectCmd(c *cli) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "detect FILE...",
		Short: "Report whether files are datacards",
		Long: `Report whether each file is a datacard. A file is one when three
consecutive lines start with imax, jmax and kmax, in that order, anywhere
in the file. With --strict those three lines must be the first lines of
the file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, path := range args {
				text, err := readInput(cmd, path)
				if err != nil {
					return err
				}
				doc := datacard.SplitLines(text)
				detected := datacard.Detect(doc)
				if strict {
					detected = datacard.DetectStrict(doc)
				}
				if !detected {
					fmt.Fprintf(w, "%s\tnot a datacard\n", path)
					continue
				}
				line, _ := datacard.FindHeader(doc)
				fmt.Fprintf(w, "%s\tdatacard\theader line %d\n", path, line+1)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "require the imax, jmax and kmax lines to open the file")
	return cmd
}

func newSectionsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sections FILE",
		Short: "List the blocks of a datacard and their sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			an := datacard.Analyze(datacard.SplitLines(text))

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for i, b := range an.Blocks() {
				note := ""
				if b.Blank {
					note = "blank"
				}
				fmt.Fprintf(w, "%d-%d\t%s\t%s\n", b.Start+1, b.End+1, an.BlockSection(i), note)
			}
			return w.Flush()
		},
	}
}

func newFoldCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "fold FILE",
		Short: "Print the folding ranges between dividers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			for _, r := range datacard.FoldingRanges(datacard.SplitLines(text)) {
				fmt.Fprintf(cmd.OutOrStdout(), "%d-%d\n", r.StartLine+1, r.EndLine+1)
			}
			return nil
		},
	}
}

func newOutlineCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "outline FILE",
		Short: "Print the section outline of a datacard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, s := range datacard.Outline(datacard.SplitLines(text)) {
				fmt.Fprintf(w, "%s\t%d-%d\n", s.Name, s.StartLine+1, s.EndLine+1)
			}
			return w.Flush()
		},
	}
}

func newAlignCmd(c *cli) *cobra.Command {
	var (
		write bool
		check bool
		pad   int
	)
	cmd := &cobra.Command{
		Use:   "align FILE",
		Short: "Align the Processes and Systematics columns",
		Long: `Align the Processes and Systematics blocks of a datacard into columns.

The result is printed to stdout unless --write is given, in which case the
file is replaced only when alignment changes it. --check prints nothing and
fails when the file is not aligned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if write && path == "-" {
				return errors.New("--write needs a file, not stdin")
			}
			if cmd.Flags().Changed("pad") {
				c.cfg.Align.Pad = pad
				if err := c.cfg.Validate(); err != nil {
					return err
				}
			}

			text, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			buf := buffer.NewBufferFromString(text, buffer.WithDetectedLineEnding(text))
			aligner := c.aligner()
			log := c.logger.With(zap.String("path", path))

			changed, err := buf.Update(func(snap *buffer.Snapshot) (buffer.LineEdit, bool, error) {
				res, err := aligner.Align(snap)
				if err != nil {
					return buffer.LineEdit{}, false, err
				}
				for _, w := range res.Warnings {
					log.Warn("alignment warning", zap.Stringer("warning", w))
				}
				if !res.Changed {
					return buffer.LineEdit{}, false, nil
				}
				return buffer.NewLineEdit(res.Edit.StartLine, res.Edit.EndLine, res.Edit.NewText), true, nil
			})
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			switch {
			case check:
				if changed {
					return fmt.Errorf("%s: %w", path, errNotAligned)
				}
				return nil
			case write:
				if !changed {
					log.Debug("already aligned")
					return nil
				}
				if err := watcher.ReplaceFile(path, buf.Text()); err != nil {
					return err
				}
				log.Info("aligned")
				return nil
			default:
				_, err := fmt.Fprint(cmd.OutOrStdout(), buf.Text())
				return err
			}
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the file")
	cmd.Flags().BoolVar(&check, "check", false, "fail if the file is not aligned")
	cmd.Flags().IntVar(&pad, "pad", 3, "spaces between columns")
	cmd.MarkFlagsMutuallyExclusive("write", "check")
	return cmd
}

func newHighlightCmd(c *cli) *cobra.Command {
	var style, formatter string
	cmd := &cobra.Command{
		Use:   "highlight FILE",
		Short: "Print a datacard with syntax highlighting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("style") {
				c.cfg.Highlight.Style = style
			}
			if cmd.Flags().Changed("formatter") {
				c.cfg.Highlight.Formatter = formatter
			}

			v, err := c.vocabulary()
			if err != nil {
				return err
			}
			r, err := highlight.New(v,
				highlight.WithStyle(c.cfg.Highlight.Style),
				highlight.WithFormatter(c.cfg.Highlight.Formatter),
			)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return r.Render(cmd.OutOrStdout(), text)
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "chroma style name")
	cmd.Flags().StringVar(&formatter, "formatter", "", "chroma formatter: terminal256, terminal16m, html, noop")
	return cmd
}

func newLintCmd(c *cli) *cobra.Command {
	var scripts []string
	cmd := &cobra.Command{
		Use:   "lint FILE...",
		Short: "Check datacards for structural problems",
		Long: `Check datacards with the built-in rules and any Lua rule scripts.

Each finding is printed as FILE:LINE: severity [code] message. The command
fails when any finding is an error.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := c.linter(cmd.Context(), scripts...)
			if err != nil {
				return err
			}
			defer engine.Close()

			var errorCount int
			for _, path := range args {
				text, err := readInput(cmd, path)
				if err != nil {
					return err
				}
				doc := datacard.SplitLines(text)
				if !datacard.Detect(doc) {
					c.logger.Debug("skipping, not a datacard", zap.String("path", path))
					continue
				}
				diags, err := engine.Check(cmd.Context(), doc)
				if err != nil {
					c.logger.Warn("lint rules failed", zap.String("path", path), zap.Error(err))
				}
				for _, d := range diags {
					fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", path, d)
					if d.Severity == lint.SeverityError {
						errorCount++
					}
				}
			}
			if errorCount > 0 {
				return fmt.Errorf("%d error(s) found", errorCount)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&scripts, "script", nil, "additional Lua rule script (repeatable)")
	return cmd
}
