// Package main is the entry point for the datacard tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/datacard/internal/align"
	"github.com/dshills/datacard/internal/config"
	"github.com/dshills/datacard/internal/lint"
	"github.com/dshills/datacard/internal/logging"
	"github.com/dshills/datacard/internal/vocab"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli holds state shared by every command once the root pre-run has
// loaded the configuration.
type cli struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "datacard",
		Short: "Recognize, segment and align statistical-analysis datacards",
		Long: `datacard works with the plain-text datacards used by limit-setting tools.

It recognizes the imax/jmax/kmax header, splits a card into its
dash-divided sections, aligns the Processes and Systematics blocks into
columns, checks cards against built-in and Lua lint rules, and serves all
of this to editors over the Language Server Protocol.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default ./"+config.FileName+")")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&c.logFormat, "log-format", "", "log format: console or json")

	root.AddCommand(
		newDetectCmd(c),
		newSectionsCmd(c),
		newAlignCmd(c),
		newFoldCmd(c),
		newOutlineCmd(c),
		newHighlightCmd(c),
		newLintCmd(c),
		newWatchCmd(c),
		newServeCmd(c),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration, applies global flag overrides and builds
// the logger.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	path := c.configPath
	if path == "" {
		path = config.FileName
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = c.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	c.cfg = cfg
	c.logger = logger
	c.logger.Debug("configuration loaded", zap.String("path", path))
	return nil
}

func (c *cli) vocabulary() (*vocab.Vocabulary, error) {
	if c.cfg.Vocabulary.Grammar == "" && c.cfg.Vocabulary.Descriptions == "" {
		return vocab.Default()
	}
	return vocab.LoadFiles(c.cfg.Vocabulary.Grammar, c.cfg.Vocabulary.Descriptions)
}

func (c *cli) aligner() *align.Aligner {
	return align.New(
		align.WithPad(c.cfg.Align.Pad),
		align.WithSkipComments(c.cfg.Align.SkipComments),
	)
}

// linter returns an engine with the configured scripts plus extra loaded.
// The caller closes it.
func (c *cli) linter(ctx context.Context, extra ...string) (*lint.Engine, error) {
	e := lint.NewEngine(
		lint.WithLogger(c.logger.Named("lint")),
		lint.WithAligner(c.aligner()),
		lint.WithTimeout(c.cfg.Lint.Timeout.Duration),
	)
	scripts := append(append([]string{}, c.cfg.Lint.Scripts...), extra...)
	if err := e.LoadFiles(ctx, scripts...); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// readInput returns the contents of path, or of stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: no such file", path)
		}
		return "", err
	}
	return string(data), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "datacard %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
