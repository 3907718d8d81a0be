package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/datacard/internal/align"
	"github.com/dshills/datacard/internal/datacard"
	"github.com/dshills/datacard/internal/engine/buffer"
	"github.com/dshills/datacard/internal/lint"
)

// Report is the outcome of re-checking one file.
type Report struct {
	// Path is the file that was checked.
	Path string

	// Run identifies this check in the logs.
	Run string

	// Detected is false when the file is not a datacard; nothing else is
	// done in that case.
	Detected bool

	// Aligned is true when the file was rewritten with aligned columns.
	Aligned bool

	// AlignErr is set when align-on-save was requested but failed.
	AlignErr error

	// Diagnostics are the lint findings for the (possibly aligned) file.
	Diagnostics []lint.Diagnostic
}

// Runner re-checks files as a Watcher reports changes to them.
type Runner struct {
	watcher     Watcher
	linter      *lint.Engine
	ownsLinter  bool
	aligner     *align.Aligner
	logger      *zap.Logger
	alignOnSave bool
	report      func(Report)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithLinter sets the lint engine. The caller keeps ownership.
func WithLinter(e *lint.Engine) RunnerOption {
	return func(r *Runner) {
		if e != nil {
			r.linter = e
		}
	}
}

// WithAligner sets the aligner used for align-on-save.
func WithAligner(a *align.Aligner) RunnerOption {
	return func(r *Runner) {
		if a != nil {
			r.aligner = a
		}
	}
}

// WithAlignOnSave makes the runner align changed datacards in place.
func WithAlignOnSave(on bool) RunnerOption {
	return func(r *Runner) {
		r.alignOnSave = on
	}
}

// WithReportFunc sets the function that receives every Report.
func WithReportFunc(fn func(Report)) RunnerOption {
	return func(r *Runner) {
		r.report = fn
	}
}

// NewRunner creates a runner consuming events from w.
func NewRunner(w Watcher, opts ...RunnerOption) *Runner {
	r := &Runner{
		watcher: w,
		aligner: align.New(),
		logger:  zap.NewNop(),
		report:  func(Report) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.linter == nil {
		r.linter = lint.NewEngine(lint.WithAligner(r.aligner), lint.WithLogger(r.logger))
		r.ownsLinter = true
	}
	return r
}

// Close releases the lint engine when the runner created it. An engine
// passed with WithLinter is left to the caller.
func (r *Runner) Close() error {
	if !r.ownsLinter {
		return nil
	}
	return r.linter.Close()
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (r *Runner) Run(ctx context.Context) error {
	log := r.logger.With(zap.String("session", uuid.NewString()))
	log.Info("watching", zap.Strings("paths", r.watcher.WatchedPaths()))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-r.watcher.Events():
			if !ok {
				return nil
			}
			if !event.Op.Has(OpWrite) && !event.Op.Has(OpCreate) {
				log.Debug("ignoring event", zap.String("path", event.Path), zap.Stringer("op", event.Op))
				continue
			}
			rep, err := r.Process(ctx, event.Path)
			if err != nil {
				log.Warn("check failed", zap.String("path", event.Path), zap.Error(err))
				continue
			}
			r.report(rep)

		case err, ok := <-r.watcher.Errors():
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		}
	}
}

// Process re-checks the file at path: detection, then (when enabled)
// alignment written back in place, then lint. The file is only rewritten
// when alignment changes its text.
func (r *Runner) Process(ctx context.Context, path string) (Report, error) {
	rep := Report{Path: path, Run: uuid.NewString()}
	log := r.logger.With(zap.String("run", rep.Run), zap.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return rep, fmt.Errorf("read %s: %w", path, err)
	}
	text := string(data)
	buf := buffer.NewBufferFromString(text, buffer.WithDetectedLineEnding(text))

	rep.Detected = datacard.Detect(buf.Snapshot())
	if !rep.Detected {
		log.Debug("not a datacard")
		return rep, nil
	}

	if r.alignOnSave {
		changed, err := buf.Update(func(snap *buffer.Snapshot) (buffer.LineEdit, bool, error) {
			res, err := r.aligner.Align(snap)
			if err != nil {
				return buffer.LineEdit{}, false, err
			}
			for _, w := range res.Warnings {
				log.Debug("alignment warning", zap.Stringer("warning", w))
			}
			if !res.Changed {
				return buffer.LineEdit{}, false, nil
			}
			return buffer.NewLineEdit(res.Edit.StartLine, res.Edit.EndLine, res.Edit.NewText), true, nil
		})
		switch {
		case err != nil:
			rep.AlignErr = err
			log.Info("not aligned", zap.Error(err))
		case changed:
			if err := ReplaceFile(path, buf.Text()); err != nil {
				return rep, err
			}
			rep.Aligned = true
			log.Info("aligned")
		}
	}

	snap := buf.Snapshot()
	diags, err := r.linter.CheckAnalyzed(ctx, snap, datacard.Analyze(snap))
	if err != nil {
		log.Warn("lint rules failed", zap.Error(err))
	}
	rep.Diagnostics = diags
	log.Debug("checked", zap.Int("diagnostics", len(diags)))
	return rep, nil
}

// ReplaceFile replaces path with text through a temporary file and a rename,
// keeping the original permissions.
func ReplaceFile(path, text string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
