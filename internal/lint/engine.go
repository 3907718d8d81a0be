package lint

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/datacard/internal/align"
	"github.com/dshills/datacard/internal/datacard"
)

// Engine runs the built-in checks and any loaded Lua rules.
type Engine struct {
	mu      sync.Mutex
	rules   []*Rule
	aligner *align.Aligner
	logger  *zap.Logger
	timeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithAligner sets the aligner used for the misaligned check. Passing nil
// disables it.
func WithAligner(a *align.Aligner) Option {
	return func(e *Engine) {
		e.aligner = a
	}
}

// WithTimeout sets the per-call execution timeout of Lua rules.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// NewEngine creates an Engine with no rules loaded.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		aligner: align.New(),
		logger:  zap.NewNop(),
		timeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadScript compiles a rule from source and adds it to the engine.
func (e *Engine) LoadScript(ctx context.Context, name, code string) error {
	r, err := NewRule(ctx, name, code, WithExecutionTimeout(e.timeout))
	if err != nil {
		return err
	}
	e.add(r)
	return nil
}

// LoadFiles loads one rule per path. The rule is named after the file base
// name without extension. Every path is attempted; the errors are joined.
func (e *Engine) LoadFiles(ctx context.Context, paths ...string) error {
	var errs []error
	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		r, err := LoadRule(ctx, name, p, WithExecutionTimeout(e.timeout))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		e.add(r)
	}
	return errors.Join(errs...)
}

func (e *Engine) add(r *Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, r)
	e.logger.Debug("lint rule loaded", zap.String("rule", r.Name()))
}

// Rules returns the names of the loaded rules in load order.
func (e *Engine) Rules() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Check analyzes doc and runs every check against it.
func (e *Engine) Check(ctx context.Context, doc datacard.Document) ([]Diagnostic, error) {
	return e.CheckAnalyzed(ctx, doc, datacard.Analyze(doc))
}

// CheckAnalyzed runs every check against an already analyzed document.
// A failing rule does not stop the others; its error is returned joined
// with the rest alongside all diagnostics that were produced.
func (e *Engine) CheckAnalyzed(ctx context.Context, doc datacard.Document, an *datacard.Analysis) ([]Diagnostic, error) {
	diags := Builtin(doc, an, e.aligner)

	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for _, r := range e.rules {
		found, err := r.Check(ctx, doc, an)
		diags = append(diags, found...)
		if err != nil {
			e.logger.Warn("lint rule failed", zap.String("rule", r.Name()), zap.Error(err))
			errs = append(errs, err)
		}
	}

	sort.SliceStable(diags, func(i, j int) bool {
		return diags[i].StartLine < diags[j].StartLine
	})
	return diags, errors.Join(errs...)
}

// Close releases every rule.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.rules {
		r.Close()
	}
	e.rules = nil
	return nil
}
