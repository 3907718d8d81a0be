package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/datacard/internal/lint"
)

const unalignedCard = `imax 1
jmax 1
kmax 1
---
bin b1
observation 3
---
bin b1
process sig
rate 1.5
---
lumi lnN 1.1
`

const alignedCard = `imax 1
jmax 1
kmax 1
---
bin b1
observation 3
---
bin        b1
process    sig
rate       1.5
---
lumi lnN   1.1
`

func writeCard(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0o640); err != nil {
		t.Fatal(err)
	}
	return path
}

func codes(diags []lint.Diagnostic) []string {
	var out []string
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestRunnerProcessNotADatacard(t *testing.T) {
	path := writeCard(t, "notes.txt", "just some notes\n")
	r := NewRunner(newMockWatcher(), WithAlignOnSave(true))

	rep, err := r.Process(context.Background(), path)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if rep.Detected || rep.Aligned || len(rep.Diagnostics) != 0 {
		t.Errorf("report = %+v, want nothing done", rep)
	}
	if rep.Run == "" {
		t.Error("report should carry a run id")
	}
}

func TestRunnerProcessLintOnly(t *testing.T) {
	path := writeCard(t, "card.txt", unalignedCard)
	r := NewRunner(newMockWatcher())

	rep, err := r.Process(context.Background(), path)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !rep.Detected || rep.Aligned {
		t.Errorf("report = %+v, want detected and not aligned", rep)
	}
	if got := codes(rep.Diagnostics); len(got) != 1 || got[0] != lint.CodeMisaligned {
		t.Errorf("diagnostics = %v, want [misaligned]", got)
	}

	data, _ := os.ReadFile(path)
	if string(data) != unalignedCard {
		t.Error("file should not be rewritten without align-on-save")
	}
}

func TestRunnerProcessAlignOnSave(t *testing.T) {
	path := writeCard(t, "card.txt", unalignedCard)
	r := NewRunner(newMockWatcher(), WithAlignOnSave(true))

	rep, err := r.Process(context.Background(), path)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !rep.Aligned || rep.AlignErr != nil {
		t.Fatalf("report = %+v, want aligned", rep)
	}
	if len(rep.Diagnostics) != 0 {
		t.Errorf("diagnostics after alignment = %v, want none", codes(rep.Diagnostics))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != alignedCard {
		t.Errorf("file after alignment:\n%s\nwant:\n%s", data, alignedCard)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}

	// A second pass finds nothing to do and leaves the file alone.
	before := info.ModTime()
	rep, err = r.Process(context.Background(), path)
	if err != nil {
		t.Fatalf("second Process() error = %v", err)
	}
	if rep.Aligned {
		t.Error("second pass should not rewrite the file")
	}
	if info, _ := os.Stat(path); !info.ModTime().Equal(before) {
		t.Error("file modified on the second pass")
	}
}

func TestRunnerProcessPreservesCRLF(t *testing.T) {
	path := writeCard(t, "card.txt", strings.ReplaceAll(unalignedCard, "\n", "\r\n"))
	r := NewRunner(newMockWatcher(), WithAlignOnSave(true))

	if _, err := r.Process(context.Background(), path); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if want := strings.ReplaceAll(alignedCard, "\n", "\r\n"); string(data) != want {
		t.Errorf("file after alignment = %q, want %q", data, want)
	}
}

func TestRunnerProcessAlignFailure(t *testing.T) {
	text := "imax 1\njmax 1\nkmax 1\n---\nbin b1\n---\nbin b1\nprocess sig\n"
	path := writeCard(t, "card.txt", text)
	r := NewRunner(newMockWatcher(), WithAlignOnSave(true))

	rep, err := r.Process(context.Background(), path)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if rep.AlignErr == nil || rep.Aligned {
		t.Errorf("report = %+v, want an alignment error", rep)
	}
	if got := codes(rep.Diagnostics); len(got) != 1 || got[0] != lint.CodeSectionMissing {
		t.Errorf("diagnostics = %v, want [section-missing]", got)
	}
}

func TestRunnerProcessMissingFile(t *testing.T) {
	r := NewRunner(newMockWatcher())
	if _, err := r.Process(context.Background(), filepath.Join(t.TempDir(), "gone.txt")); err == nil {
		t.Error("Process() on a missing file should fail")
	}
}

func TestRunnerRun(t *testing.T) {
	path := writeCard(t, "card.txt", unalignedCard)
	mock := newMockWatcher()

	reports := make(chan Report, 4)
	r := NewRunner(mock, WithReportFunc(func(rep Report) { reports <- rep }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	mock.sendEvent(Event{Path: path, Op: OpRemove})
	mock.sendEvent(Event{Path: path, Op: OpWrite})

	select {
	case rep := <-reports:
		if rep.Path != path || !rep.Detected {
			t.Errorf("report = %+v", rep)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a report")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if len(reports) != 0 {
		t.Errorf("got %d extra reports, want none for the remove event", len(reports))
	}
}

func TestRunnerRunStopsWhenWatcherCloses(t *testing.T) {
	mock := newMockWatcher()
	r := NewRunner(mock)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	mock.sendError(os.ErrPermission)
	mock.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after the watcher closed")
	}
}

func TestRunnerCloseReleasesOwnLinter(t *testing.T) {
	r := NewRunner(newMockWatcher())
	if err := r.linter.LoadScript(context.Background(), "noop", "function check(line) return nil end"); err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if rules := r.linter.Rules(); len(rules) != 0 {
		t.Errorf("rules after Close = %v, want none", rules)
	}
}

func TestRunnerCloseLeavesCallerLinter(t *testing.T) {
	engine := lint.NewEngine()
	defer engine.Close()
	if err := engine.LoadScript(context.Background(), "noop", "function check(line) return nil end"); err != nil {
		t.Fatalf("LoadScript() error = %v", err)
	}

	r := NewRunner(newMockWatcher(), WithLinter(engine))
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if diff := cmp.Diff([]string{"noop"}, engine.Rules()); diff != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", diff)
	}
}
