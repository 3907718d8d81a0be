package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
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

// execute runs the command tree with args in a directory holding no
// config file and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)

	err := root.Execute()
	return out.String(), err
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}

func writeCard(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "card.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetect(t *testing.T) {
	card := writeCard(t, unalignedCard)
	notes := filepath.Join(filepath.Dir(card), "notes.txt")
	if err := os.WriteFile(notes, []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "detect", card, notes)
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "datacard") || !strings.Contains(lines[0], "header line 1") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "not a datacard") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestDetectStrict(t *testing.T) {
	out, err := execute(t, "imax 1\n---\njmax 1\n", "detect", "--strict", "-")
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}
	if !strings.Contains(out, "not a datacard") {
		t.Errorf("output = %q, want not a datacard", out)
	}
}

func TestDetectStrictRequiresHeaderFirst(t *testing.T) {
	card := "# preamble\n" + unalignedCard

	out, err := execute(t, card, "detect", "-")
	if err != nil {
		t.Fatalf("detect error = %v", err)
	}
	if !strings.Contains(out, "header line 2") {
		t.Errorf("output = %q, want header line 2", out)
	}

	out, err = execute(t, card, "detect", "--strict", "-")
	if err != nil {
		t.Fatalf("detect --strict error = %v", err)
	}
	if !strings.Contains(out, "not a datacard") {
		t.Errorf("output = %q, want not a datacard", out)
	}

	out, err = execute(t, unalignedCard, "detect", "--strict", "-")
	if err != nil {
		t.Fatalf("detect --strict error = %v", err)
	}
	if !strings.Contains(out, "header line 1") {
		t.Errorf("output = %q, want header line 1", out)
	}
}

func TestSections(t *testing.T) {
	out, err := execute(t, unalignedCard, "sections", "-")
	if err != nil {
		t.Fatalf("sections error = %v", err)
	}
	for _, want := range []string{"Header", "Channels", "Processes", "Systematics"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestFoldAndOutline(t *testing.T) {
	out, err := execute(t, unalignedCard, "fold", "-")
	if err != nil {
		t.Fatalf("fold error = %v", err)
	}
	if want := "4-6\n7-10\n"; out != want {
		t.Errorf("fold output = %q, want %q", out, want)
	}

	out, err = execute(t, unalignedCard, "outline", "-")
	if err != nil {
		t.Fatalf("outline error = %v", err)
	}
	if !strings.Contains(out, "Systematics") || !strings.Contains(out, "12-13") {
		t.Errorf("outline output = %q", out)
	}
}

func TestAlignStdout(t *testing.T) {
	out, err := execute(t, unalignedCard, "align", "-")
	if err != nil {
		t.Fatalf("align error = %v", err)
	}
	if out != alignedCard {
		t.Errorf("align output:\n%s\nwant:\n%s", out, alignedCard)
	}
}

func TestAlignWrite(t *testing.T) {
	path := writeCard(t, unalignedCard)

	if _, err := execute(t, "", "align", "--write", path); err != nil {
		t.Fatalf("align --write error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != alignedCard {
		t.Errorf("file after align --write:\n%s", data)
	}

	if _, err := execute(t, "", "align", "--check", path); err != nil {
		t.Errorf("align --check on an aligned file error = %v", err)
	}
}

func TestAlignCheck(t *testing.T) {
	path := writeCard(t, unalignedCard)

	_, err := execute(t, "", "align", "--check", path)
	if !errors.Is(err, errNotAligned) {
		t.Errorf("align --check error = %v, want errNotAligned", err)
	}
}

func TestAlignPad(t *testing.T) {
	out, err := execute(t, unalignedCard, "align", "--pad", "1", "-")
	if err != nil {
		t.Fatalf("align error = %v", err)
	}
	if !strings.Contains(out, "process  sig\n") {
		t.Errorf("align --pad 1 output:\n%s", out)
	}

	if _, err := execute(t, unalignedCard, "align", "--pad", "0", "-"); err == nil {
		t.Error("align --pad 0 should fail validation")
	}
}

func TestAlignMissingSection(t *testing.T) {
	_, err := execute(t, "imax 1\njmax 1\nkmax 1\n---\nbin b1\n", "align", "-")
	if err == nil || !strings.Contains(err.Error(), "block not found") {
		t.Errorf("align error = %v, want a missing block error", err)
	}
}

func TestLint(t *testing.T) {
	out, err := execute(t, unalignedCard, "lint", "-")
	if err != nil {
		t.Fatalf("lint error = %v", err)
	}
	if !strings.Contains(out, "[misaligned]") {
		t.Errorf("lint output = %q, want a misaligned finding", out)
	}
}

func TestLintScript(t *testing.T) {
	script := filepath.Join(t.TempDir(), "no-sig.lua")
	code := `function check(line)
  if line.section == "Processes" and line.tokens[1] == "process" then
    return "no background process", "error"
  end
  return nil
end
`
	if err := os.WriteFile(script, []byte(code), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, alignedCard, "lint", "--script", script, "-")
	if err == nil {
		t.Error("lint with an error finding should fail")
	}
	if !strings.Contains(out, "-:9: error [no-sig] no background process") {
		t.Errorf("lint output = %q, want the script finding", out)
	}
}

func TestHighlightNoop(t *testing.T) {
	out, err := execute(t, alignedCard, "highlight", "--formatter", "noop", "-")
	if err != nil {
		t.Fatalf("highlight error = %v", err)
	}
	if out != alignedCard {
		t.Errorf("noop highlight output = %q, want the input unchanged", out)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(cfgPath, []byte("[align]\npad = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, unalignedCard, "--config", cfgPath, "align", "-")
	if err != nil {
		t.Fatalf("align error = %v", err)
	}
	if !strings.Contains(out, "process  sig\n") {
		t.Errorf("align with pad 1 from config:\n%s", out)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	if _, err := execute(t, "", "--log-level", "loud", "version"); err == nil {
		t.Error("an unknown log level should fail")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "datacard dev") {
		t.Errorf("version output = %q", out)
	}
}
