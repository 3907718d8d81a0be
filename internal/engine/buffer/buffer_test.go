package buffer

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer()

	if !b.IsEmpty() {
		t.Error("new buffer should be empty")
	}

	if b.LineCount() != 1 {
		t.Errorf("expected 1 line, got %d", b.LineCount())
	}
}

func TestNewBufferFromStringMultiline(t *testing.T) {
	b := NewBufferFromString("imax 1\r\njmax 1\nkmax *")

	if b.LineCount() != 3 {
		t.Fatalf("expected 3 lines, got %d", b.LineCount())
	}

	want := []string{"imax 1", "jmax 1", "kmax *"}
	for i, w := range want {
		if got := b.LineText(i); got != w {
			t.Errorf("line %d: expected %q, got %q", i, w, got)
		}
	}

	if b.LineText(3) != "" || b.LineText(-1) != "" {
		t.Error("out-of-range lines should be empty")
	}
}

func TestNewBufferFromReader(t *testing.T) {
	b, err := NewBufferFromReader(strings.NewReader("a\nb\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Trailing newline yields a final empty line.
	if b.LineCount() != 3 {
		t.Errorf("expected 3 lines, got %d", b.LineCount())
	}
	if b.Text() != "a\nb\n" {
		t.Errorf("expected round trip, got %q", b.Text())
	}
}

func TestBufferReplaceLines(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		end       int
		text      string
		want      string
		wantDelta int
	}{
		{"same size", 1, 2, "B\nC", "a\nB\nC\nd", 0},
		{"grow", 1, 1, "x\ny\nz", "a\nx\ny\nz\nc\nd", 2},
		{"shrink", 0, 2, "only", "only\nd", -2},
		{"whole", 0, 3, "", "", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBufferFromString("a\nb\nc\nd")
			res, err := b.ReplaceLines(tt.start, tt.end, tt.text)
			if err != nil {
				t.Fatalf("ReplaceLines failed: %v", err)
			}
			if b.Text() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, b.Text())
			}
			if res.Delta != tt.wantDelta {
				t.Errorf("expected delta %d, got %d", tt.wantDelta, res.Delta)
			}
			if res.OldRange != (LineRange{Start: tt.start, End: tt.end}) {
				t.Errorf("unexpected old range %v", res.OldRange)
			}
		})
	}
}

func TestBufferReplaceLinesOldText(t *testing.T) {
	b := NewBufferFromString("a\nb\nc")
	res, err := b.ReplaceLines(1, 2, "z")
	if err != nil {
		t.Fatalf("ReplaceLines failed: %v", err)
	}
	if res.OldText != "b\nc" {
		t.Errorf("expected old text %q, got %q", "b\nc", res.OldText)
	}
	if res.NewRange != (LineRange{Start: 1, End: 1}) {
		t.Errorf("unexpected new range %v", res.NewRange)
	}
}

func TestBufferReplaceLinesInvalid(t *testing.T) {
	b := NewBufferFromString("a\nb")
	rev := b.RevisionID()

	if _, err := b.ReplaceLines(1, 0, "x"); !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("expected ErrRangeInvalid, got %v", err)
	}
	if _, err := b.ReplaceLines(0, 2, "x"); !errors.Is(err, ErrLineOutOfRange) {
		t.Errorf("expected ErrLineOutOfRange, got %v", err)
	}
	if _, err := b.ReplaceLines(-1, 0, "x"); !errors.Is(err, ErrLineOutOfRange) {
		t.Errorf("expected ErrLineOutOfRange, got %v", err)
	}

	if b.RevisionID() != rev {
		t.Error("failed edits must not change the revision")
	}
	if b.Text() != "a\nb" {
		t.Errorf("buffer changed: %q", b.Text())
	}
}

func TestBufferRevisionID(t *testing.T) {
	b := NewBufferFromString("a")
	rev1 := b.RevisionID()

	b.ReplaceLines(0, 0, "b")
	rev2 := b.RevisionID()
	if rev1 == rev2 {
		t.Error("revision ID should change after replace")
	}

	rev3 := b.SetText("c")
	if rev3 == rev2 || rev3 != b.RevisionID() {
		t.Error("SetText should return the new revision")
	}
}

func TestBufferApplyEditAtStale(t *testing.T) {
	b := NewBufferFromString("a\nb")
	rev := b.RevisionID()

	b.ReplaceLines(0, 0, "x")

	_, err := b.ApplyEditAt(rev, NewLineEdit(1, 1, "y"))
	if !errors.Is(err, ErrStaleRevision) {
		t.Fatalf("expected ErrStaleRevision, got %v", err)
	}
	if b.Text() != "x\nb" {
		t.Errorf("stale edit must not apply, got %q", b.Text())
	}
}

func TestSnapshotIsolation(t *testing.T) {
	b := NewBufferFromString("a\nb\nc")
	snap := b.Snapshot()

	b.ReplaceLines(1, 1, "changed")

	if snap.LineText(1) != "b" {
		t.Errorf("snapshot changed: %q", snap.LineText(1))
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, snap.Lines()); diff != "" {
		t.Errorf("snapshot lines mismatch (-want +got):\n%s", diff)
	}
	if snap.RevisionID() == b.RevisionID() {
		t.Error("snapshot should keep its revision")
	}
}

func TestBufferUpdate(t *testing.T) {
	b := NewBufferFromString("bin a\nprocess s")

	changed, err := b.Update(func(s *Snapshot) (LineEdit, bool, error) {
		return NewLineEdit(1, 1, strings.ToUpper(s.LineText(1))), true, nil
	})
	if err != nil || !changed {
		t.Fatalf("Update = %v, %v", changed, err)
	}
	if b.LineText(1) != "PROCESS S" {
		t.Errorf("unexpected line %q", b.LineText(1))
	}

	rev := b.RevisionID()
	changed, err = b.Update(func(*Snapshot) (LineEdit, bool, error) {
		return LineEdit{}, false, nil
	})
	if err != nil || changed {
		t.Errorf("no-op Update = %v, %v", changed, err)
	}
	if b.RevisionID() != rev {
		t.Error("no-op Update must not bump the revision")
	}

	boom := errors.New("boom")
	if _, err := b.Update(func(*Snapshot) (LineEdit, bool, error) {
		return LineEdit{}, false, boom
	}); !errors.Is(err, boom) {
		t.Errorf("expected callback error, got %v", err)
	}
}

func TestBufferUpdateStale(t *testing.T) {
	b := NewBufferFromString("a\nb")

	_, err := b.Update(func(s *Snapshot) (LineEdit, bool, error) {
		// A write through another path while the transform runs.
		b.ReplaceLines(0, 0, "other")
		return NewLineEdit(1, 1, "mine"), true, nil
	})
	if !errors.Is(err, ErrStaleRevision) {
		t.Fatalf("expected ErrStaleRevision, got %v", err)
	}
	if b.Text() != "other\nb" {
		t.Errorf("unexpected text %q", b.Text())
	}
}

func TestBufferUpdateSerialized(t *testing.T) {
	b := NewBufferFromString("0")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.Update(func(s *Snapshot) (LineEdit, bool, error) {
				n := len(s.LineText(0))
				return NewLineEdit(0, 0, strings.Repeat("x", n+1)), true, nil
			})
			if err != nil {
				t.Errorf("Update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := len(b.LineText(0)); got != 51 {
		t.Errorf("expected 51 characters after serialized updates, got %d", got)
	}
}

func TestBufferConcurrentReadWrite(t *testing.T) {
	b := NewBufferFromString("Hello")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				b.ReplaceLines(0, 0, "X\nY")
				b.ReplaceLines(0, 1, "Z")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = b.Snapshot().Text()
				_ = b.LineCount()
			}
		}()
	}
	wg.Wait()
}

func TestBufferLineEnding(t *testing.T) {
	text := "a\r\nb\r\nc"
	b := NewBufferFromString(text, WithDetectedLineEnding(text))

	if b.LineEnding() != LineEndingCRLF {
		t.Errorf("expected CRLF, got %s", b.LineEnding())
	}
	if b.Text() != text {
		t.Errorf("expected %q, got %q", text, b.Text())
	}

	b.SetLineEnding(LineEndingLF)
	if b.Text() != "a\nb\nc" {
		t.Errorf("expected LF join, got %q", b.Text())
	}
}

func TestDetectLineEnding(t *testing.T) {
	tests := []struct {
		text string
		want LineEnding
	}{
		{"", LineEndingLF},
		{"a\nb", LineEndingLF},
		{"a\r\nb\r\nc\nd", LineEndingCRLF},
		{"a\rb\rc", LineEndingCR},
		{"a\nb\nc\r\n", LineEndingLF},
	}

	for _, tt := range tests {
		if got := DetectLineEnding(tt.text); got != tt.want {
			t.Errorf("DetectLineEnding(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestSnapshotUTF16(t *testing.T) {
	b := NewBufferFromString("bin 😀 ch1")
	snap := b.Snapshot()

	// "bin " is 4 bytes; the emoji is 4 bytes and two UTF-16 units.
	p := snap.PointToUTF16(Point{Line: 0, Column: 8})
	if p != (PointUTF16{Line: 0, Column: 6}) {
		t.Errorf("PointToUTF16 = %v", p)
	}

	back := snap.PointFromUTF16(PointUTF16{Line: 0, Column: 6})
	if back != (Point{Line: 0, Column: 8}) {
		t.Errorf("PointFromUTF16 = %v", back)
	}

	clamped := snap.PointFromUTF16(PointUTF16{Line: 0, Column: 100})
	if clamped.Column != len("bin 😀 ch1") {
		t.Errorf("expected clamp to line end, got %v", clamped)
	}
}
