package watcher

import (
	"testing"
	"time"
)

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpCreate, "CREATE"},
		{OpWrite, "WRITE"},
		{OpRemove, "REMOVE"},
		{OpRename, "RENAME"},
		{OpCreate | OpWrite, "CREATE|WRITE"},
		{0, "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Op(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestOpHas(t *testing.T) {
	op := OpCreate | OpWrite
	if !op.Has(OpCreate) || !op.Has(OpWrite) {
		t.Error("combined op should have both parts")
	}
	if op.Has(OpRemove) {
		t.Error("combined op should not have OpRemove")
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.DebounceDelay != 200*time.Millisecond {
		t.Errorf("DebounceDelay = %v, want 200ms", c.DebounceDelay)
	}
	if c.BufferSize != 100 {
		t.Errorf("BufferSize = %d, want 100", c.BufferSize)
	}
	if !c.IgnoreHidden {
		t.Error("IgnoreHidden should default to true")
	}
}

func TestOptions(t *testing.T) {
	c := DefaultConfig()
	for _, opt := range []Option{
		WithDebounceDelay(time.Second),
		WithBufferSize(7),
		WithExtensions([]string{".card"}),
		WithIgnoreHidden(false),
	} {
		opt(&c)
	}

	if c.DebounceDelay != time.Second || c.BufferSize != 7 || c.IgnoreHidden {
		t.Errorf("options not applied: %+v", c)
	}
	if len(c.Extensions) != 1 || c.Extensions[0] != ".card" {
		t.Errorf("Extensions = %v, want [.card]", c.Extensions)
	}
}

func TestConfigMatches(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		path   string
		want   bool
	}{
		{"txt", DefaultConfig(), "/cards/hzz.txt", true},
		{"dc upper case", DefaultConfig(), "/cards/hzz.DC", true},
		{"other extension", DefaultConfig(), "/cards/hzz.root", false},
		{"no extension", DefaultConfig(), "/cards/README", false},
		{"hidden", DefaultConfig(), "/cards/.hzz.txt", false},
		{"hidden allowed", Config{Extensions: []string{".txt"}}, "/cards/.hzz.txt", true},
		{"any extension", Config{}, "/cards/anything.bin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.Matches(tt.path); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
