// Package loader reads configuration layers into generic maps.
//
// Each layer (a TOML file, the environment) yields a map[string]any keyed
// by section and setting name. Layers are combined with DeepMerge and
// decoded into typed configuration by the caller.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Loader is one configuration layer. Load returns nil, nil when the layer
// has nothing to contribute.
type Loader interface {
	Load() (map[string]any, error)
}

// File is a TOML file layer. An empty Path or a missing file contributes
// nothing.
type File struct {
	Path string
}

// Load reads and decodes the file.
func (f File) Load() (map[string]any, error) {
	if f.Path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return decode(f.Path, data)
}

// Decode reads TOML from r. name labels parse errors.
func Decode(name string, r io.Reader) (map[string]any, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return decode(name, buf.Bytes())
}

func decode(name string, data []byte) (map[string]any, error) {
	var m map[string]any
	err := toml.Unmarshal(data, &m)
	if err == nil {
		return m, nil
	}

	perr := &ParseError{Path: name, Err: err}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		perr.Line, perr.Column = derr.Position()
	}
	return nil, perr
}

// ParseError locates a TOML syntax error. Line and Column are 1-based and
// zero when unknown.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	pos := e.Path
	if e.Line > 0 {
		pos += fmt.Sprintf(":%d", e.Line)
		if e.Column > 0 {
			pos += fmt.Sprintf(":%d", e.Column)
		}
	}
	return fmt.Sprintf("parse error in %s: %v", pos, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DeepMerge merges src into dst and returns dst. Nested maps merge key by
// key; any other src value replaces the dst value.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, sv := range src {
		sm, srcIsMap := sv.(map[string]any)
		dm, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dm, sm)
			continue
		}
		dst[key] = sv
	}
	return dst
}
