package lint

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/datacard/internal/align"
	"github.com/dshills/datacard/internal/datacard"
)

// CheckFunction is the global a rule script must define.
const CheckFunction = "check"

// Rule is a user check written in Lua. A Rule must not be used from several
// goroutines at once. The script defines
//
//	function check(line)
//	  -- line.number (1-based), line.text, line.section, line.tokens
//	  return nil                      -- no finding
//	  return "message"                -- warning
//	  return "message", "error"       -- explicit severity
//	end
type Rule struct {
	name  string
	state *State
}

// NewRule loads a rule from source. name identifies it in diagnostics.
func NewRule(ctx context.Context, name, code string, opts ...StateOption) (*Rule, error) {
	state := NewState(opts...)
	if err := state.DoString(ctx, code); err != nil {
		state.Close()
		return nil, &RuleError{Script: name, Line: -1, Err: err}
	}
	return newRule(name, state)
}

// LoadRule loads a rule from a file.
func LoadRule(ctx context.Context, name, path string, opts ...StateOption) (*Rule, error) {
	state := NewState(opts...)
	if err := state.DoFile(ctx, path); err != nil {
		state.Close()
		return nil, &RuleError{Script: name, Line: -1, Err: err}
	}
	return newRule(name, state)
}

func newRule(name string, state *State) (*Rule, error) {
	if state.GetGlobal(CheckFunction).Type() != lua.LTFunction {
		state.Close()
		return nil, &RuleError{Script: name, Line: -1, Err: ErrNoCheckFunction}
	}
	return &Rule{name: name, state: state}, nil
}

// Name returns the rule name.
func (r *Rule) Name() string {
	return r.name
}

// Close releases the rule's Lua state.
func (r *Rule) Close() error {
	return r.state.Close()
}

// Check runs the rule over every non-blank line of doc.
func (r *Rule) Check(ctx context.Context, doc datacard.Document, an *datacard.Analysis) ([]Diagnostic, error) {
	var diags []Diagnostic
	for i := 0; i < doc.LineCount(); i++ {
		text := doc.LineText(i)
		if datacard.IsBlank(text) {
			continue
		}

		arg := r.lineTable(i, text, an.Section(i))
		ret, err := r.state.Call(ctx, CheckFunction, arg)
		if err != nil {
			return diags, &RuleError{Script: r.name, Line: i, Err: err}
		}
		if len(ret) == 0 || ret[0] == lua.LNil || ret[0] == lua.LFalse {
			continue
		}

		severity := SeverityWarning
		if len(ret) > 1 && ret[1].Type() == lua.LTString {
			severity = ParseSeverity(ret[1].String())
		}
		diags = append(diags, Diagnostic{
			StartLine: i,
			EndLine:   i,
			Severity:  severity,
			Code:      r.name,
			Message:   lua.LVAsString(ret[0]),
		})
	}
	return diags, nil
}

// lineTable builds the argument passed to check.
func (r *Rule) lineTable(i int, text string, section datacard.Section) *lua.LTable {
	L := r.state.L
	t := L.NewTable()
	t.RawSetString("number", lua.LNumber(i+1))
	t.RawSetString("text", lua.LString(text))
	t.RawSetString("section", lua.LString(section.String()))

	tokens := L.NewTable()
	for _, s := range align.Tokenize(text) {
		tokens.Append(lua.LString(text[s.Start:s.End]))
	}
	t.RawSetString("tokens", tokens)
	return t
}

// String returns the rule name.
func (r *Rule) String() string {
	return fmt.Sprintf("lua rule %s", r.name)
}
