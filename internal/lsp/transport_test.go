package lsp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func TestTransport_Read(t *testing.T) {
	input := frame(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`) +
		frame(`{"jsonrpc":"2.0","method":"initialized"}`)
	tr := NewTransport(strings.NewReader(input), io.Discard)

	msg, err := tr.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if msg.Method != "initialize" || !msg.IsRequest() {
		t.Errorf("first message = %+v, want initialize request", msg)
	}

	msg, err = tr.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if msg.Method != "initialized" || msg.IsRequest() {
		t.Errorf("second message = %+v, want initialized notification", msg)
	}

	if _, err := tr.Read(); err != io.EOF {
		t.Errorf("Read() at end error = %v, want io.EOF", err)
	}
}

func TestTransport_ReadExtraHeaders(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"x"}`
	input := fmt.Sprintf("Content-Type: application/vscode-jsonrpc; charset=utf-8\r\ncontent-length: %d\r\n\r\n%s", len(body), body)
	tr := NewTransport(strings.NewReader(input), io.Discard)

	msg, err := tr.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if msg.Method != "x" {
		t.Errorf("Method = %q, want %q", msg.Method, "x")
	}
}

func TestTransport_ReadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing length", "X-Other: 1\r\n\r\n{}"},
		{"bad length", "Content-Length: abc\r\n\r\n{}"},
		{"bad json", frame(`{not json`)},
		{"no method", frame(`{"jsonrpc":"2.0","id":1}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransport(strings.NewReader(tt.input), io.Discard)
			_, err := tr.Read()
			if !errors.Is(err, ErrInvalidMessage) {
				t.Errorf("Read() error = %v, want ErrInvalidMessage", err)
			}
		})
	}
}

func TestTransport_ReadTruncatedBody(t *testing.T) {
	tr := NewTransport(strings.NewReader("Content-Length: 50\r\n\r\n{}"), io.Discard)
	_, err := tr.Read()
	if err == nil || err == io.EOF {
		t.Errorf("Read() error = %v, want a read error", err)
	}
}

func TestTransport_Reply(t *testing.T) {
	var out bytes.Buffer
	tr := NewTransport(strings.NewReader(""), &out)

	if err := tr.Reply(json.RawMessage(`7`), map[string]int{"n": 1}); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	back := NewTransport(&out, io.Discard)
	body, err := back.readMessage()
	if err != nil {
		t.Fatalf("readMessage() error = %v", err)
	}
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(resp.ID) != "7" {
		t.Errorf("ID = %s, want 7", resp.ID)
	}
	if string(resp.Result) != `{"n":1}` {
		t.Errorf("Result = %s, want {\"n\":1}", resp.Result)
	}
}

func TestTransport_ReplyNullResult(t *testing.T) {
	var out bytes.Buffer
	tr := NewTransport(strings.NewReader(""), &out)

	if err := tr.Reply(json.RawMessage(`1`), nil); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if !strings.Contains(out.String(), `"result":null`) {
		t.Errorf("output %q should carry a null result", out.String())
	}
}

func TestTransport_ReplyErrorWithoutID(t *testing.T) {
	var out bytes.Buffer
	tr := NewTransport(strings.NewReader(""), &out)

	if err := tr.ReplyError(nil, &RPCError{Code: CodeParseError, Message: "bad"}); err != nil {
		t.Fatalf("ReplyError() error = %v", err)
	}
	s := out.String()
	if !strings.Contains(s, `"id":null`) {
		t.Errorf("output %q should carry a null id", s)
	}
	if !strings.Contains(s, `"code":-32700`) {
		t.Errorf("output %q should carry the parse error code", s)
	}
}

func TestRPCError(t *testing.T) {
	err := &RPCError{Code: CodeMethodNotFound, Message: "nope"}
	if got, want := err.Error(), "rpc error -32601: nope"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if got := toRPCError(fmt.Errorf("wrap: %w", err)); got != err {
		t.Errorf("toRPCError should unwrap an RPCError, got %v", got)
	}
	if got := toRPCError(ErrDocumentNotOpen); got.Code != CodeInvalidParams {
		t.Errorf("toRPCError(ErrDocumentNotOpen).Code = %d, want %d", got.Code, CodeInvalidParams)
	}
	if got := toRPCError(errors.New("boom")); got.Code != CodeRequestFailed {
		t.Errorf("toRPCError(other).Code = %d, want %d", got.Code, CodeRequestFailed)
	}
}
