package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// mockPipe creates a unidirectional pipe for testing.
type mockPipe struct {
	reader *io.PipeReader
	writer *io.PipeWriter
}

func newMockPipe() *mockPipe {
	r, w := io.Pipe()
	return &mockPipe{reader: r, writer: w}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func decodeLines(t *testing.T, data string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSuffix(data, "\n"), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line %q is not JSON: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestTransport_RequestAllocatesIncreasingIDs(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTransport(strings.NewReader(""), &buf, nil)

	for want := RequestID(0); want < 3; want++ {
		id, err := tr.Request("new_view", map[string]string{})
		if err != nil {
			t.Fatalf("Request() error = %v", err)
		}
		if id != want {
			t.Errorf("Request() id = %d, want %d", id, want)
		}
	}

	msgs := decodeLines(t, buf.String())
	if len(msgs) != 3 {
		t.Fatalf("got %d lines, want 3", len(msgs))
	}
	for i, m := range msgs {
		if m["id"] != float64(i) {
			t.Errorf("line %d id = %v, want %d", i, m["id"], i)
		}
		if m["method"] != "new_view" {
			t.Errorf("line %d method = %v", i, m["method"])
		}
	}
	if tr.PeekNextID() != 3 {
		t.Errorf("PeekNextID() = %d, want 3", tr.PeekNextID())
	}
}

func TestTransport_NotifyOmitsID(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTransport(strings.NewReader(""), &buf, nil)

	if err := tr.Notify("close_view", map[string]string{"view_id": "view-id-1"}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("notification is not newline terminated")
	}
	m := decodeLines(t, buf.String())[0]
	if _, ok := m["id"]; ok {
		t.Errorf("notification carries an id: %v", m)
	}
	if m["method"] != "close_view" {
		t.Errorf("method = %v", m["method"])
	}
	if tr.PeekNextID() != 0 {
		t.Error("notification advanced the id counter")
	}
}

func TestTransport_WriteFailureIsFatal(t *testing.T) {
	tr := NewTransport(strings.NewReader(""), failingWriter{}, nil)

	_, err := tr.Request("new_view", nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Request() error = %v, want *TransportError", err)
	}
	if !IsFatal(err) {
		t.Error("IsFatal() = false for a write failure")
	}
	if !tr.IsClosed() {
		t.Error("transport still open after a write failure")
	}
	if err := tr.Notify("edit", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Notify() after failure = %v, want ErrClosed", err)
	}
}

func TestTransport_FailedBuildDoesNotConsumeID(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTransport(strings.NewReader(""), &buf, nil)

	_, err := tr.RequestRaw(func(RequestID) ([]byte, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("RequestRaw() error = nil")
	}
	id, err := tr.Request("new_view", nil)
	if err != nil || id != 0 {
		t.Errorf("Request() = %d, %v; want 0, nil", id, err)
	}
}

func TestTransport_ReadLines(t *testing.T) {
	in := newMockPipe()
	tr := NewTransport(in.reader, io.Discard, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out := make(chan []byte, 4)
	done := make(chan error, 1)
	go func() { done <- tr.ReadLines(ctx, out) }()

	go func() {
		io.WriteString(in.writer, "{\"id\":0,\"result\":\"view-id-1\"}\n\n")
		io.WriteString(in.writer, "  {\"method\":\"update\"}  \n")
		in.writer.Close()
	}()

	var got []string
	for i := 0; i < 2; i++ {
		select {
		case line := <-out:
			got = append(got, string(line))
		case <-ctx.Done():
			t.Fatal("timed out waiting for lines")
		}
	}
	if got[0] != `{"id":0,"result":"view-id-1"}` || got[1] != `{"method":"update"}` {
		t.Errorf("lines = %q", got)
	}

	if err := <-done; !errors.Is(err, ErrEngineExited) {
		t.Errorf("ReadLines() = %v, want ErrEngineExited", err)
	}
}

func TestTransport_ReadLinesCancel(t *testing.T) {
	in := newMockPipe()
	defer in.writer.Close()
	tr := NewTransport(in.reader, io.Discard, nil)
	ctx, cancel := context.WithCancel(context.Background())

	out := make(chan []byte)
	done := make(chan error, 1)
	go func() { done <- tr.ReadLines(ctx, out) }()

	written := make(chan struct{})
	go func() {
		io.WriteString(in.writer, "{\"method\":\"update\"}\n")
		close(written)
	}()
	<-written
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("ReadLines() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLines did not return after cancel")
	}
}

func TestParseRPCError(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"code":-32601,"message":"method not found"}`, "engine error -32601: method not found"},
		{`"no such file"`, "engine error: no such file"},
		{`[1,2]`, "engine error: [1,2]"},
	}
	for _, tt := range tests {
		if got := ParseRPCError([]byte(tt.raw)).Error(); got != tt.want {
			t.Errorf("ParseRPCError(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
