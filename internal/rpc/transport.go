package rpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Transport handles newline-delimited JSON communication with the engine.
// Every outbound message is a single line of JSON followed by '\n'.
type Transport struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer

	// mu serializes id allocation and writes so ids reach the wire in order.
	mu     sync.Mutex
	nextID RequestID

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewTransport creates a transport reading engine output from r and writing
// engine input to w. The closer, if not nil, is closed by Close.
func NewTransport(r io.Reader, w io.Writer, c io.Closer) *Transport {
	return &Transport{
		reader: bufio.NewReaderSize(r, 64*1024),
		writer: w,
		closer: c,
	}
}

// Request sends a request and returns the id allocated for it. The caller
// registers the id with a PendingTable.
func (t *Transport) Request(method string, params any) (RequestID, error) {
	return t.RequestRaw(func(id RequestID) ([]byte, error) {
		return json.Marshal(&Request{ID: id, Method: method, Params: params})
	})
}

// RequestRaw allocates the next id, lets build encode the message for it,
// and writes the result. Used for request shapes other than Request.
func (t *Transport) RequestRaw(build func(id RequestID) ([]byte, error)) (RequestID, error) {
	if t.closed.Load() {
		return 0, ErrClosed
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	data, err := build(id)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}
	if err := t.writeLocked(data); err != nil {
		return 0, err
	}
	t.nextID++
	return id, nil
}

// Notify sends a notification. Notifications carry no id and are never
// tracked.
func (t *Transport) Notify(method string, params any) error {
	data, err := json.Marshal(&Notification{Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return t.Send(data)
}

// Send writes a pre-encoded JSON object as one line.
func (t *Transport) Send(data []byte) error {
	if t.closed.Load() {
		return ErrClosed
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeLocked(data)
}

func (t *Transport) writeLocked(data []byte) error {
	if bytes.IndexByte(data, '\n') >= 0 {
		return fmt.Errorf("message contains a raw newline")
	}

	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, data...)
	buf = append(buf, '\n')
	if _, err := t.writer.Write(buf); err != nil {
		// A broken pipe never recovers; refuse further writes.
		t.closed.Store(true)
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// ReadLines reads newline-delimited messages from the engine and forwards
// each non-empty line to out. It returns ErrEngineExited when the engine
// closes its output, ctx.Err() on cancellation, or a *TransportError.
func (t *Transport) ReadLines(ctx context.Context, out chan<- []byte) error {
	for {
		line, err := t.reader.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimSpace(line)
			if len(line) > 0 {
				select {
				case out <- line:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return ErrEngineExited
			}
			if t.closed.Load() {
				return ErrClosed
			}
			return &TransportError{Op: "read", Err: err}
		}
	}
}

// PeekNextID returns the id the next request will use.
func (t *Transport) PeekNextID() RequestID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextID
}

// Close closes the transport and its closer. Further sends fail with
// ErrClosed. A transport broken by a write failure still closes its closer.
func (t *Transport) Close() error {
	t.closed.Store(true)
	t.closeOnce.Do(func() {
		if t.closer != nil {
			t.closeErr = t.closer.Close()
		}
	})
	return t.closeErr
}

// IsClosed returns true if the transport has been closed or broken.
func (t *Transport) IsClosed() bool {
	return t.closed.Load()
}
