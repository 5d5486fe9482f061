package edit

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/dshills/xifront/internal/rpc"
)

// ErrNoView is returned when an edit is addressed to no view.
var ErrNoView = errors.New("edit without a view id")

// Envelope encodes cmd for viewID. When id is not nil the envelope is a
// request carrying that id; otherwise it is a notification.
func Envelope(viewID string, cmd Command, id *rpc.RequestID) ([]byte, error) {
	if viewID == "" {
		return nil, ErrNoView
	}

	msg := []byte(`{}`)
	var err error
	if id != nil {
		if msg, err = sjson.SetBytes(msg, "id", uint64(*id)); err != nil {
			return nil, err
		}
	}
	if msg, err = sjson.SetBytes(msg, "method", "edit"); err != nil {
		return nil, err
	}
	if msg, err = sjson.SetBytes(msg, "view_id", viewID); err != nil {
		return nil, err
	}
	if msg, err = sjson.SetBytes(msg, "params.method", string(cmd.Name)); err != nil {
		return nil, err
	}
	if cmd.Params != nil {
		raw, err := json.Marshal(cmd.Params)
		if err != nil {
			return nil, fmt.Errorf("marshal %s params: %w", cmd.Name, err)
		}
		if msg, err = sjson.SetRawBytes(msg, "params.params", raw); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

// Sender is the transport surface edits are written to.
type Sender interface {
	Send(data []byte) error
	RequestRaw(build func(id rpc.RequestID) ([]byte, error)) (rpc.RequestID, error)
}

// Notify sends cmd to viewID as a notification.
func Notify(s Sender, viewID string, cmd Command) error {
	data, err := Envelope(viewID, cmd, nil)
	if err != nil {
		return err
	}
	return s.Send(data)
}

// Request sends cmd to viewID as a request and returns its id. Used for
// commands whose result the caller needs, such as cut and copy.
func Request(s Sender, viewID string, cmd Command) (rpc.RequestID, error) {
	return s.RequestRaw(func(id rpc.RequestID) ([]byte, error) {
		return Envelope(viewID, cmd, &id)
	})
}
