package dispatch

import (
	"fmt"
	"strings"

	"github.com/dshills/xifront/internal/rpc"
)

// Kind classifies a rejected inbound message.
type Kind int

const (
	// KindMalformedJSON: the line is not a JSON object.
	KindMalformedJSON Kind = iota
	// KindUnknownMethod: the engine invoked a method this client does not handle.
	KindUnknownMethod
	// KindBadParams: a known method carried missing or malformed params.
	KindBadParams
	// KindMissingID: a non-method message has no usable id.
	KindMissingID
	// KindUnexpectedID: a response id matches no pending request.
	KindUnexpectedID
	// KindBadResult: a response result does not fit the request's intent.
	KindBadResult
	// KindEngineError: the engine answered a request with an error.
	KindEngineError
	// KindUnknownView: a notification addressed a view that is not open.
	KindUnknownView
	// KindUpdateFailed: an update batch was rejected; the view is unchanged.
	KindUpdateFailed
	// KindHostFailed: the host could not act on a valid message.
	KindHostFailed
)

var kindNames = map[Kind]string{
	KindMalformedJSON: "malformed_json",
	KindUnknownMethod: "unknown_method",
	KindBadParams:     "bad_params",
	KindMissingID:     "missing_id",
	KindUnexpectedID:  "unexpected_id",
	KindBadResult:     "bad_result",
	KindEngineError:   "engine_error",
	KindUnknownView:   "unknown_view",
	KindUpdateFailed:  "update_failed",
	KindHostFailed:    "host_failed",
}

// String returns the kind name used in logs and counters.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ProtocolError reports an inbound message that could not be acted on.
// None of these end the session.
type ProtocolError struct {
	Kind   Kind
	Method string
	ID     *rpc.RequestID
	ViewID string
	Raw    string
	Err    error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Method != "" {
		fmt.Fprintf(&b, " method=%s", e.Method)
	}
	if e.ID != nil {
		fmt.Fprintf(&b, " id=%d", *e.ID)
	}
	if e.ViewID != "" {
		fmt.Fprintf(&b, " view=%s", e.ViewID)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}
