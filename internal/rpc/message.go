package rpc

import "encoding/json"

// RequestID identifies an outstanding request. Ids increase strictly for the
// lifetime of a Transport and are never reused.
type RequestID uint64

// Request is an outbound message that expects a response.
type Request struct {
	ID     RequestID `json:"id"`
	Method string    `json:"method"`
	Params any       `json:"params"`
}

// Notification is an outbound message with no response.
type Notification struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

// Response is an inbound reply to a Request. At most one of Result and
// Error is set.
type Response struct {
	ID     RequestID       `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// ParseRPCError decodes an engine error value. Objects are decoded into the
// code/message shape; anything else is kept verbatim.
func ParseRPCError(raw []byte) *RPCError {
	var e RPCError
	if err := json.Unmarshal(raw, &e); err == nil && (e.Code != 0 || e.Message != "") {
		return &e
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &RPCError{Raw: s}
	}
	return &RPCError{Raw: string(raw)}
}
