// Package rpc implements the wire transport to the editing engine.
//
// The engine speaks newline-delimited JSON over its standard streams:
//
//	request:      {"id": 3, "method": "new_view", "params": {...}}
//	notification: {"method": "edit", "params": {...}}
//	response:     {"id": 3, "result": ...} or {"id": 3, "error": ...}
//
// Responses arrive asynchronously and in any order. Transport allocates ids
// and writes messages; PendingTable remembers what each outstanding id asked
// for so the response can be interpreted when it arrives. Neither type
// decides what an inbound line means; that is the dispatch package's job.
package rpc
