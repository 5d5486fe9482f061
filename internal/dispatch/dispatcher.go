// Package dispatch routes inbound engine messages.
//
// Each line from the engine is either a method invocation (it has a
// "method" key) or a response to one of our requests (it has an "id" key).
// Dispatch keeps no state of its own between lines: responses are matched
// through the rpc.PendingTable and notifications are applied to the views
// in the view.Registry.
package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
	"pkt.systems/pslog"

	"github.com/dshills/xifront/internal/linecache"
	"github.com/dshills/xifront/internal/rpc"
	"github.com/dshills/xifront/internal/view"
)

// Host is the GUI side of the dispatcher.
type Host interface {
	// OpenTab creates the tab that will show a newly created view.
	OpenTab(viewID, path string) (view.TabID, error)
	// CloseTab destroys a tab that could not be bound to its view.
	CloseTab(tab view.TabID)
	// ViewOpened is called once the view is registered.
	ViewOpened(e *view.Entry)
	// ViewUpdated is called after an update batch was applied.
	ViewUpdated(e *view.Entry, change linecache.Change)
	// ScrollTo asks the host to bring a position into view.
	ScrollTo(e *view.Entry, line, col int)
	// ViewSaved is called when the engine confirms a save. e.FilePath
	// already holds the saved path.
	ViewSaved(e *view.Entry)
	// ClipboardText receives the result of a cut or copy request.
	ClipboardText(p rpc.Pending, text string) error
}

type methodFunc func(d *Dispatcher, params gjson.Result) error

// methods is the fixed table of engine methods acted on.
var methods = map[string]methodFunc{
	"update":    (*Dispatcher).handleUpdate,
	"scroll_to": (*Dispatcher).handleScrollTo,
}

// ignoredMethods are engine methods with no bearing on a plain-text front
// end. They are accepted silently.
var ignoredMethods = map[string]bool{
	"def_style":           true,
	"available_themes":    true,
	"theme_changed":       true,
	"available_languages": true,
	"language_changed":    true,
	"config_changed":      true,
	"available_plugins":   true,
	"plugin_started":      true,
	"plugin_stopped":      true,
	"update_cmds":         true,
}

// Methods returns the names of the engine methods acted on.
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatcher routes inbound lines.
type Dispatcher struct {
	pending *rpc.PendingTable
	views   *view.Registry
	host    Host
	log     pslog.Logger
}

// New creates a dispatcher.
func New(pending *rpc.PendingTable, views *view.Registry, host Host, log pslog.Logger) *Dispatcher {
	return &Dispatcher{
		pending: pending,
		views:   views,
		host:    host,
		log:     log,
	}
}

// Dispatch handles one inbound line. A non-nil error is always a
// *ProtocolError; the line has been discarded and the session can go on.
func (d *Dispatcher) Dispatch(line []byte) error {
	if !gjson.ValidBytes(line) {
		return &ProtocolError{Kind: KindMalformedJSON, Raw: string(line), Err: errors.New("invalid JSON")}
	}
	root := gjson.ParseBytes(line)
	if !root.IsObject() {
		return &ProtocolError{Kind: KindMalformedJSON, Raw: string(line), Err: errors.New("not a JSON object")}
	}

	if m := root.Get("method"); m.Exists() {
		return d.dispatchMethod(m, root.Get("params"), line)
	}
	return d.dispatchResponse(root, line)
}

func (d *Dispatcher) dispatchMethod(m, params gjson.Result, line []byte) error {
	if m.Type != gjson.String {
		return &ProtocolError{Kind: KindUnknownMethod, Raw: string(line), Err: errors.New("method is not a string")}
	}
	name := m.Str

	fn, ok := methods[name]
	if !ok {
		if ignoredMethods[name] {
			d.log.Debug("engine method ignored", "method", name)
			return nil
		}
		return &ProtocolError{Kind: KindUnknownMethod, Method: name, Raw: string(line)}
	}
	if !params.Exists() || !params.IsObject() {
		return &ProtocolError{Kind: KindBadParams, Method: name, Raw: params.Raw, Err: errors.New("params missing or not an object")}
	}
	if err := fn(d, params); err != nil {
		var pe *ProtocolError
		if errors.As(err, &pe) {
			pe.Method = name
			if pe.Raw == "" {
				pe.Raw = params.Raw
			}
			return pe
		}
		return &ProtocolError{Kind: KindBadParams, Method: name, Raw: params.Raw, Err: err}
	}
	return nil
}

type updateParams struct {
	ViewID string `json:"view_id"`
	Update struct {
		Ops json.RawMessage `json:"ops"`
	} `json:"update"`
}

func (d *Dispatcher) handleUpdate(params gjson.Result) error {
	var p updateParams
	if err := json.Unmarshal([]byte(params.Raw), &p); err != nil {
		return &ProtocolError{Kind: KindBadParams, Err: err}
	}
	if p.ViewID == "" {
		return &ProtocolError{Kind: KindBadParams, Err: errors.New("missing view_id")}
	}
	if len(p.Update.Ops) == 0 {
		return &ProtocolError{Kind: KindBadParams, ViewID: p.ViewID, Err: errors.New("missing update.ops")}
	}

	e, ok := d.views.ByView(p.ViewID)
	if !ok {
		return &ProtocolError{Kind: KindUnknownView, ViewID: p.ViewID}
	}

	ops, err := linecache.DecodeOps(p.Update.Ops)
	if err != nil {
		return &ProtocolError{Kind: KindUpdateFailed, ViewID: p.ViewID, Err: err}
	}
	change, err := e.Doc.Apply(ops)
	if err != nil {
		return &ProtocolError{Kind: KindUpdateFailed, ViewID: p.ViewID, Err: err}
	}

	d.host.ViewUpdated(e, change)
	return nil
}

type scrollToParams struct {
	ViewID string `json:"view_id"`
	Line   *int   `json:"line"`
	Col    *int   `json:"col"`
}

func (d *Dispatcher) handleScrollTo(params gjson.Result) error {
	var p scrollToParams
	if err := json.Unmarshal([]byte(params.Raw), &p); err != nil {
		return &ProtocolError{Kind: KindBadParams, Err: err}
	}
	if p.ViewID == "" || p.Line == nil || p.Col == nil {
		return &ProtocolError{Kind: KindBadParams, ViewID: p.ViewID, Err: errors.New("scroll_to needs view_id, line and col")}
	}

	e, ok := d.views.ByView(p.ViewID)
	if !ok {
		return &ProtocolError{Kind: KindUnknownView, ViewID: p.ViewID}
	}
	d.host.ScrollTo(e, *p.Line, *p.Col)
	return nil
}

func (d *Dispatcher) dispatchResponse(root gjson.Result, line []byte) error {
	id, ok := coerceID(root.Get("id"))
	if !ok {
		return &ProtocolError{Kind: KindMissingID, Raw: string(line), Err: errors.New("message has neither method nor a usable id")}
	}

	result := root.Get("result")
	errVal := root.Get("error")

	p, err := d.pending.Resolve(id)
	if err != nil {
		return &ProtocolError{Kind: KindUnexpectedID, ID: &id, Raw: string(line), Err: err}
	}

	if result.Exists() && errVal.Exists() {
		return &ProtocolError{Kind: KindBadResult, ID: &id, ViewID: p.ViewID, Raw: string(line), Err: errors.New("response has both result and error")}
	}
	if errVal.Exists() {
		return &ProtocolError{
			Kind:   KindEngineError,
			Method: p.Intent.String(),
			ID:     &id,
			ViewID: p.ViewID,
			Raw:    errVal.Raw,
			Err:    rpc.ParseRPCError([]byte(errVal.Raw)),
		}
	}

	switch p.Intent {
	case rpc.IntentNewView:
		return d.viewCreated(id, p, result)
	case rpc.IntentCut, rpc.IntentCopy:
		return d.clipboardResult(id, p, result)
	case rpc.IntentSave:
		d.viewSaved(p)
		return nil
	default:
		return &ProtocolError{Kind: KindBadResult, ID: &id, Raw: result.Raw, Err: fmt.Errorf("no handler for %s", p.Intent)}
	}
}

func (d *Dispatcher) viewCreated(id rpc.RequestID, p rpc.Pending, result gjson.Result) error {
	if result.Type != gjson.String || result.Str == "" {
		return &ProtocolError{Kind: KindBadResult, Method: p.Intent.String(), ID: &id, Raw: result.Raw, Err: errors.New("new_view result is not a view id string")}
	}
	viewID := result.Str
	if _, exists := d.views.ByView(viewID); exists {
		return &ProtocolError{Kind: KindBadResult, Method: p.Intent.String(), ID: &id, ViewID: viewID, Err: view.ErrViewExists}
	}

	tab, err := d.host.OpenTab(viewID, p.FilePath)
	if err != nil {
		return &ProtocolError{Kind: KindHostFailed, Method: p.Intent.String(), ID: &id, ViewID: viewID, Err: err}
	}
	e, err := d.views.Add(viewID, tab, p.FilePath)
	if err != nil {
		d.host.CloseTab(tab)
		return &ProtocolError{Kind: KindHostFailed, Method: p.Intent.String(), ID: &id, ViewID: viewID, Err: err}
	}

	d.host.ViewOpened(e)
	return nil
}

// viewSaved records the path a view was saved to. A view closed since the
// request was sent has nothing to update.
func (d *Dispatcher) viewSaved(p rpc.Pending) {
	e, ok := d.views.ByView(p.ViewID)
	if !ok {
		return
	}
	e.FilePath = p.FilePath
	d.host.ViewSaved(e)
}

func (d *Dispatcher) clipboardResult(id rpc.RequestID, p rpc.Pending, result gjson.Result) error {
	switch result.Type {
	case gjson.Null:
		// Nothing was selected.
		return nil
	case gjson.String:
		if err := d.host.ClipboardText(p, result.Str); err != nil {
			return &ProtocolError{Kind: KindHostFailed, Method: p.Intent.String(), ID: &id, ViewID: p.ViewID, Err: err}
		}
		return nil
	default:
		return &ProtocolError{Kind: KindBadResult, Method: p.Intent.String(), ID: &id, ViewID: p.ViewID, Raw: result.Raw, Err: errors.New("clipboard result is not a string")}
	}
}

// coerceID converts a JSON id value to a RequestID. Non-negative integral
// numbers and decimal strings are accepted.
func coerceID(v gjson.Result) (rpc.RequestID, bool) {
	switch v.Type {
	case gjson.Number:
		if v.Num < 0 || v.Num != math.Trunc(v.Num) {
			return 0, false
		}
		return rpc.RequestID(v.Uint()), true
	case gjson.String:
		n, err := strconv.ParseUint(v.Str, 10, 64)
		if err != nil {
			return 0, false
		}
		return rpc.RequestID(n), true
	default:
		return 0, false
	}
}
