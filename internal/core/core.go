// Package core runs the front end's event loop.
//
// A Core owns the engine transport, the pending request table, the view
// registry and every view's document. All of them are touched only from
// the goroutine running Run: engine output, host input and timers reach it
// over channels. Host callbacks (TabHost, Redrawer) are invoked on that
// goroutine too.
package core

import (
	"context"
	"errors"
	"io"
	"time"

	"pkt.systems/pslog"

	"github.com/dshills/xifront/internal/dispatch"
	"github.com/dshills/xifront/internal/keymap"
	"github.com/dshills/xifront/internal/linecache"
	"github.com/dshills/xifront/internal/logx"
	"github.com/dshills/xifront/internal/rpc"
	"github.com/dshills/xifront/internal/view"
)

// Process is a running engine.
type Process interface {
	Stdin() io.WriteCloser
	Stdout() io.ReadCloser
	Done() <-chan struct{}
}

// Spawner starts an engine process.
type Spawner interface {
	Spawn(ctx context.Context) (Process, error)
}

// SpawnFunc adapts a function to Spawner.
type SpawnFunc func(ctx context.Context) (Process, error)

// Spawn calls f.
func (f SpawnFunc) Spawn(ctx context.Context) (Process, error) {
	return f(ctx)
}

// TabHost creates and destroys the tabs that show views.
type TabHost interface {
	CreateTab(viewID, path string) (view.TabID, error)
	DestroyTab(tab view.TabID)
	// CycleTab moves the selection delta tabs forward.
	CycleTab(delta int)
}

// Redrawer is told when a view's content or position changed.
type Redrawer interface {
	ViewOpened(e *view.Entry)
	Redraw(e *view.Entry, change linecache.Change)
	// ScrollTo places the cursor at line, col. The window has already
	// been moved so that line is visible.
	ScrollTo(e *view.Entry, line, col int)
}

// Clipboard receives cut and copy results and supplies pasted text.
type Clipboard interface {
	WriteText(text string) error
	ReadText() (string, error)
}

// Options configures a Core.
type Options struct {
	Tabs      TabHost
	Redraw    Redrawer
	Clipboard Clipboard
	Keymap    *keymap.Keymap
	Log       pslog.Logger

	// Height is the initial window height in lines.
	Height int
	// ScrollMargin extends each scroll request by this many lines above
	// and below the window.
	ScrollMargin int
	// StaleAfter is the age at which an unanswered request is logged.
	// Zero disables the check.
	StaleAfter time.Duration
	// MaxRefetch bounds how often one window is re-requested because it
	// still has unknown lines after an update.
	MaxRefetch int
}

// Core is the event loop and the state it owns.
type Core struct {
	tr      *rpc.Transport
	pending *rpc.PendingTable
	views   *view.Registry
	disp    *dispatch.Dispatcher

	tabs   TabHost
	redraw Redrawer
	clip   Clipboard
	keys   *keymap.Keymap
	log    pslog.Logger
	opts   Options

	events chan Event
	done   chan struct{}
	fatal  error

	height  int
	refetch map[string]int
	stale   map[rpc.RequestID]bool
	stats   *stats
}

// New creates a core talking to an engine over r and w. c is closed with
// the transport and may be nil.
func New(r io.Reader, w io.Writer, c io.Closer, opts Options) *Core {
	if opts.Keymap == nil {
		opts.Keymap = keymap.Default()
	}
	if opts.Log == nil {
		opts.Log = logx.Discard()
	}
	if opts.MaxRefetch <= 0 {
		opts.MaxRefetch = 2
	}

	core := &Core{
		tr:      rpc.NewTransport(r, w, c),
		pending: rpc.NewPendingTable(),
		views:   view.NewRegistry(),
		tabs:    opts.Tabs,
		redraw:  opts.Redraw,
		clip:    opts.Clipboard,
		keys:    opts.Keymap,
		log:     opts.Log,
		opts:    opts,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
		height:  opts.Height,
		refetch: make(map[string]int),
		stale:   make(map[rpc.RequestID]bool),
		stats:   newStats(),
	}
	core.disp = dispatch.New(core.pending, core.views, (*hostAdapter)(core), opts.Log)
	return core
}

// NewWithProcess creates a core bound to a spawned engine.
func NewWithProcess(p Process, opts Options) *Core {
	return New(p.Stdout(), p.Stdin(), p.Stdin(), opts)
}

// Post hands an event to the loop. It blocks while the queue is full and
// fails once the loop has ended.
func (c *Core) Post(ev Event) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}
	select {
	case c.events <- ev:
		return nil
	case <-c.done:
		return ErrStopped
	}
}

// Done is closed when Run returns.
func (c *Core) Done() <-chan struct{} {
	return c.done
}

// Run processes engine output and host events until ctx ends, the user
// quits, or the engine connection fails. A quit returns nil; a lost engine
// returns the transport error.
func (c *Core) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.tr.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte, 64)
	readErr := make(chan error, 1)
	go func() {
		readErr <- c.tr.ReadLines(ctx, lines)
	}()

	var staleC <-chan time.Time
	if c.opts.StaleAfter > 0 {
		t := time.NewTicker(c.opts.StaleAfter / 2)
		defer t.Stop()
		staleC = t.C
	}

	for {
		var err error
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line := <-lines:
			c.HandleLine(line)

		case err = <-readErr:
			// Lines read before the failure are still queued.
			for len(lines) > 0 {
				c.HandleLine(<-lines)
			}
			c.log.Error("engine connection lost", "error", err)
			return err

		case ev := <-c.events:
			err = c.HandleEvent(ev)

		case <-staleC:
			c.checkStale()
		}

		if errors.Is(err, ErrQuit) {
			return nil
		}
		if c.fatal != nil {
			c.log.Error("engine connection lost", "error", c.fatal)
			return c.fatal
		}
	}
}

// HandleLine dispatches one line of engine output. Rejected lines are
// logged and counted; they never stop the loop.
func (c *Core) HandleLine(line []byte) {
	c.stats.received()
	if err := c.disp.Dispatch(line); err != nil {
		c.reject(err)
	}
}

func (c *Core) reject(err error) {
	var pe *dispatch.ProtocolError
	if !errors.As(err, &pe) {
		c.log.Warn("engine message rejected", "error", err)
		return
	}
	c.stats.rejected(pe.Kind)

	fields := []any{"kind", pe.Kind.String()}
	if pe.Method != "" {
		fields = append(fields, "method", pe.Method)
	}
	if pe.ID != nil {
		fields = append(fields, "id", uint64(*pe.ID))
	}
	if pe.ViewID != "" {
		fields = append(fields, "view", pe.ViewID)
	}
	if pe.Raw != "" {
		fields = append(fields, "raw", truncate(pe.Raw, 512))
	}
	if pe.Err != nil {
		fields = append(fields, "error", pe.Err.Error())
	}
	if pe.Kind == dispatch.KindEngineError {
		c.log.Warn("engine request failed", fields...)
		return
	}
	c.log.Warn("engine message rejected", fields...)
}

// sent records a send failure. Transport failures end the session.
func (c *Core) sent(err error) error {
	if err != nil && rpc.IsFatal(err) && c.fatal == nil {
		c.fatal = err
	}
	return err
}

func (c *Core) checkStale() {
	live := make(map[rpc.RequestID]bool)
	for _, info := range c.pending.Stale(c.opts.StaleAfter) {
		live[info.ID] = true
		if c.stale[info.ID] {
			continue
		}
		c.stats.staleRequest()
		c.log.Warn("engine request unanswered",
			"id", uint64(info.ID),
			"intent", info.Intent.String(),
			"view", info.ViewID,
			"age", info.Age.Round(time.Millisecond).String())
	}
	c.stale = live
}

// Stats returns the session counters.
func (c *Core) Stats() Stats {
	s := c.stats.snapshot()
	s.Pending = c.pending.Len()
	s.Views = c.views.Len()
	return s
}

// Views returns the open views' ids in sorted order.
func (c *Core) Views() []string {
	return c.views.Views()
}

// Entry returns the view shown in tab.
func (c *Core) Entry(tab view.TabID) (*view.Entry, bool) {
	return c.views.ByTab(tab)
}

// Pending lists the outstanding requests.
func (c *Core) Pending() []rpc.PendingInfo {
	return c.pending.Snapshot()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
