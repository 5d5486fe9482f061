package rpc

import (
	"errors"
	"testing"
	"time"
)

func TestPendingTable_ResolveOnce(t *testing.T) {
	table := NewPendingTable()
	if err := table.Register(7, NewViewRequest("/tmp/a.txt")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", table.Len())
	}

	p, err := table.Resolve(7)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.Intent != IntentNewView || p.FilePath != "/tmp/a.txt" {
		t.Errorf("Resolve() = %+v", p)
	}
	if p.Sent.IsZero() {
		t.Error("Register did not stamp the send time")
	}

	_, err = table.Resolve(7)
	if !errors.Is(err, ErrUnexpectedResponse) {
		t.Errorf("second Resolve() error = %v, want ErrUnexpectedResponse", err)
	}
	if table.Len() != 0 {
		t.Errorf("Len() = %d after resolve, want 0", table.Len())
	}
}

func TestPendingTable_UnknownID(t *testing.T) {
	table := NewPendingTable()
	_, err := table.Resolve(42)
	if !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("Resolve() error = %v, want ErrUnexpectedResponse", err)
	}
	if got := err.Error(); got != "unexpected response id: 42" {
		t.Errorf("error text = %q", got)
	}
}

func TestPendingTable_DuplicateRegister(t *testing.T) {
	table := NewPendingTable()
	_ = table.Register(1, CutRequest("view-id-1"))
	if err := table.Register(1, CopyRequest("view-id-1")); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Register() error = %v, want ErrDuplicateID", err)
	}
	p, _ := table.Resolve(1)
	if p.Intent != IntentCut {
		t.Errorf("duplicate register replaced the entry: %v", p.Intent)
	}
}

func TestPendingTable_DiscardView(t *testing.T) {
	table := NewPendingTable()
	_ = table.Register(0, NewViewRequest(""))
	_ = table.Register(1, CutRequest("view-id-1"))
	_ = table.Register(2, CopyRequest("view-id-1"))
	_ = table.Register(3, SaveRequest("view-id-2", "/tmp/b"))

	if n := table.DiscardView("view-id-1"); n != 2 {
		t.Errorf("DiscardView() = %d, want 2", n)
	}
	if n := table.DiscardView(""); n != 0 {
		t.Errorf("DiscardView(\"\") = %d, want 0", n)
	}

	snap := table.Snapshot()
	if len(snap) != 2 || snap[0].ID != 0 || snap[1].ID != 3 {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestPendingTable_Stale(t *testing.T) {
	table := NewPendingTable()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	table.now = func() time.Time { return now }

	_ = table.Register(0, NewViewRequest(""))
	now = now.Add(time.Minute)
	_ = table.Register(1, NewViewRequest(""))
	now = now.Add(10 * time.Second)

	stale := table.Stale(30 * time.Second)
	if len(stale) != 1 || stale[0].ID != 0 {
		t.Fatalf("Stale() = %+v", stale)
	}
	if stale[0].Age != 70*time.Second {
		t.Errorf("Age = %v, want 70s", stale[0].Age)
	}
}

func TestIntentString(t *testing.T) {
	tests := map[Intent]string{
		IntentNewView: "new_view",
		IntentCut:     "cut",
		IntentCopy:    "copy",
		IntentSave:    "save",
		Intent(99):    "intent(99)",
	}
	for in, want := range tests {
		if got := in.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(in), got, want)
		}
	}
}
