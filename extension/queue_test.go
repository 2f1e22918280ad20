package extension

import (
	"testing"
	"time"

	"github.com/wippyai/extension-host/protocol"
)

func TestCommandQueue_FIFO(t *testing.T) {
	q := newCommandQueue()

	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		if !q.push(protocol.ListTools(id)) {
			t.Fatalf("push(%q) refused", id)
		}
	}

	for _, want := range ids {
		cmd, ok := q.pop()
		if !ok {
			t.Fatal("pop returned closed")
		}
		if cmd.CorrelationID != want {
			t.Errorf("pop order: got %q, want %q", cmd.CorrelationID, want)
		}
	}
}

func TestCommandQueue_PopBlocksUntilPush(t *testing.T) {
	q := newCommandQueue()

	got := make(chan protocol.Command, 1)
	go func() {
		cmd, ok := q.pop()
		if ok {
			got <- cmd
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.push(protocol.ListTools("late"))

	select {
	case cmd := <-got:
		if cmd.CorrelationID != "late" {
			t.Errorf("got %q, want %q", cmd.CorrelationID, "late")
		}
	case <-time.After(time.Second):
		t.Fatal("pop did not wake after push")
	}
}

func TestCommandQueue_CloseDrains(t *testing.T) {
	q := newCommandQueue()

	q.push(protocol.ListTools("queued"))
	q.close()

	if q.push(protocol.ListTools("rejected")) {
		t.Error("push succeeded after close")
	}

	cmd, ok := q.pop()
	if !ok {
		t.Fatal("queued command lost on close")
	}
	if cmd.CorrelationID != "queued" {
		t.Errorf("got %q, want %q", cmd.CorrelationID, "queued")
	}

	if _, ok := q.pop(); ok {
		t.Error("pop returned a command from a drained closed queue")
	}
}

func TestCommandQueue_CloseIdempotent(t *testing.T) {
	q := newCommandQueue()
	q.close()
	q.close()

	if _, ok := q.pop(); ok {
		t.Error("pop returned a command from an empty closed queue")
	}
}
