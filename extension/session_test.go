package extension

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	hosterrors "github.com/wippyai/extension-host/errors"
	"github.com/wippyai/extension-host/protocol"
)

// fakeGuest drives the session loop without a wasm binary. handle maps an
// incoming command to the response the guest would produce, or to an error.
type fakeGuest struct {
	handle func(cmd protocol.Command) (protocol.Response, error)
	md     protocol.Metadata
	newErr error
	config atomic.Value
	closed atomic.Bool
}

func (g *fakeGuest) Metadata(ctx context.Context) (protocol.Metadata, error) {
	return g.md, nil
}

func (g *fakeGuest) NewInstance(ctx context.Context, config string) error {
	g.config.Store(config)
	return g.newErr
}

func (g *fakeGuest) Update(ctx context.Context, command string) (string, error) {
	var cmd protocol.Command
	if err := json.Unmarshal([]byte(command), &cmd); err != nil {
		return "", err
	}

	resp, err := g.handle(cmd)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (g *fakeGuest) View(ctx context.Context) (string, error) {
	return `{"state":"fake"}`, nil
}

func (g *fakeGuest) Close(ctx context.Context) error {
	g.closed.Store(true)
	return nil
}

func testMetadata() protocol.Metadata {
	return protocol.Metadata{
		ID:          "fake",
		Name:        "Fake Extension",
		Version:     "1.0.0",
		Description: "test double",
	}
}

func startFake(t *testing.T, g *fakeGuest) *Session {
	t.Helper()

	ext := New("fake", `{"mode":"test"}`, nil)
	s, err := ext.Start(context.Background(), withGuest(g))
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return s
}

func recvResponse(t *testing.T, s *Session) protocol.Response {
	t.Helper()

	select {
	case resp, ok := <-s.Responses():
		if !ok {
			t.Fatal("response channel closed early")
		}
		return resp
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for response")
	}
	return protocol.Response{}
}

func TestSession_MetadataFirst(t *testing.T) {
	g := &fakeGuest{md: testMetadata()}
	s := startFake(t, g)
	defer s.Close()

	resp := recvResponse(t, s)
	if resp.Type != protocol.ResponseMetadata {
		t.Fatalf("first response type = %q, want %q", resp.Type, protocol.ResponseMetadata)
	}
	if resp.Metadata.Name != "Fake Extension" {
		t.Errorf("metadata name = %q", resp.Metadata.Name)
	}

	if cfg := g.config.Load(); cfg != `{"mode":"test"}` {
		t.Errorf("constructor config = %v", cfg)
	}
}

func TestSession_CommandsInOrder(t *testing.T) {
	g := &fakeGuest{
		md: testMetadata(),
		handle: func(cmd protocol.Command) (protocol.Response, error) {
			switch cmd.Type {
			case protocol.CommandListTools:
				return protocol.ToolListResponse(nil, cmd.CorrelationID), nil
			case protocol.CommandExecuteTool:
				outcome := protocol.OkOutcome(protocol.TextResult("done"))
				return protocol.ToolResultResponse(cmd.ToolID, outcome, cmd.CorrelationID), nil
			default:
				return protocol.ErrorResponse("unexpected", cmd.CorrelationID), nil
			}
		},
	}
	s := startFake(t, g)

	recvResponse(t, s) // metadata

	if err := s.Send(protocol.ListTools("c1")); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if err := s.Send(protocol.ExecuteTool("echo", json.RawMessage(`{}`), "c2")); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	first := recvResponse(t, s)
	if first.Type != protocol.ResponseToolList || first.CorrelationID != "c1" {
		t.Errorf("first = %q/%q, want ToolList/c1", first.Type, first.CorrelationID)
	}

	second := recvResponse(t, s)
	if second.Type != protocol.ResponseToolResult || second.CorrelationID != "c2" {
		t.Errorf("second = %q/%q, want ToolResult/c2", second.Type, second.CorrelationID)
	}
	if second.Result == nil || second.Result.Failed() {
		t.Error("execute outcome should be ok")
	}

	s.Close()
	<-s.Done()
}

func TestSession_GuestFailureKeepsSessionAlive(t *testing.T) {
	g := &fakeGuest{
		md: testMetadata(),
		handle: func(cmd protocol.Command) (protocol.Response, error) {
			if cmd.CorrelationID == "bad" {
				return protocol.Response{}, hosterrors.GuestFailure("tool exploded")
			}
			return protocol.ToolListResponse(nil, cmd.CorrelationID), nil
		},
	}
	s := startFake(t, g)

	recvResponse(t, s) // metadata

	s.Send(protocol.ListTools("bad"))
	s.Send(protocol.ListTools("good"))

	errResp := recvResponse(t, s)
	if errResp.Type != protocol.ResponseError {
		t.Fatalf("type = %q, want Error", errResp.Type)
	}
	if errResp.Message != "tool exploded" {
		t.Errorf("message = %q, want guest message verbatim", errResp.Message)
	}
	if errResp.CorrelationID != "bad" {
		t.Errorf("correlation = %q, want %q", errResp.CorrelationID, "bad")
	}

	next := recvResponse(t, s)
	if next.Type != protocol.ResponseToolList || next.CorrelationID != "good" {
		t.Errorf("session did not survive guest failure: %q/%q", next.Type, next.CorrelationID)
	}

	s.Close()
	<-s.Done()
}

func TestSession_FaultPrefixed(t *testing.T) {
	g := &fakeGuest{
		md: testMetadata(),
		handle: func(cmd protocol.Command) (protocol.Response, error) {
			return protocol.Response{}, hosterrors.Fault(stderrors.New("unreachable executed"), "call update")
		},
	}
	s := startFake(t, g)

	recvResponse(t, s) // metadata
	s.Send(protocol.ListTools("c1"))

	resp := recvResponse(t, s)
	if resp.Type != protocol.ResponseError {
		t.Fatalf("type = %q, want Error", resp.Type)
	}
	if len(resp.Message) < len("runtime error: ") || resp.Message[:15] != "runtime error: " {
		t.Errorf("message = %q, want runtime error prefix", resp.Message)
	}

	s.Close()
	<-s.Done()
}

func TestSession_CloseWithoutCommands(t *testing.T) {
	g := &fakeGuest{md: testMetadata()}
	s := startFake(t, g)

	resp := recvResponse(t, s)
	if resp.Type != protocol.ResponseMetadata {
		t.Fatalf("type = %q, want Metadata", resp.Type)
	}

	s.Close()

	if _, ok := <-s.Responses(); ok {
		t.Error("expected response channel to close")
	}

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("Done never closed")
	}

	if !g.closed.Load() {
		t.Error("guest was not released")
	}
}

func TestSession_SendAfterClose(t *testing.T) {
	g := &fakeGuest{md: testMetadata()}
	s := startFake(t, g)
	s.Close()
	<-s.Done()

	err := s.Send(protocol.ListTools("late"))
	if err == nil {
		t.Fatal("Send succeeded on a closed session")
	}

	var he *hosterrors.Error
	if !stderrors.As(err, &he) || he.Kind != hosterrors.KindSendFailed {
		t.Errorf("error = %v, want send_failed", err)
	}
}

func TestSession_ConstructorFailure(t *testing.T) {
	g := &fakeGuest{
		md:     testMetadata(),
		newErr: hosterrors.ConstructorFailed(nil, "bad config"),
	}

	ext := New("fake", `{`, nil)
	_, err := ext.Start(context.Background(), withGuest(g))
	if err == nil {
		t.Fatal("expected constructor failure")
	}
	if !g.closed.Load() {
		t.Error("guest not released after failed start")
	}
}

// serialCheckGuest flags any overlapping guest calls. The session must never
// let View run while the loop is inside Update.
type serialCheckGuest struct {
	fakeGuest
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (g *serialCheckGuest) enter() func() {
	if g.inFlight.Add(1) > 1 {
		g.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
	return func() { g.inFlight.Add(-1) }
}

func (g *serialCheckGuest) Update(ctx context.Context, command string) (string, error) {
	defer g.enter()()
	return g.fakeGuest.Update(ctx, command)
}

func (g *serialCheckGuest) View(ctx context.Context) (string, error) {
	defer g.enter()()
	return g.fakeGuest.View(ctx)
}

func TestSession_ViewSerializedWithUpdate(t *testing.T) {
	g := &serialCheckGuest{
		fakeGuest: fakeGuest{
			md: testMetadata(),
			handle: func(cmd protocol.Command) (protocol.Response, error) {
				return protocol.ToolListResponse(nil, cmd.CorrelationID), nil
			},
		},
	}

	ext := New("fake", "", nil)
	s, err := ext.Start(context.Background(), withGuest(g))
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range s.Responses() {
		}
	}()

	for i := 0; i < 20; i++ {
		s.Send(protocol.ListTools("c"))
		if _, err := s.View(context.Background()); err != nil {
			t.Fatalf("View() error: %v", err)
		}
	}

	s.Close()
	<-s.Done()
	<-done

	if g.overlap.Load() {
		t.Error("guest saw concurrent calls")
	}
}

func TestSession_View(t *testing.T) {
	g := &fakeGuest{md: testMetadata()}
	s := startFake(t, g)
	defer func() {
		s.Close()
		<-s.Done()
	}()

	state, err := s.View(context.Background())
	if err != nil {
		t.Fatalf("View() error: %v", err)
	}
	if state != `{"state":"fake"}` {
		t.Errorf("state = %q", state)
	}
}
