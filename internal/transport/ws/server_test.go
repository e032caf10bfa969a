package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"survivalsim.ai/internal/protocol"
	"survivalsim.ai/internal/sim/grid"
	"survivalsim.ai/internal/sim/world"
)

func testDecision(t *testing.T) (world.Config, world.Decision) {
	t.Helper()
	w, err := world.New(world.Config{Width: 8, Height: 8, Species: []world.SpeciesConfig{{Name: "red"}}})
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	if _, err := w.PlaceCreature(0, grid.Pos{X: 3, Y: 3}, 2); err != nil {
		t.Fatalf("place: %v", err)
	}
	c := w.Cursor(0)
	c.Next()
	st, err := c.State()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	return w.Config(), world.Decision{Tick: 4, Species: 0, Member: 0, State: st}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func hello(t *testing.T, conn *websocket.Conn, species string) map[string]any {
	t.Helper()
	_ = conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "t", Species: species})
	var m map[string]any
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read after hello: %v", err)
	}
	return m
}

func TestSlot_RoundTrip(t *testing.T) {
	cfg, d := testDecision(t)
	s := NewServer(cfg, nil)
	sl := s.Slot(0, "red", nil)
	sl.SetTimeout(2 * time.Second)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	welcome := hello(t, conn, "red")
	if welcome["type"] != protocol.TypeWelcome || welcome["species_name"] != "red" {
		t.Fatalf("welcome=%v", welcome)
	}
	if !sl.Connected() {
		t.Fatalf("slot not connected after welcome")
	}

	type result struct {
		a   world.Action
		err error
	}
	done := make(chan result, 1)
	go func() {
		a, err := sl.Decide(context.Background(), d)
		done <- result{a, err}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read decide: %v", err)
	}
	if err := protocol.Validate(protocol.SchemaDecide, raw); err != nil {
		t.Fatalf("decide schema: %v", err)
	}
	var dec protocol.DecideMsg
	_ = json.Unmarshal(raw, &dec)
	if dec.Tick != 4 || len(dec.Features) != world.FeatureLen(3) || len(dec.Legal) != 8 {
		t.Fatalf("decide=%+v", dec)
	}

	_ = conn.WriteJSON(protocol.ActMsg{
		Type: protocol.TypeAct, ProtocolVersion: protocol.Version,
		Seq: dec.Seq, Tick: dec.Tick, Member: dec.Member,
		Action: protocol.ActionRef{Type: "BUILD_WALL", DX: 0, DY: -1},
	})
	r := <-done
	if r.err != nil || r.a != world.BuildWall(grid.North) {
		t.Fatalf("decide result=%s err=%v", r.a, r.err)
	}
}

func TestSlot_TimeoutAndFallback(t *testing.T) {
	cfg, d := testDecision(t)
	s := NewServer(cfg, nil)
	fallback := world.PolicyFunc(func(context.Context, world.Decision) (world.Action, error) {
		return world.Move(grid.East), nil
	})
	sl := s.Slot(0, "red", fallback)
	sl.SetTimeout(50 * time.Millisecond)

	// No client: fallback answers.
	if a, _ := sl.Decide(context.Background(), d); a != world.Move(grid.East) {
		t.Fatalf("fallback=%s", a)
	}

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	conn := dial(t, srv)
	hello(t, conn, "red")

	// Connected but silent: DoNothing after the timeout.
	a, err := sl.Decide(context.Background(), d)
	if err != nil || a != world.DoNothing() || sl.Timeouts() != 1 {
		t.Fatalf("timeout result=%s err=%v timeouts=%d", a, err, sl.Timeouts())
	}
}

func TestSlot_ContextCancel(t *testing.T) {
	cfg, d := testDecision(t)
	s := NewServer(cfg, nil)
	sl := s.Slot(0, "red", nil)
	sl.SetTimeout(time.Minute)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()
	conn := dial(t, srv)
	hello(t, conn, "red")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := sl.Decide(ctx, d); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestHandshake_Errors(t *testing.T) {
	cfg, _ := testDecision(t)
	s := NewServer(cfg, nil)
	s.Slot(0, "red", nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	if m := hello(t, dial(t, srv), "green"); m["code"] != protocol.ErrUnknownSpecies {
		t.Fatalf("unknown species reply=%v", m)
	}
	hello(t, dial(t, srv), "red")
	if m := hello(t, dial(t, srv), "red"); m["code"] != protocol.ErrSpeciesTaken {
		t.Fatalf("taken reply=%v", m)
	}
}

func TestActionConversion(t *testing.T) {
	for _, a := range []world.Action{world.DoNothing(), world.Move(grid.West), world.Attack(grid.South), world.BuildWall(grid.North)} {
		got, err := ToAction(FromAction(a))
		if err != nil || got != a {
			t.Fatalf("%s -> %s err=%v", a, got, err)
		}
	}
	if _, err := ToAction(protocol.ActionRef{Type: "MOVE", DX: 1, DY: 1}); err == nil {
		t.Fatalf("diagonal accepted")
	}
	if _, err := ToAction(protocol.ActionRef{Type: "JUMP"}); err == nil {
		t.Fatalf("unknown type accepted")
	}
}

func TestClient_DrivesSlot(t *testing.T) {
	cfg, d := testDecision(t)
	s := NewServer(cfg, nil)
	sl := s.Slot(0, "red", nil)
	sl.SetTimeout(2 * time.Second)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, err := Dial(ctx, url, "t", "red", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	if c.Welcome.SpeciesName != "red" || c.Welcome.WorldParams.ViewRadius != 3 {
		t.Fatalf("welcome=%+v", c.Welcome)
	}

	seenCh := make(chan world.Decision, 1)
	pol := world.PolicyFunc(func(_ context.Context, got world.Decision) (world.Action, error) {
		seenCh <- got
		return world.Move(grid.South), nil
	})
	go func() { _ = c.Serve(ctx, pol) }()

	a, err := sl.Decide(context.Background(), d)
	if err != nil || a != world.Move(grid.South) {
		t.Fatalf("decide=%s err=%v", a, err)
	}
	seen := <-seenCh
	if !seen.State.View.Equal(stripView(t, d.State.View)) || seen.State.Food != d.State.Food || seen.Tick != d.Tick {
		t.Fatalf("client rebuilt a different decision: %+v", seen)
	}
	if len(seen.State.Actions()) != len(d.State.Actions()) {
		t.Fatalf("legal sets differ: %v vs %v", seen.State.Actions(), d.State.Actions())
	}
}

func TestDial_Refused(t *testing.T) {
	cfg, _ := testDecision(t)
	s := NewServer(cfg, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, err := Dial(context.Background(), url, "t", "nobody", nil)
	if err == nil || !strings.Contains(err.Error(), protocol.ErrUnknownSpecies) {
		t.Fatalf("err=%v", err)
	}
}

func TestDecisionFromMsg_WrongLength(t *testing.T) {
	if _, err := DecisionFromMsg(protocol.DecideMsg{Features: make([]float64, 10)}, 3, 1); err == nil {
		t.Fatalf("short features accepted")
	}
}

// stripView drops what the feature encoding does not carry.
func stripView(t *testing.T, v grid.View) grid.View {
	t.Helper()
	out, err := grid.ViewFromFeatures(v.Radius, v.Features())
	if err != nil {
		t.Fatalf("ViewFromFeatures: %v", err)
	}
	return out
}
