package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gorilla/websocket"

	"survivalsim.ai/internal/protocol"
	"survivalsim.ai/internal/sim/grid"
	"survivalsim.ai/internal/sim/world"
)

// Client drives one species from outside the server process with an
// in-process world.Policy.
type Client struct {
	conn    *websocket.Conn
	log     *log.Logger
	Welcome protocol.WelcomeMsg
}

// Dial connects, sends HELLO for species and waits for WELCOME. A handshake
// ERROR comes back as an error carrying its code.
func Dial(ctx context.Context, url, clientName, species string, logger *log.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      clientName,
		Species:         species,
	}
	if err := conn.WriteJSON(hello); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send HELLO: %w", err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read WELCOME: %w", err)
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	switch base.Type {
	case protocol.TypeWelcome:
		c := &Client{conn: conn, log: logger}
		if err := json.Unmarshal(msg, &c.Welcome); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return c, nil
	case protocol.TypeError:
		var e protocol.ErrorMsg
		_ = json.Unmarshal(msg, &e)
		_ = conn.Close()
		return nil, fmt.Errorf("handshake refused: %s: %s", e.Code, e.Message)
	default:
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected %s before WELCOME", base.Type)
	}
}

func (c *Client) Close() error { return c.conn.Close() }

// Serve answers DECIDE messages with pol until ctx is done or the
// connection drops.
func (c *Client) Serve(ctx context.Context, pol world.Policy) error {
	go func() {
		<-ctx.Done()
		_ = c.conn.Close()
	}()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeDecide:
			var dec protocol.DecideMsg
			if err := json.Unmarshal(msg, &dec); err != nil {
				continue
			}
			act, err := c.answer(ctx, pol, dec)
			if err != nil {
				return err
			}
			if err := c.conn.WriteJSON(act); err != nil {
				return err
			}
		case protocol.TypeError:
			var e protocol.ErrorMsg
			_ = json.Unmarshal(msg, &e)
			c.logf("server error %s: %s", e.Code, e.Message)
		}
	}
}

func (c *Client) answer(ctx context.Context, pol world.Policy, dec protocol.DecideMsg) (protocol.ActMsg, error) {
	d, err := DecisionFromMsg(dec, c.Welcome.WorldParams.ViewRadius, c.Welcome.Rules.WallCost)
	if err != nil {
		return protocol.ActMsg{}, err
	}
	a, err := pol.Decide(ctx, d)
	if err != nil {
		return protocol.ActMsg{}, err
	}
	ref := FromAction(a)
	if !containsRef(dec.Legal, ref) && len(dec.Legal) > 0 {
		c.logf("tick=%d member=%d policy chose %s outside legal set; sending %s", dec.Tick, dec.Member, a, dec.Legal[0].Type)
		ref = dec.Legal[0]
	}
	return protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Seq:             dec.Seq,
		Tick:            dec.Tick,
		Member:          dec.Member,
		Action:          ref,
	}, nil
}

// DecisionFromMsg rebuilds the policy input the server encoded into dec.
func DecisionFromMsg(dec protocol.DecideMsg, viewRadius, wallCost int) (world.Decision, error) {
	if want := world.FeatureLen(viewRadius); len(dec.Features) != want {
		return world.Decision{}, fmt.Errorf("decide seq=%d: %d features want %d", dec.Seq, len(dec.Features), want)
	}
	view, err := grid.ViewFromFeatures(viewRadius, dec.Features)
	if err != nil {
		return world.Decision{}, fmt.Errorf("decide seq=%d: %w", dec.Seq, err)
	}
	return world.Decision{
		Tick:    dec.Tick,
		Species: dec.Species,
		Member:  dec.Member,
		Reward:  dec.Reward,
		State: world.State{
			View:      view,
			Food:      dec.Food,
			TimeLeft:  dec.TimeLeft,
			BuildCost: wallCost,
		},
	}, nil
}

func containsRef(refs []protocol.ActionRef, r protocol.ActionRef) bool {
	for _, x := range refs {
		if x == r {
			return true
		}
	}
	return false
}

func (c *Client) logf(format string, args ...any) {
	if c.log != nil {
		c.log.Printf(format, args...)
	}
}
