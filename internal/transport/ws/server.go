// Package ws serves remote policies over WebSocket. A client claims one
// species with HELLO; from then on every creature turn of that species is
// a DECIDE the client answers with an ACT.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"survivalsim.ai/internal/protocol"
	"survivalsim.ai/internal/sim/grid"
	"survivalsim.ai/internal/sim/world"
)

const DefaultDecideTimeout = 250 * time.Millisecond

type Server struct {
	log *log.Logger
	cfg world.Config

	upgrader websocket.Upgrader

	mu    sync.Mutex
	slots map[string]*Slot

	nextSession atomic.Uint64
}

func NewServer(cfg world.Config, logger *log.Logger) *Server {
	return &Server{
		log: logger,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		slots: map[string]*Slot{},
	}
}

// Slot returns the remote policy for a species, creating it on first use.
// Until a client claims it the slot answers with fallback (Idle if nil).
func (s *Server) Slot(speciesID int, name string, fallback world.Policy) *Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[name]; ok {
		return sl
	}
	if fallback == nil {
		fallback = world.Idle
	}
	sl := &Slot{
		speciesID: speciesID,
		name:      name,
		timeout:   DefaultDecideTimeout,
		fallback:  fallback,
	}
	s.slots[name] = sl
	return sl
}

func (s *Server) slot(name string) *Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[name]
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sl, sess := s.handshake(conn)
		if sess == nil {
			return
		}
		defer sl.detach(sess)
		s.logf("policy session %s claimed species %s", sess.id, sl.name)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				sess.sendError(protocol.ErrProtoBadRequest, "expected ACT")
				continue
			}
			if err := protocol.Validate(protocol.SchemaAct, msg); err != nil {
				sess.sendError(protocol.ErrProtoBadRequest, err.Error())
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				sess.sendError(protocol.ErrProtoBadRequest, err.Error())
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				sess.sendError(protocol.ErrProtoBadRequest, "bad protocol_version")
				continue
			}
			select {
			case sess.acts <- act:
			default:
				sess.sendError(protocol.ErrBusy, "too many pending ACTs")
			}
		}
		s.logf("policy session %s for species %s closed", sess.id, sl.name)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (*Slot, *session) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return nil, nil
	}
	if err := protocol.Validate(protocol.SchemaHello, msg); err != nil {
		_ = writeJSON(conn, protocol.NewError(protocol.ErrProtoBadRequest, err.Error()))
		return nil, nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil, nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return nil, nil
	}

	sl := s.slot(hello.Species)
	if sl == nil {
		_ = writeJSON(conn, protocol.NewError(protocol.ErrUnknownSpecies, fmt.Sprintf("no remote species %q", hello.Species)))
		return nil, nil
	}
	sess := &session{
		id:   fmt.Sprintf("S%06d", s.nextSession.Add(1)),
		out:  make(chan []byte, 8),
		acts: make(chan protocol.ActMsg, 16),
		done: make(chan struct{}),
	}
	if !sl.attach(sess) {
		_ = writeJSON(conn, protocol.NewError(protocol.ErrSpeciesTaken, fmt.Sprintf("species %q already has a policy", hello.Species)))
		return nil, nil
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		SpeciesID:       sl.speciesID,
		SpeciesName:     sl.name,
	}
	welcome.WorldParams, welcome.Rules = Params(s.cfg)
	if err := writeJSON(conn, welcome); err != nil {
		sl.detach(sess)
		return nil, nil
	}
	return sl, sess
}

// Params describes a world config for WELCOME.
func Params(cfg world.Config) (protocol.WorldParams, protocol.RulesParams) {
	return protocol.WorldParams{
			WorldID:         cfg.ID,
			Width:           cfg.Width,
			Height:          cfg.Height,
			TickRateHz:      cfg.TickRateHz,
			MoonLen:         cfg.MoonLen,
			ViewRadius:      cfg.ViewRadius,
			FeatureLen:      world.FeatureLen(cfg.ViewRadius),
			EncodingVersion: grid.EncodingVersion,
			Seed:            cfg.Seed,
		}, protocol.RulesParams{
			AttackGain:   cfg.Rules.AttackGain,
			AttackDamage: cfg.Rules.AttackDamage,
			WallCost:     cfg.Rules.WallCost,
			MoonDecay:    cfg.Rules.MoonDecay,
			RewardBase:   cfg.Rules.RewardBase,
			RewardScale:  cfg.Rules.RewardScale,
		}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
