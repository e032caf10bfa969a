// Package observer streams FRAME messages to read-only viewers.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"survivalsim.ai/internal/protocol"
	"survivalsim.ai/internal/sim/grid"
	"survivalsim.ai/internal/sim/world"
)

// Source is the part of *world.World the observer server needs.
type Source interface {
	Config() world.Config
	CurrentTick() uint64
	ObserverJoin() chan<- world.ObserverJoinRequest
	ObserverLeave() chan<- string
}

// readIdle drops observers that send neither data nor pings for this long.
const readIdle = 60 * time.Second

type Server struct {
	world Source
	log   *log.Logger

	// AllowRemote serves non-loopback clients too.
	AllowRemote bool

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(w Source, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

type BootstrapResponse struct {
	ProtocolVersion string               `json:"protocol_version"`
	Tick            uint64               `json:"tick"`
	WorldParams     protocol.WorldParams `json:"world_params"`
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		cfg := s.world.Config()
		resp := BootstrapResponse{
			ProtocolVersion: protocol.Version,
			Tick:            s.world.CurrentTick(),
			WorldParams: protocol.WorldParams{
				WorldID:         cfg.ID,
				Width:           cfg.Width,
				Height:          cfg.Height,
				TickRateHz:      cfg.TickRateHz,
				MoonLen:         cfg.MoonLen,
				ViewRadius:      cfg.ViewRadius,
				FeatureLen:      world.FeatureLen(cfg.ViewRadius),
				EncodingVersion: grid.EncodingVersion,
				Seed:            cfg.Seed,
			},
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.allowed(r) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub protocol.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil || sub.Type != protocol.TypeSubscribe || sub.ProtocolVersion != protocol.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		out := make(chan []byte, 2)
		select {
		case s.world.ObserverJoin() <- world.ObserverJoinRequest{SessionID: sid, Out: out}:
		default:
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server busy"), time.Now().Add(time.Second))
			return
		}
		defer func() {
			select {
			case s.world.ObserverLeave() <- sid:
			default:
				// World loop is stopping; nothing else to do.
			}
		}()
		if s.log != nil {
			s.log.Printf("observer %s joined from %s", sid, r.RemoteAddr)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: only keeps the connection alive and notices close.
		// Viewers send pings rather than data, so pings extend the deadline.
		conn.SetPingHandler(func(data string) error {
			_ = conn.SetReadDeadline(time.Now().Add(readIdle))
			return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		})
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readIdle))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Server) allowed(r *http.Request) bool {
	return s.AllowRemote || isLoopbackRemote(r.RemoteAddr)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
