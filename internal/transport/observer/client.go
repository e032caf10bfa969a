package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"survivalsim.ai/internal/protocol"
)

// pingEvery keeps a quiet viewer under the server's read deadline.
const pingEvery = readIdle / 3

// Subscription is a client-side frame stream. Frames keeps only the most
// recent frame when the reader falls behind.
type Subscription struct {
	Frames <-chan protocol.FrameMsg

	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Subscribe dials url, sends SUBSCRIBE and starts streaming frames. The
// stream ends when ctx is done, Close is called or the connection drops;
// Frames is closed then and Err reports why.
func Subscribe(ctx context.Context, url string) (*Subscription, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if err := conn.WriteJSON(protocol.SubscribeMsg{Type: protocol.TypeSubscribe, ProtocolVersion: protocol.Version}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send SUBSCRIBE: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	frames := make(chan protocol.FrameMsg, 1)
	s := &Subscription{Frames: frames, conn: conn, cancel: cancel, done: make(chan struct{})}

	go func() {
		t := time.NewTicker(pingEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-t.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
			}
		}
	}()

	go func() {
		defer close(s.done)
		defer close(frames)
		defer cancel()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					s.setErr(err)
				}
				return
			}
			var f protocol.FrameMsg
			if err := json.Unmarshal(msg, &f); err != nil || f.Type != protocol.TypeFrame {
				continue
			}
			// Drop a stale frame rather than block the socket.
			select {
			case frames <- f:
			default:
				select {
				case <-frames:
				default:
				}
				frames <- f
			}
		}
	}()
	return s, nil
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Err is the error that ended the stream, nil after Close or ctx cancel.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) Close() error {
	s.cancel()
	<-s.done
	return nil
}
