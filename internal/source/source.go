// Package source collects a live stream of pose-update requests into an
// ordered command sequence, as an alternative to reading a recorded
// container file.
package source

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/meshport/meshport/pkg/recording"
)

// Recorder accepts websocket connections carrying one msgpack command
// record per message and accumulates them in arrival order. Once the
// stream ends the accumulated sequence replays exactly like a decoded
// container payload.
type Recorder struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	cmds []recording.Command
}

// NewRecorder returns an empty live recorder.
func NewRecorder(log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 16,
			WriteBufferSize: 1 << 10,
		},
	}
}

// Handler upgrades incoming requests and reads command messages until
// the peer closes the connection. Undecodable messages are dropped with
// a warning; transport reliability is the sender's problem.
func (r *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := r.upgrader.Upgrade(w, req, nil)
		if err != nil {
			r.log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		r.log.Info("recorder connected", zap.String("remote", conn.RemoteAddr().String()))

		for {
			typ, msg, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					r.log.Warn("read failed", zap.Error(err))
				}
				return
			}
			if typ != websocket.BinaryMessage {
				continue
			}

			cmds, err := recording.DecodePayload(msg)
			if err != nil {
				r.log.Warn("dropping undecodable message", zap.Error(err))
				continue
			}

			r.mu.Lock()
			r.cmds = append(r.cmds, cmds...)
			r.mu.Unlock()
		}
	})
}

// Commands returns a snapshot of the accumulated sequence.
func (r *Recorder) Commands() []recording.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recording.Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}

// Len returns the number of accumulated commands.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cmds)
}

// Payload re-encodes the accumulated sequence as a msgpack stream, ready
// for wrapping in a container.
func (r *Recorder) Payload() ([]byte, error) {
	return recording.EncodePayload(r.Commands())
}

// Listen serves the recorder on addr until ctx is cancelled, then shuts
// the server down and returns.
func (r *Recorder) Listen(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	r.log.Info("recording from live stream", zap.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
