package server

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/teslashibe/go-drivethru/pkg/protocol"
	"github.com/teslashibe/go-drivethru/pkg/session"
)

// maxFrameSize caps one inbound WebSocket frame (base64 audio).
const maxFrameSize = 16 << 20

// work is one queued inbound frame.
type work struct {
	start bool
	audio []byte
}

// voiceConn is the single writer for one connection.
type voiceConn struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	closed  bool
	timeout time.Duration
	log     *slog.Logger
}

var _ session.Emitter = (*voiceConn)(nil)

// Emit encodes ev and writes it as a text frame. Writes after close are dropped.
func (v *voiceConn) Emit(ev session.Event) {
	msg := toMessage(ev)
	if msg == nil {
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		v.log.Error("encode event", "type", ev.Type, "error", err)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.conn.SetWriteDeadline(time.Now().Add(v.timeout))
	if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		v.log.Warn("write failed, dropping further events", "type", ev.Type, "error", err)
		v.closed = true
		return
	}
	v.log.Debug("event sent", "type", ev.Type, "bytes", len(data))
}

func (v *voiceConn) markClosed() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

func toMessage(ev session.Event) *protocol.Message {
	switch ev.Type {
	case session.EventAudio:
		return protocol.NewAudioMessage(ev.Audio)
	case session.EventError:
		return protocol.NewErrorMessage(ev.Message)
	case session.EventShowItems:
		return protocol.NewShowItemsMessage(ev.Items)
	case session.EventCartUpdate:
		return protocol.NewCartUpdateMessage(ev.Cart)
	case session.EventOrderConfirmed:
		if ev.Order == nil {
			return nil
		}
		return protocol.NewOrderConfirmedMessage(*ev.Order)
	default:
		return nil
	}
}

// handleVoice owns one ordering session for the lifetime of the connection.
// The read loop decodes frames into a bounded queue; a single worker feeds
// them to the session in order.
func (s *Server) handleVoice(c *websocket.Conn) {
	id := uuid.NewString()
	logger := s.log.With("session_id", id, "remote", c.RemoteAddr().String())

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	out := &voiceConn{conn: c, timeout: s.cfg.WriteTimeout, log: logger}

	opts := []session.Option{
		session.WithLogger(s.cfg.Logger),
		session.WithMetrics(s.deps.Metrics),
		session.WithLimiter(s.deps.Limiter),
	}
	if s.deps.Kitchen != nil {
		opts = append(opts, session.WithOrderObserver(s.deps.Kitchen.PublishOrder))
	}
	sess := session.New(id, s.deps.Session, out, opts...)
	logger.Info("voice client connected")

	queue := make(chan work, s.cfg.QueueSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for w := range queue {
			if ctx.Err() != nil {
				continue
			}
			if !s.dispatch(ctx, sess, w, logger) {
				cancel()
				c.Close()
			}
		}
	}()

	err := s.readLoop(ctx, c, queue, logger)
	switch {
	case err == nil:
	case errors.Is(err, protocol.ErrMalformed), errors.Is(err, protocol.ErrMissingAudio), errors.Is(err, protocol.ErrBadAudio):
		logger.Warn("protocol violation, closing connection", "error", err)
	case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived):
		logger.Warn("connection lost", "error", err)
	default:
		logger.Debug("read loop ended", "error", err)
	}

	out.markClosed()
	sess.Close()
	cancel()
	close(queue)
	<-done
	logger.Info("voice client disconnected")
}

// readLoop returns nil when ctx is cancelled, otherwise the error that ended it.
func (s *Server) readLoop(ctx context.Context, c *websocket.Conn, queue chan<- work, logger *slog.Logger) error {
	c.SetReadLimit(maxFrameSize)
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			return err
		}

		var w work
		switch msg.Type {
		case protocol.TypeStartSession:
			w.start = true
		case protocol.TypeAudio:
			audio, err := msg.DecodeAudio()
			if err != nil {
				return err
			}
			w.audio = audio
		default:
			logger.Warn("unknown message type ignored", "type", msg.Type)
			continue
		}

		select {
		case queue <- w:
		case <-ctx.Done():
			return nil
		}
	}
}

// dispatch runs one frame through the session. It returns false when the
// session panicked and the connection should be dropped.
func (s *Server) dispatch(ctx context.Context, sess *session.Session, w work, logger *slog.Logger) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("session panic recovered", "panic", r, "stack", string(debug.Stack()))
			ok = false
		}
	}()

	if w.start {
		sess.Start(ctx)
	} else {
		sess.HandleAudio(ctx, w.audio)
	}
	return true
}
