package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/orbiter/internal/config"
	"github.com/zeusync/orbiter/internal/core/events/bus"
	"github.com/zeusync/orbiter/internal/core/observability/log"
	"github.com/zeusync/orbiter/internal/core/simulation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// KeyMessage is what a renderer sends upstream when a key changes state.
type KeyMessage struct {
	Action string `json:"action"` // "down", "up" or "reset"
	Code   string `json:"code"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// PoseFeed streams every completed frame as JSON to connected renderers and
// turns their key messages into steering input.
//
// Frames are queued per client without blocking the simulation tick; a client
// whose queue is full misses frames until it catches up.
type PoseFeed struct {
	cfg    config.ServerConfig
	logger log.Log
	input  *RemoteInput

	mu      sync.Mutex
	clients map[string]*client
	sub     bus.Subscription
	dropped uint64
}

func NewPoseFeed(cfg config.ServerConfig, logger log.Log, remote *RemoteInput) *PoseFeed {
	if logger == nil {
		logger = log.NewNop()
	}
	if remote == nil {
		remote = NewRemoteInput()
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}
	return &PoseFeed{
		cfg:     cfg,
		logger:  logger.With(log.String("component", "pose_feed")),
		input:   remote,
		clients: make(map[string]*client),
	}
}

// Attach subscribes the feed to frame events on events.
func (f *PoseFeed) Attach(events bus.EventBus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sub != nil {
		return ErrServerRunning
	}
	sub, err := events.Subscribe(simulation.EventFrameCompleted, f.onFrame)
	if err != nil {
		return err
	}
	f.sub = sub
	return nil
}

// Detach stops receiving frames.
func (f *PoseFeed) Detach() error {
	f.mu.Lock()
	sub := f.sub
	f.sub = nil
	f.mu.Unlock()
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

// Input returns the steering source fed by connected clients.
func (f *PoseFeed) Input() *RemoteInput { return f.input }

// Clients returns the number of connected clients.
func (f *PoseFeed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Dropped returns how many frames were not queued because a client was slow.
func (f *PoseFeed) Dropped() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

// Handler returns the HTTP handler serving /ws.
func (f *PoseFeed) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", f.handleWebSocket)
	return mux
}

// ListenAndServe serves the feed on the configured address until ctx is done.
func (f *PoseFeed) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(f.cfg.Host, fmt.Sprint(f.cfg.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           f.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		f.logger.Info("pose feed listening", log.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), f.cfg.WriteTimeout)
	defer cancel()
	f.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (f *PoseFeed) onFrame(e bus.Event) error {
	frame, ok := e.Data().(simulation.Frame)
	if !ok {
		return fmt.Errorf("%w: frame event carries %T", ErrInvalidMessage, e.Data())
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clients {
		select {
		case c.send <- payload:
		default:
			f.dropped++
		}
	}
	return nil
}

func (f *PoseFeed) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, f.cfg.SendBuffer),
		done: make(chan struct{}),
	}
	f.mu.Lock()
	f.clients[c.id] = c
	f.mu.Unlock()
	f.logger.Info("renderer connected", log.String("client", c.id), log.String("remote", conn.RemoteAddr().String()))

	go f.writeLoop(c)
	f.readLoop(c)

	f.mu.Lock()
	delete(f.clients, c.id)
	f.mu.Unlock()
	c.close()
	f.logger.Info("renderer disconnected", log.String("client", c.id))
}

func (f *PoseFeed) readLoop(c *client) {
	for {
		var msg KeyMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				f.logger.Debug("websocket read ended", log.String("client", c.id), log.Error(err))
			}
			return
		}
		if err := f.input.Apply(msg); err != nil {
			f.logger.Debug("ignored key message", log.String("client", c.id), log.Error(err))
		}
	}
}

func (f *PoseFeed) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(f.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				f.logger.Debug("websocket write failed", log.String("client", c.id), log.Error(err))
				c.close()
				return
			}
		}
	}
}

func (f *PoseFeed) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		c.close()
		delete(f.clients, id)
	}
}
