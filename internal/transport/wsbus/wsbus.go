// Package wsbus implements the web-socket transport back-end of
// §4.7: the same Service/Subscription/Request/Command contract as
// binarybus, carried over gorilla/websocket connections instead of
// net/rpc, so a browser-based or cross-language client can attach to
// a collector without a binary RPC stack.
package wsbus

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/dqm4hep/dqm4hep-go/internal/buffer"
	"github.com/dqm4hep/dqm4hep-go/internal/signal"
	"github.com/dqm4hep/dqm4hep-go/internal/status"
	"github.com/dqm4hep/dqm4hep-go/internal/transport"
)

// frame is the JSON envelope exchanged over the socket: a kind
// ("publish", "request", "command", "reply"), the addressed channel
// or handler name, and the raw payload bytes (§6: "no framing format
// is imposed on the payload beyond what the application serializes
// into it" — wsbus adds only the routing envelope around that
// payload).
type frame struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	ID      uint64 `json:"id,omitempty"`
	Payload []byte `json:"payload"`
	Err     string `json:"err,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Bus is a wsbus transport instance bound to a single websocket
// connection (one peer). A collector typically holds one Bus per
// connected client.
type Bus struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	channels map[string]*signal.Signal[buffer.Buffer]
	requests map[string]transport.RequestHandler
	commands map[string]transport.CommandHandler
	pending  map[uint64]chan frame
	nextID   uint64

	closeOnce sync.Once
}

var _ transport.Bus = (*Bus)(nil)

func newBus(conn *websocket.Conn) *Bus {
	b := &Bus{
		conn:     conn,
		channels: make(map[string]*signal.Signal[buffer.Buffer]),
		requests: make(map[string]transport.RequestHandler),
		commands: make(map[string]transport.CommandHandler),
		pending:  make(map[uint64]chan frame),
	}
	go b.readLoop()
	return b
}

// Upgrade promotes an incoming HTTP request to a websocket connection
// and returns the Bus wrapping it (server side).
func Upgrade(w http.ResponseWriter, r *http.Request) (*Bus, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, status.Wrap(status.Failure, err)
	}
	return newBus(conn), nil
}

// Dial connects to a wsbus server at url (client side).
func Dial(url string) (*Bus, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, status.Wrap(status.Failure, err)
	}
	return newBus(conn), nil
}

func (b *Bus) signalFor(name string) *signal.Signal[buffer.Buffer] {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.channels[name]
	if !ok {
		s = signal.New[buffer.Buffer](name)
		b.channels[name] = s
	}
	return s
}

func (b *Bus) writeFrame(f frame) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.WriteJSON(f)
}

func (b *Bus) readLoop() {
	for {
		var f frame
		if err := b.conn.ReadJSON(&f); err != nil {
			log.WithError(err).Debug("wsbus: connection closed")
			return
		}
		b.dispatch(f)
	}
}

func (b *Bus) dispatch(f frame) {
	switch f.Kind {
	case "publish":
		b.signalFor(f.Name).Emit(buffer.Adopt(f.Payload))
	case "request":
		b.mu.Lock()
		h, ok := b.requests[f.Name]
		b.mu.Unlock()
		go func() {
			if !ok {
				_ = b.writeFrame(frame{Kind: "reply", ID: f.ID, Err: "no request handler registered"})
				return
			}
			resp, err := h(context.Background(), buffer.Adopt(f.Payload))
			reply := frame{Kind: "reply", ID: f.ID, Payload: resp.Frame()}
			if err != nil {
				reply.Err = err.Error()
			}
			_ = b.writeFrame(reply)
		}()
	case "command":
		b.mu.Lock()
		h, ok := b.commands[f.Name]
		b.mu.Unlock()
		run := func() {
			var errStr string
			if !ok {
				errStr = "no command handler registered"
			} else if err := h(context.Background(), buffer.Adopt(f.Payload)); err != nil {
				errStr = err.Error()
			}
			if f.ID != 0 {
				_ = b.writeFrame(frame{Kind: "reply", ID: f.ID, Err: errStr})
			}
		}
		if f.ID != 0 {
			run()
		} else {
			go run()
		}
	case "reply":
		b.mu.Lock()
		ch, ok := b.pending[f.ID]
		if ok {
			delete(b.pending, f.ID)
		}
		b.mu.Unlock()
		if ok {
			ch <- f
		}
	}
}

type service struct {
	bus  *Bus
	name string
}

func (s *service) Name() string { return s.name }

func (s *service) Publish(_ context.Context, payload buffer.Buffer) error {
	s.bus.signalFor(s.name).Emit(payload)
	return s.bus.writeFrame(frame{Kind: "publish", Name: s.name, Payload: payload.Frame()})
}

func (s *service) Close() error { return nil }

// NewService registers the named channel and arranges for local
// Publish calls to also be broadcast to the remote peer.
func (b *Bus) NewService(name string) (transport.Service, error) {
	if name == "" {
		return nil, status.Wrapf(status.InvalidParameter, "empty service name")
	}
	b.signalFor(name)
	return &service{bus: b, name: name}, nil
}

type subscription struct {
	*transport.Inbox
	bus  *Bus
	name string
}

var _ transport.Subscription = (*subscription)(nil)

func (s *subscription) Channel() string { return s.name }

func (s *subscription) Close() error {
	s.bus.signalFor(s.name).Disconnect(s)
	s.Inbox.Close()
	return nil
}

// Subscribe attaches fn to the named channel: publications arriving
// from the remote peer, as well as local Publish calls, both invoke
// fn and queue on the subscription's Inbox for polling consumers.
func (b *Bus) Subscribe(name string, fn transport.SubscribeFunc) (transport.Subscription, error) {
	sub := &subscription{Inbox: transport.NewInbox(), bus: b, name: name}
	b.signalFor(name).Connect(sub, func(payload buffer.Buffer) {
		sub.Push(payload)
		if fn != nil {
			fn(payload)
		}
	})
	return sub, nil
}

// HandleRequest registers h to answer RPCs the remote peer addresses
// to name.
func (b *Bus) HandleRequest(name string, h transport.RequestHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests[name] = h
}

// HandleCommand registers h to run commands the remote peer addresses
// to name.
func (b *Bus) HandleCommand(name string, h transport.CommandHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands[name] = h
}

// Request sends a request frame to the remote peer and blocks for its
// reply.
func (b *Bus) Request(ctx context.Context, name string, request buffer.Buffer) (buffer.Buffer, error) {
	id, ch := b.registerPending()
	if err := b.writeFrame(frame{Kind: "request", Name: name, ID: id, Payload: request.Frame()}); err != nil {
		b.forgetPending(id)
		return buffer.Buffer{}, status.Wrap(status.Failure, err)
	}
	select {
	case reply := <-ch:
		if reply.Err != "" {
			return buffer.Buffer{}, status.Wrapf(status.Failure, "%s", reply.Err)
		}
		return buffer.Adopt(reply.Payload), nil
	case <-ctx.Done():
		b.forgetPending(id)
		return buffer.Buffer{}, status.Wrap(status.Timeout, ctx.Err())
	}
}

// Command sends a command frame to the remote peer. When blocking, it
// waits for the remote's acknowledgment reply before returning.
func (b *Bus) Command(ctx context.Context, name string, command buffer.Buffer, blocking bool) error {
	if !blocking {
		return b.writeFrame(frame{Kind: "command", Name: name, Payload: command.Frame()})
	}
	id, ch := b.registerPending()
	if err := b.writeFrame(frame{Kind: "command", Name: name, ID: id, Payload: command.Frame()}); err != nil {
		b.forgetPending(id)
		return status.Wrap(status.Failure, err)
	}
	select {
	case reply := <-ch:
		if reply.Err != "" {
			return status.Wrapf(status.Failure, "%s", reply.Err)
		}
		return nil
	case <-ctx.Done():
		b.forgetPending(id)
		return status.Wrap(status.Timeout, ctx.Err())
	}
}

func (b *Bus) registerPending() (uint64, chan frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	ch := make(chan frame, 1)
	b.pending[id] = ch
	return id, ch
}

func (b *Bus) forgetPending(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, id)
}

// Close closes the underlying websocket connection.
func (b *Bus) Close() (err error) {
	b.closeOnce.Do(func() {
		err = b.conn.Close()
	})
	return err
}
