// Package transport defines the capability interfaces of §4.7's four
// primitives (Service, Subscription, request handler/Request, command
// handler/Command), implemented by two interchangeable back-ends:
// binarybus (net/rpc-based, in internal/transport/binarybus) and wsbus
// (gorilla/websocket-based, in internal/transport/wsbus). Their
// observable contracts are identical modulo the set of transport
// errors each surfaces (§4.7).
package transport

import (
	"context"
	"errors"

	"github.com/dqm4hep/dqm4hep-go/internal/buffer"
)

// errClosed is returned by Inbox.Take when the inbox closes with no
// pending value and no context deadline explains the wakeup.
var errClosed = errors.New("transport: inbox closed")

// Service is the server side of a named publication channel: every
// connected client receives every published value, in publication
// order (§4.7, §5).
type Service interface {
	Name() string
	Publish(ctx context.Context, payload buffer.Buffer) error
	Close() error
}

// Subscription is the client side of a named publication channel: a
// slot invoked on each publication, on the client's dispatch thread
// (§4.7), plus the polling inbox supplemented from DQMEventClient
// (§C.3): every back-end embeds an *Inbox to get these for free.
type Subscription interface {
	Channel() string
	Close() error

	SetMaximumQueueSize(n int)
	ClearQueue()
	SetUpdateMode(enabled bool)
	TryTake() (buffer.Buffer, bool)
	Take(ctx context.Context) (buffer.Buffer, error)
}

// SubscribeFunc is the slot a Subscription invokes per publication.
type SubscribeFunc func(payload buffer.Buffer)

// RequestHandler answers a name-addressed RPC: given the request
// Buffer, it produces a response Buffer (§4.7).
type RequestHandler func(ctx context.Context, request buffer.Buffer) (buffer.Buffer, error)

// Requester issues blocking RPCs against a named request handler.
type Requester interface {
	Request(ctx context.Context, name string, request buffer.Buffer) (buffer.Buffer, error)
}

// CommandHandler handles a fire-and-forget command (§4.7). The
// blocking argument of Commander.Command selects between the two
// variants named in the spec: blocking commands wait for the handler
// to run before Commander.Command returns; non-blocking commands do
// not.
type CommandHandler func(ctx context.Context, command buffer.Buffer) error

// Commander issues fire-and-forget commands, blocking or not depending
// on the blocking argument.
type Commander interface {
	Command(ctx context.Context, name string, command buffer.Buffer, blocking bool) error
}

// Bus is a complete transport back-end: it can host Services and
// accept Subscriptions to them (pub/sub), and can register/dispatch
// RequestHandlers and CommandHandlers (RPC and fire-and-forget).
// binarybus and wsbus both implement Bus.
type Bus interface {
	Requester
	Commander

	NewService(name string) (Service, error)
	Subscribe(name string, fn SubscribeFunc) (Subscription, error)
	HandleRequest(name string, h RequestHandler)
	HandleCommand(name string, h CommandHandler)

	Close() error
}
