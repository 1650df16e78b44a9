// Package agent implements the agent runtime and message fabric: the
// per-agent lifecycle, subscribe/publish semantics, and the synchronous
// request/reply built atop the NATS pub/sub connection held by pkg/natsutil.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mfshiu/wastepro/engine/domain"
	"github.com/mfshiu/wastepro/pkg/natsutil"
)

// Handler processes an inbound parcel on a topic. A non-nil result is
// published back to the parcel's TopicReturn, if any. Handler errors are
// logged and swallowed by the runtime; they never crash the agent.
type Handler func(ctx context.Context, topic string, p domain.Parcel) (map[string]any, error)

var counters sync.Map // name -> *int64

func nextID(name string) string {
	v, _ := counters.LoadOrStore(name, new(int64))
	n := atomic.AddInt64(v.(*int64), 1)
	return fmt.Sprintf("%s-%d", name, n)
}

// Agent is a long-lived actor with one identity, one inbox per
// subscription, and a set of handlers, communicating over a shared NATS
// connection.
type Agent struct {
	Name    string
	ID      string
	nc      *nats.Conn
	log     *slog.Logger
	mu      sync.Mutex
	state   domain.AgentState
	subs    map[string]*nats.Subscription

	OnActivate  func(ctx context.Context) error
	OnConnected func(ctx context.Context) error
	OnMessage   func(ctx context.Context, topic string, p domain.Parcel)
	OnTerminate func(ctx context.Context) error
}

// New creates an agent identified by name + a monotonically increasing
// per-name counter, matching spec's "agent_id = name + '-' + counter".
func New(name string, nc *nats.Conn, log *slog.Logger) *Agent {
	if log == nil {
		log = slog.Default()
	}
	return &Agent{
		Name:  name,
		ID:    nextID(name),
		nc:    nc,
		log:   log,
		state: domain.StateCreated,
		subs:  make(map[string]*nats.Subscription),
	}
}

func (a *Agent) State() domain.AgentState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Activate transitions created -> activating -> active, invoking the
// lifecycle hooks in order. No message is delivered before the state
// becomes active.
func (a *Agent) Activate(ctx context.Context) error {
	a.mu.Lock()
	a.state = domain.StateActivating
	a.mu.Unlock()

	if a.OnActivate != nil {
		if err := a.OnActivate(ctx); err != nil {
			return fmt.Errorf("%s: on_activate: %w", a.Name, err)
		}
	}

	a.mu.Lock()
	a.state = domain.StateActive
	a.mu.Unlock()

	if a.OnConnected != nil {
		if err := a.OnConnected(ctx); err != nil {
			return fmt.Errorf("%s: on_connected: %w", a.Name, err)
		}
	}
	return nil
}

// Subscribe is idempotent: a second call for the same topic replaces the
// prior handler. When handler returns a non-nil result and the incoming
// parcel carried TopicReturn, the result is published there wrapped as a
// parcel of matching shape.
func (a *Agent) Subscribe(topic string, handler Handler) error {
	a.mu.Lock()
	if old, ok := a.subs[topic]; ok {
		_ = old.Unsubscribe()
		delete(a.subs, topic)
	}
	a.mu.Unlock()

	sub, err := natsutil.Subscribe(a.nc, topic, func(ctx context.Context, p domain.Parcel) {
		if a.State() != domain.StateActive {
			return
		}
		if a.OnMessage != nil {
			a.OnMessage(ctx, topic, p)
		}
		result, err := a.safeInvoke(ctx, topic, p, handler)
		if err != nil {
			a.log.Error("handler error", "agent", a.Name, "topic", topic, "error", err)
			if p.TopicReturn != "" {
				_ = natsutil.Publish(ctx, a.nc, p.TopicReturn, domain.NewErrorParcel(err))
			}
			return
		}
		if result != nil && p.TopicReturn != "" {
			_ = natsutil.Publish(ctx, a.nc, p.TopicReturn, domain.NewTextParcel(result))
		}
	})
	if err != nil {
		return fmt.Errorf("%s: subscribe %s: %w", a.Name, topic, err)
	}

	a.mu.Lock()
	a.subs[topic] = sub
	a.mu.Unlock()
	return nil
}

// safeInvoke recovers from handler panics so one misbehaving handler never
// terminates the agent, matching the "handler exceptions are logged and
// swallowed" failure model.
func (a *Agent) safeInvoke(ctx context.Context, topic string, p domain.Parcel, handler Handler) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, topic, p)
}

// Publish is fire-and-forget.
func (a *Agent) Publish(ctx context.Context, topic string, p domain.Parcel) error {
	return natsutil.Publish(ctx, a.nc, topic, p)
}

// PublishSync allocates a private reply topic, subscribes to it, sets
// parcel.TopicReturn, publishes, then blocks until a parcel arrives on the
// reply topic or timeout elapses. The reply subscription is always removed
// before return.
func (a *Agent) PublishSync(ctx context.Context, topic string, p domain.Parcel, timeout time.Duration) (domain.Parcel, error) {
	reply := nats.NewInbox()
	p.TopicReturn = reply
	p.AgentID = a.ID

	replyCh := make(chan domain.Parcel, 1)
	sub, err := natsutil.Subscribe(a.nc, reply, func(_ context.Context, resp domain.Parcel) {
		select {
		case replyCh <- resp:
		default:
		}
	})
	if err != nil {
		return domain.Parcel{}, fmt.Errorf("%s: %w: subscribe reply: %v", a.Name, domain.ErrTransport, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	if err := natsutil.Publish(ctx, a.nc, topic, p); err != nil {
		return domain.Parcel{}, fmt.Errorf("%s: %w: publish: %v", a.Name, domain.ErrTransport, err)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case resp := <-replyCh:
		if resp.HasError() {
			return resp, fmt.Errorf("%s", resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		return domain.Parcel{}, fmt.Errorf("%s: %w: %v", a.Name, domain.ErrTimeout, ctx.Err())
	case <-deadline.C:
		return domain.Parcel{}, fmt.Errorf("%s: %w: no reply on %s within %s", a.Name, domain.ErrTimeout, topic, timeout)
	}
}

// Terminate unsubscribes all topics and transitions to terminated.
func (a *Agent) Terminate(ctx context.Context) error {
	a.mu.Lock()
	a.state = domain.StateTerminating
	subs := a.subs
	a.subs = make(map[string]*nats.Subscription)
	a.mu.Unlock()

	for topic, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			a.log.Warn("unsubscribe failed", "agent", a.Name, "topic", topic, "error", err)
		}
	}

	if a.OnTerminate != nil {
		if err := a.OnTerminate(ctx); err != nil {
			a.log.Warn("on_terminate failed", "agent", a.Name, "error", err)
		}
	}

	a.mu.Lock()
	a.state = domain.StateTerminated
	a.mu.Unlock()
	return nil
}

// IsActive reports whether the agent is currently dispatching messages.
func (a *Agent) IsActive() bool { return a.State() == domain.StateActive }
