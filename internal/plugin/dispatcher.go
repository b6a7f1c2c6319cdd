package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/leapball/internal/gesture"
)

// DefaultQueueSize is the number of pending invocations a Dispatcher buffers.
const DefaultQueueSize = 64

// Binding routes one event kind to a plugin action.
type Binding struct {
	Event  gesture.Kind
	Plugin string
	Action string
	Params json.RawMessage
}

// NewBinding builds a Binding, encoding params as the request payload.
func NewBinding(event, plugin, action string, params map[string]any) (Binding, error) {
	kind, err := gesture.ParseKind(event)
	if err != nil {
		return Binding{}, err
	}
	b := Binding{Event: kind, Plugin: plugin, Action: action}
	if len(params) > 0 {
		raw, err := json.Marshal(params)
		if err != nil {
			return Binding{}, fmt.Errorf("encode params for %s: %w", plugin, err)
		}
		b.Params = raw
	}
	return b, nil
}

// Resolver looks plugins up by name.
type Resolver interface {
	Get(name string) (*Plugin, error)
}

// Runner invokes a plugin.
type Runner interface {
	Execute(ctx context.Context, p *Plugin, req *Request) (*Response, error)
}

// DispatcherConfig holds the collaborators of a Dispatcher.
type DispatcherConfig struct {
	Plugins   Resolver
	Runner    Runner
	Bindings  []Binding
	Session   string
	QueueSize int
	Logger    logrus.FieldLogger
}

type job struct {
	binding Binding
	event   gesture.Event
}

// Dispatcher is a gesture.Sink that runs bound plugin actions on a single
// worker goroutine, in event order. Notify never blocks: when the queue is
// full the invocation is dropped.
type Dispatcher struct {
	plugins  Resolver
	runner   Runner
	bindings map[gesture.Kind][]Binding
	session  string
	log      logrus.FieldLogger

	queue  chan job
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool

	executed atomic.Int64
	failed   atomic.Int64
	dropped  atomic.Int64
}

// NewDispatcher starts a Dispatcher. Call Close to stop it.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	bindings := make(map[gesture.Kind][]Binding)
	for _, b := range cfg.Bindings {
		bindings[b.Event] = append(bindings[b.Event], b)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		plugins:  cfg.Plugins,
		runner:   cfg.Runner,
		bindings: bindings,
		session:  cfg.Session,
		log:      logger.WithField("component", "dispatcher"),
		queue:    make(chan job, cfg.QueueSize),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	go d.run()
	return d
}

// Notify queues every action bound to e.Kind.
func (d *Dispatcher) Notify(e gesture.Event) {
	bound := d.bindings[e.Kind]
	if len(bound) == 0 {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	for _, b := range bound {
		select {
		case d.queue <- job{binding: b, event: e}:
		default:
			d.dropped.Add(1)
			d.log.WithFields(logrus.Fields{
				"event":  string(e.Kind),
				"plugin": b.Plugin,
			}).Warn("plugin queue full, dropping action")
		}
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for j := range d.queue {
		d.dispatch(j)
	}
}

func (d *Dispatcher) dispatch(j job) {
	entry := d.log.WithFields(logrus.Fields{
		"event":  string(j.event.Kind),
		"plugin": j.binding.Plugin,
		"action": j.binding.Action,
	})

	p, err := d.plugins.Get(j.binding.Plugin)
	if err != nil {
		d.failed.Add(1)
		entry.WithError(err).Warn("plugin unavailable")
		return
	}
	if !p.Manifest.Supports(j.binding.Action) {
		d.failed.Add(1)
		entry.Warn("plugin does not support action")
		return
	}

	req := &Request{
		Action:   j.binding.Action,
		Event:    string(j.event.Kind),
		Distance: j.event.DistanceTraveled,
		Frame:    j.event.FrameID,
		Session:  d.session,
		Params:   j.binding.Params,
	}
	if _, err := d.runner.Execute(d.ctx, p, req); err != nil {
		d.failed.Add(1)
		entry.WithError(err).Warn("plugin action failed")
		return
	}
	d.executed.Add(1)
	entry.Debug("plugin action done")
}

// Close stops accepting events, runs what is already queued and waits for
// the worker to exit. It is safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
	d.cancel()
}

// DispatchStats counts plugin invocations.
type DispatchStats struct {
	Executed int64 `json:"executed"`
	Failed   int64 `json:"failed"`
	Dropped  int64 `json:"dropped"`
}

// Stats returns invocation counters.
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Executed: d.executed.Load(),
		Failed:   d.failed.Load(),
		Dropped:  d.dropped.Load(),
	}
}
