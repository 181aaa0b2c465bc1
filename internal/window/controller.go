// internal/window/controller.go
package window

import (
	"context"
	"sync"
	"time"

	"github.com/OsbornePro/quickcopy/internal/events"
	"github.com/OsbornePro/quickcopy/internal/handoff"
	"github.com/sirupsen/logrus"
)

// Host is the windowing subsystem that owns the auxiliary window. The
// controller never keeps a handle; it asks the host every time.
type Host interface {
	Exists(label string) bool
	Create(ctx context.Context, opts Options) error
	Close(label string) error
}

// Broadcaster delivers an event to every window of the application.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, event any) error
}

// State is the logical state of the auxiliary window. It is derived from the
// host and the hand-off store on every call, never stored.
type State string

const (
	StateAbsent          State = "absent"
	StatePresentPending  State = "present-pending"
	StatePresentConsumed State = "present-consumed"
)

// broadcastTimeout bounds the closure broadcast. It runs detached from the
// caller's context: the usual caller is the window being closed, whose
// request dies with it.
const broadcastTimeout = 2 * time.Second

// Controller coordinates the auxiliary window with the hand-off store.
type Controller struct {
	store *handoff.Store
	host  Host
	bus   Broadcaster
	opts  Options
	log   *logrus.Entry

	// mu serializes Open, Close and HostClosed so a replacement window is
	// never observed half-built by another lifecycle call.
	mu sync.Mutex
}

// NewController wires a controller. A nil bus disables the closure broadcast;
// unset options fall back to DefaultOptions.
func NewController(store *handoff.Store, host Host, bus Broadcaster, opts Options) *Controller {
	if bus == nil {
		bus = &events.NoopPublisher{}
	}
	opts = opts.withDefaults()
	return &Controller{
		store: store,
		host:  host,
		bus:   bus,
		opts:  opts,
		log:   logrus.WithField("window", opts.Label),
	}
}

// Options returns the presentation used for new windows.
func (c *Controller) Options() Options { return c.opts }

// Open replaces any existing auxiliary window with a new one that will pick
// up payload. Content loading is not awaited.
//
// If creation fails the payload stays pending; the next Open or Close
// supersedes it.
func (c *Controller) Open(ctx context.Context, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	label := c.opts.Label
	if c.host.Exists(label) {
		if err := c.host.Close(label); err != nil {
			c.log.WithError(err).Warn("closing previous window failed; replacing anyway")
		}
	}

	c.store.Set(payload)

	if err := c.host.Create(ctx, c.opts); err != nil {
		c.log.WithError(err).Error("window creation failed")
		return &Error{Op: "create", Label: label, Err: err}
	}

	c.log.WithField("payload_len", len(payload)).Info("window opened")
	return nil
}

// FetchPending hands the pending payload to the auxiliary window, once.
// handoff.ErrEmpty means there is nothing to display.
func (c *Controller) FetchPending() (string, error) {
	payload, err := c.store.Take()
	if err != nil {
		c.log.Debug("fetch with no pending payload")
		return "", err
	}
	c.log.WithField("payload_len", len(payload)).Debug("payload delivered")
	return payload, nil
}

// Close drops any pending payload, destroys the window if it exists and tells
// every window that the quick copy window is gone. It succeeds when no window
// exists.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Clear()

	label := c.opts.Label
	if c.host.Exists(label) {
		if err := c.host.Close(label); err != nil {
			c.log.WithError(err).Error("window close failed")
			return &Error{Op: "close", Label: label, Err: err}
		}
		c.log.Info("window closed")
	}

	c.broadcastClosed(ctx)
	return nil
}

// HostClosed is called by the host when the window disappeared without a
// Close (force close, crash). The slot is cleared and the closure broadcast
// sent, unless a replacement window already took its place.
func (c *Controller) HostClosed(label string) {
	if label != c.opts.Label {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.host.Exists(label) {
		return
	}
	c.store.Clear()
	c.log.Warn("window destroyed outside Close; pending payload dropped")
	c.broadcastClosed(context.Background())
}

// State reports the logical window state.
func (c *Controller) State() State {
	if !c.host.Exists(c.opts.Label) {
		return StateAbsent
	}
	if c.store.Pending() {
		return StatePresentPending
	}
	return StatePresentConsumed
}

func (c *Controller) broadcastClosed(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), broadcastTimeout)
	defer cancel()
	if err := c.bus.Publish(ctx, events.TopicQuickCopyClosed, events.QuickCopyClosed{}); err != nil {
		c.log.WithError(err).Warn("closed broadcast failed")
	}
}
