// Package notification implements the transient status message shown after user actions.
//
// A Display is a small state machine with two states, idle and showing. Show moves it to showing
// and (re)starts the single expiry timer; when the timer fires the Display returns to idle.
// There is no queue: a new notification replaces the current one and restarts the countdown.
package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-desk/clock"
)

// DefaultTTL is how long a notification stays visible if nothing replaces it.
const DefaultTTL = 3 * time.Second

const defaultSubscriberBuffer = 16

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// State is the state of a Display.
type State int

const (
	StateIdle State = iota
	StateShowing
)

func (s State) String() string {
	if s == StateShowing {
		return "showing"
	}

	return "idle"
}

// Notification is one displayed message.
type Notification struct {
	ID        uuid.UUID
	Text      string
	Kind      Kind
	ShownAt   time.Time
	ExpiresAt time.Time
}

// ChangeType names a transition of the Display.
type ChangeType string

const (
	ChangeShown   ChangeType = "shown"
	ChangeExpired ChangeType = "expired"
	ChangeCleared ChangeType = "cleared"
)

// Change is delivered to subscribers on every transition.
// For ChangeExpired and ChangeCleared, Notification is the one that disappeared.
type Change struct {
	Type         ChangeType
	Notification Notification
	At           time.Time
}

// Display holds at most one notification and expires it after the TTL.
// It is safe for concurrent use.
type Display struct {
	clock            clock.Clock
	ttl              time.Duration
	newID            func() uuid.UUID
	subscriberBuffer int

	mu          sync.Mutex
	state       State
	current     Notification
	timer       clock.Timer
	generation  uint64
	subscribers map[uint64]chan Change
	nextSubID   uint64
	closed      bool
}

// Option configures a Display.
type Option func(*Display)

// WithClock replaces the system clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(d *Display) {
		d.clock = c
	}
}

// WithTTL sets the display duration. Non-positive values keep DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(d *Display) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithIDGenerator replaces uuid.New as the source of notification ids.
func WithIDGenerator(generate func() uuid.UUID) Option {
	return func(d *Display) {
		d.newID = generate
	}
}

// WithSubscriberBuffer sets the channel capacity of new subscriptions.
func WithSubscriberBuffer(size int) Option {
	return func(d *Display) {
		if size > 0 {
			d.subscriberBuffer = size
		}
	}
}

// NewDisplay creates an idle Display.
func NewDisplay(opts ...Option) *Display {
	d := &Display{
		clock:            clock.System(),
		ttl:              DefaultTTL,
		newID:            uuid.New,
		subscriberBuffer: defaultSubscriberBuffer,
		subscribers:      make(map[uint64]chan Change),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// TTL returns the configured display duration.
func (d *Display) TTL() time.Duration {
	return d.ttl
}

// Show displays a notification, replacing the current one and restarting the expiry timer.
// Showing the text that is already displayed keeps the running timer and deadline;
// only the kind is updated and no Change is published.
// After Close, Show returns the notification without displaying it.
func (d *Display) Show(text string, kind Kind) Notification {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.closed && d.state == StateShowing && d.current.Text == text {
		d.current.Kind = kind
		return d.current
	}

	now := d.clock.Now()
	n := Notification{
		ID:        d.newID(),
		Text:      text,
		Kind:      kind,
		ShownAt:   now,
		ExpiresAt: now.Add(d.ttl),
	}

	if d.closed {
		return n
	}

	d.stopTimer()
	d.generation++
	generation := d.generation

	d.state = StateShowing
	d.current = n
	d.timer = d.clock.AfterFunc(d.ttl, func() {
		d.expire(generation)
	})

	d.publish(Change{Type: ChangeShown, Notification: n, At: now})

	return n
}

// Success shows a success notification.
func (d *Display) Success(text string) Notification {
	return d.Show(text, KindSuccess)
}

// Error shows an error notification.
func (d *Display) Error(text string) Notification {
	return d.Show(text, KindError)
}

// Current returns the displayed notification, if any.
func (d *Display) Current() (Notification, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateShowing {
		return Notification{}, false
	}

	return d.current, true
}

// State returns the current state.
func (d *Display) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state
}

// Clear removes the displayed notification before it expires.
func (d *Display) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateShowing {
		return
	}

	d.stopTimer()
	cleared := d.current
	d.toIdle()
	d.publish(Change{Type: ChangeCleared, Notification: cleared, At: d.clock.Now()})
}

// Subscribe returns a channel receiving every subsequent Change and a function ending the subscription.
// Changes are dropped for a subscriber whose buffer is full.
// The channel is closed by the cancel function or by Close.
func (d *Display) Subscribe() (<-chan Change, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ch := make(chan Change, d.subscriberBuffer)

	if d.closed {
		close(ch)
		return ch, func() {}
	}

	id := d.nextSubID
	d.nextSubID++
	d.subscribers[id] = ch

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()

			if sub, ok := d.subscribers[id]; ok {
				delete(d.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close stops the timer, returns to idle and ends all subscriptions.
func (d *Display) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.closed = true
	d.stopTimer()
	d.toIdle()

	for id, sub := range d.subscribers {
		delete(d.subscribers, id)
		close(sub)
	}
}

func (d *Display) expire(generation uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// a stale timer whose Stop lost the race against firing
	if generation != d.generation || d.state != StateShowing {
		return
	}

	expired := d.current
	d.timer = nil
	d.toIdle()
	d.publish(Change{Type: ChangeExpired, Notification: expired, At: d.clock.Now()})
}

func (d *Display) stopTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Display) toIdle() {
	d.generation++
	d.state = StateIdle
	d.current = Notification{}
}

func (d *Display) publish(change Change) {
	for _, sub := range d.subscribers {
		select {
		case sub <- change:
		default:
		}
	}
}
