package verification

import (
	"context"
	"fmt"
	"sync"

	evbus "github.com/asaskevich/EventBus"

	"tryon-client/internal/domain/eventbus"
)

// Widget turns challenge-widget events on a bus into a Supplier.
//
// A token event replaces any pending token. Error and expiry events clear the
// pending token and fail every caller waiting at that moment.
//
// A bus carries at most one Widget: EventBus unsubscribes by function code
// pointer, so Close on one of two widgets could drop the other's handlers.
type Widget struct {
	bus evbus.Bus

	mu      sync.Mutex
	pending Token
	failure error
	failGen uint64
	gen     uint64
	wake    chan struct{}

	onToken   func(eventbus.VerificationEventData)
	onError   func(eventbus.VerificationEventData)
	onExpired func(eventbus.VerificationEventData)
}

// NewWidget subscribes to the verification topics on bus.
func NewWidget(bus evbus.Bus) (*Widget, error) {
	if bus == nil {
		return nil, fmt.Errorf("event bus is required")
	}
	for _, topic := range []string{
		eventbus.EventVerificationToken,
		eventbus.EventVerificationError,
		eventbus.EventVerificationExpired,
	} {
		if bus.HasCallback(topic) {
			return nil, fmt.Errorf("%w: %s", ErrBusInUse, topic)
		}
	}
	w := &Widget{bus: bus, wake: make(chan struct{})}
	w.onToken = func(ev eventbus.VerificationEventData) {
		if ev.Token == "" {
			return
		}
		w.signal(Token(ev.Token), nil)
	}
	w.onError = func(ev eventbus.VerificationEventData) {
		w.signal("", withReason(ErrChallengeFailed, ev.Reason))
	}
	w.onExpired = func(ev eventbus.VerificationEventData) {
		w.signal("", withReason(ErrTokenExpired, ev.Reason))
	}

	subs := []struct {
		topic string
		fn    func(eventbus.VerificationEventData)
	}{
		{eventbus.EventVerificationToken, w.onToken},
		{eventbus.EventVerificationError, w.onError},
		{eventbus.EventVerificationExpired, w.onExpired},
	}
	for _, s := range subs {
		if err := bus.Subscribe(s.topic, s.fn); err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", s.topic, err)
		}
	}
	return w, nil
}

func withReason(err error, reason string) error {
	if reason == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, reason)
}

func (w *Widget) signal(token Token, failure error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen++
	w.pending = token
	if failure != nil {
		w.failure = failure
		w.failGen = w.gen
	}
	close(w.wake)
	w.wake = make(chan struct{})
}

// Token takes the pending token, waiting for the widget if none is pending.
func (w *Widget) Token(ctx context.Context) (Token, error) {
	w.mu.Lock()
	startGen := w.gen
	for {
		if w.pending != "" {
			t := w.pending
			w.pending = ""
			w.mu.Unlock()
			return t, nil
		}
		if w.failGen > startGen {
			err := w.failure
			w.mu.Unlock()
			return "", err
		}
		wake := w.wake
		w.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-wake:
		}
		w.mu.Lock()
	}
}

// Pending reports whether a token is ready to be taken.
func (w *Widget) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending != ""
}

// Close unsubscribes from the bus.
func (w *Widget) Close() error {
	var firstErr error
	for topic, fn := range map[string]func(eventbus.VerificationEventData){
		eventbus.EventVerificationToken:   w.onToken,
		eventbus.EventVerificationError:   w.onError,
		eventbus.EventVerificationExpired: w.onExpired,
	} {
		if err := w.bus.Unsubscribe(topic, fn); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Supplier = (*Widget)(nil)
