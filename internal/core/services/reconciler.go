package services

import (
	"context"
	"sync"

	"github.com/itsunani-labs/itsunani-cli/internal/core/domain"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driven"
	"github.com/itsunani-labs/itsunani-cli/internal/core/ports/driving"
	"github.com/itsunani-labs/itsunani-cli/internal/logger"
)

// Ensure SessionReconciler implements the interface.
var _ driving.SessionMonitor = (*SessionReconciler)(nil)

// subscriberBuffer is the per-subscriber channel capacity. Transitions
// beyond it queue inside the subscription, so a slow consumer delays only
// its own channel; no transition is ever lost or coalesced.
const subscriberBuffer = 16

// SessionReconciler folds the identity client's change events into a single
// process-wide session state and broadcasts every transition to each
// subscriber in order.
type SessionReconciler struct {
	identity driven.IdentityClient

	mu          sync.Mutex
	state       domain.AuthState
	subscribers map[int]*subscription
	nextSubID   int

	ready       chan struct{}
	readyOnce   sync.Once
	unsubscribe func()
}

// NewSessionReconciler creates a reconciler in the unknown state.
// Call Start to begin the initial restoration.
func NewSessionReconciler(identity driven.IdentityClient) *SessionReconciler {
	return &SessionReconciler{
		identity:    identity,
		state:       domain.AuthState{Status: domain.AuthUnknown},
		subscribers: make(map[int]*subscription),
		ready:       make(chan struct{}),
	}
}

// Start registers the fold callback with the identity client and kicks off
// the asynchronous session restoration. Until the restoration resolves the
// state is unknown and WaitReady blocks.
func (r *SessionReconciler) Start(ctx context.Context) {
	r.unsubscribe = r.identity.OnAuthStateChange(r.apply)

	go func() {
		session, err := r.identity.RestoreSession(ctx)
		if err != nil {
			logger.Warn("Session restore failed: %v", err)
			session = nil
		}
		r.apply(domain.AuthEventInitialSession, session)
	}()
}

// Close releases the fold callback and all subscriber channels.
func (r *SessionReconciler) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, sub := range r.subscribers {
		sub.stop()
		delete(r.subscribers, id)
	}
}

// Current returns the folded session state.
func (r *SessionReconciler) Current() domain.AuthState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe registers a new observer. Every transition folded after this
// call is delivered exactly once, in order. The cancel function releases
// the subscription and closes the channel; each consumer owns its own
// subscription lifetime.
func (r *SessionReconciler) Subscribe() (<-chan domain.AuthChange, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSubID
	r.nextSubID++
	sub := newSubscription()
	r.subscribers[id] = sub

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subscribers[id]; ok {
			delete(r.subscribers, id)
			sub.stop()
		}
	}
	return sub.out, cancel
}

// WaitReady blocks until the initial restoration read has resolved.
func (r *SessionReconciler) WaitReady(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// apply folds one (event, session) pair into the state and enqueues the
// transition for every subscriber. Enqueueing never blocks, so Current,
// Subscribe and cancel stay responsive regardless of consumer speed.
func (r *SessionReconciler) apply(event domain.AuthEvent, session *domain.Session) {
	r.mu.Lock()

	if session != nil {
		r.state = domain.AuthState{
			Status: domain.AuthPresent,
			UserID: session.UserID,
			Email:  session.Email,
		}
	} else {
		r.state = domain.AuthState{Status: domain.AuthAbsent}
	}
	change := domain.AuthChange{Event: event, State: r.state}

	logger.Debug("Auth event: %s (status=%s)", event, r.state.Status)

	for _, sub := range r.subscribers {
		sub.push(change)
	}
	r.mu.Unlock()

	if event == domain.AuthEventInitialSession {
		r.readyOnce.Do(func() { close(r.ready) })
	}
}

// subscription carries transitions from the fold to one consumer through an
// ordered queue drained by a dedicated goroutine, so a consumer that stops
// draining never stalls the reconciler or other subscribers.
type subscription struct {
	mu    sync.Mutex
	queue []domain.AuthChange

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	out      chan domain.AuthChange
}

func newSubscription() *subscription {
	s := &subscription{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan domain.AuthChange, subscriberBuffer),
	}
	go s.run()
	return s
}

// push appends a transition to the queue. Never blocks.
func (s *subscription) push(change domain.AuthChange) {
	s.mu.Lock()
	s.queue = append(s.queue, change)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// stop ends delivery. Transitions not yet handed to the consumer are
// dropped; the drain goroutine closes out.
func (s *subscription) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// run delivers queued transitions in order. Only this goroutine sends on
// out, so it alone closes it.
func (s *subscription) run() {
	for {
		s.mu.Lock()
		var change domain.AuthChange
		has := len(s.queue) > 0
		if has {
			change = s.queue[0]
			s.queue = s.queue[1:]
		}
		s.mu.Unlock()

		if !has {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				close(s.out)
				return
			}
		}

		select {
		case s.out <- change:
		case <-s.done:
			close(s.out)
			return
		}
	}
}
