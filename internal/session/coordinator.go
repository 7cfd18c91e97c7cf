package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vehix-Dev/Admin-Dashboard-sub002/internal/obs"
)

// Storage keys for locally persisted authentication artifacts. Preemption
// clears all of them in one step.
const (
	KeyAuthToken         = "auth_token"
	KeySessionDescriptor = "active_session"
	KeyWarningAck        = "twofactor_warning_ack"
)

// DefaultChannelName identifies the login broadcast channel.
const DefaultChannelName = "vehix-admin-session"

// State is the coordinator's lifecycle position within one context.
type State int

const (
	StateNoSession State = iota
	StateActive
	StateLoggedOut
	StatePreempted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateLoggedOut:
		return "logged_out"
	case StatePreempted:
		return "preempted"
	default:
		return "no_session"
	}
}

// Descriptor identifies one login instance in one context.
type Descriptor struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ArtifactStore is the local persistent key-value store holding auth
// artifacts. A browser would use localStorage; tests use the memory store.
type ArtifactStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Coordinator keeps at most one session per user alive across contexts
// sharing a Bus. The guarantee is best-effort and eventually consistent:
// two simultaneous logins may both look active until each side has
// processed the other's broadcast. Callers must not rely on it for
// security-critical exclusion.
type Coordinator struct {
	store  ArtifactStore
	bus    Bus
	tokens *TokenIssuer
	log    *zap.Logger

	mu        sync.Mutex
	state     State
	current   Descriptor
	onPreempt func()
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithTokenIssuer makes Login persist a signed token artifact.
func WithTokenIssuer(t *TokenIssuer) Option {
	return func(c *Coordinator) { c.tokens = t }
}

// WithPreemptHook registers a callback fired after a session loses the
// single-session race. Navigation back to the login entry point is the
// caller's job.
func WithPreemptHook(fn func()) Option {
	return func(c *Coordinator) { c.onPreempt = fn }
}

// WithLogger overrides the shared logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// New constructs a Coordinator over the given artifact store and bus.
func New(store ArtifactStore, bus Bus, opts ...Option) *Coordinator {
	c := &Coordinator{
		store: store,
		bus:   bus,
		log:   obs.Logger(),
		state: StateNoSession,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes to the bus and watches for competing logins until ctx
// ends. The subscription is the only teardown surface.
func (c *Coordinator) Start(ctx context.Context) {
	if c.bus == nil {
		return
	}
	events := c.bus.Subscribe(ctx)
	go func() {
		for evt := range events {
			c.handle(evt)
		}
	}()
}

// SetUser registers a fresh session descriptor for the user and persists it.
// It does not broadcast; call BroadcastLogin once the login flow commits.
func (c *Coordinator) SetUser(userID, role string) (Descriptor, error) {
	desc := Descriptor{
		UserID:    userID,
		SessionID: uuid.NewString(),
		Timestamp: time.Now().UTC(),
	}

	c.mu.Lock()
	c.current = desc
	c.state = StateActive
	c.mu.Unlock()

	if err := c.persistDescriptor(desc); err != nil {
		// Storage trouble degrades to a memory-only session.
		c.log.Warn("session descriptor not persisted", zap.Error(err))
	}
	if c.tokens != nil {
		token, err := c.tokens.Issue(userID, role, desc.SessionID)
		if err != nil {
			return desc, err
		}
		if err := c.store.Set(KeyAuthToken, token); err != nil {
			c.log.Warn("session token not persisted", zap.Error(err))
		}
	}
	return desc, nil
}

// BroadcastLogin announces the current session on the bus.
func (c *Coordinator) BroadcastLogin() {
	c.mu.Lock()
	desc := c.current
	active := c.state == StateActive
	c.mu.Unlock()
	if !active || c.bus == nil {
		return
	}
	c.bus.Publish(LoginEvent{UserID: desc.UserID, SessionID: desc.SessionID})
}

// Login is SetUser followed by BroadcastLogin.
func (c *Coordinator) Login(userID, role string) (Descriptor, error) {
	desc, err := c.SetUser(userID, role)
	if err != nil {
		return desc, err
	}
	c.BroadcastLogin()
	return desc, nil
}

// Logout clears all persisted artifacts and ends the session.
func (c *Coordinator) Logout() {
	c.mu.Lock()
	c.state = StateLoggedOut
	c.current = Descriptor{}
	c.mu.Unlock()
	c.clearArtifacts()
}

// CheckExistingSession re-reads the persisted descriptor and reports whether
// this context has been superseded by a newer login for userID. Used
// defensively, e.g. on wake from sleep, when broadcasts may have been missed.
func (c *Coordinator) CheckExistingSession(userID string) bool {
	raw, ok := c.store.Get(KeySessionDescriptor)
	if !ok {
		return false
	}
	var persisted Descriptor
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return false
	}
	return persisted.UserID == userID && persisted.SessionID != c.current.SessionID
}

// State reports the coordinator's current lifecycle position.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the session descriptor owned by this context.
func (c *Coordinator) Current() Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Coordinator) handle(evt LoginEvent) {
	c.mu.Lock()
	preempted := c.state == StateActive &&
		evt.UserID == c.current.UserID &&
		evt.SessionID != c.current.SessionID
	if preempted {
		c.state = StatePreempted
		c.current = Descriptor{}
	}
	hook := c.onPreempt
	c.mu.Unlock()

	if !preempted {
		return
	}
	c.clearArtifacts()
	obs.CountSessionPreemption()
	c.log.Info("session preempted by newer login", zap.String("user_id", evt.UserID))
	if hook != nil {
		hook()
	}
}

func (c *Coordinator) persistDescriptor(desc Descriptor) error {
	data, err := json.Marshal(desc)
	if err != nil {
		return err
	}
	return c.store.Set(KeySessionDescriptor, string(data))
}

func (c *Coordinator) clearArtifacts() {
	for _, key := range []string{KeyAuthToken, KeySessionDescriptor, KeyWarningAck} {
		if err := c.store.Delete(key); err != nil {
			c.log.Warn("artifact not cleared", zap.String("key", key), zap.Error(err))
		}
	}
}
