package authz

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"media-library/internal/logging"
	"media-library/internal/mediaerr"
	"media-library/internal/metrics"
)

// Capability is an independently authorized kind of access.
type Capability string

const (
	Read  Capability = "read"
	Write Capability = "write"
)

// State is the stored authorization decision for a capability.
type State string

const (
	NotDetermined State = "not_determined"
	Authorized    State = "authorized"
	Denied        State = "denied"
)

// Outcome is a prompt answer.
type Outcome string

const (
	OutcomeAuthorized Outcome = "authorized"
	OutcomeDenied     Outcome = "denied"
	OutcomeRestricted Outcome = "restricted"
	OutcomeLimited    Outcome = "limited"
)

// Prompter asks the user to grant a capability.
type Prompter interface {
	Prompt(ctx context.Context, c Capability) (Outcome, error)
}

// SettingsNavigator yields where a user can revisit a denial.
type SettingsNavigator interface {
	SettingsTarget(ctx context.Context) (target string, ok bool)
}

// StateStore persists decisions.
type StateStore interface {
	GetMetadata(ctx context.Context, key string) (string, bool, error)
	SetMetadata(ctx context.Context, key, value string) error
}

// ErrSettingsUnavailable is the cause of a denial with no redirect target.
var ErrSettingsUnavailable = errors.New("could not open settings")

// RedirectError is the cause of a denial that carries a settings target.
type RedirectError struct {
	Target string
}

func (e *RedirectError) Error() string {
	return "change the decision in settings: " + e.Target
}

// RedirectTarget returns the settings target carried by err, if any.
func RedirectTarget(err error) (string, bool) {
	var r *RedirectError
	if errors.As(err, &r) {
		return r.Target, true
	}
	return "", false
}

// Gate tracks and enforces capability decisions.
type Gate struct {
	store     StateStore
	prompter  Prompter
	navigator SettingsNavigator

	mu     sync.RWMutex
	states map[Capability]State

	// promptMu serialises prompts so a capability is asked at most once.
	promptMu sync.Mutex
}

// NewGate loads stored decisions and returns a gate.
func NewGate(ctx context.Context, store StateStore, prompter Prompter, navigator SettingsNavigator) (*Gate, error) {
	g := &Gate{
		store:     store,
		prompter:  prompter,
		navigator: navigator,
		states:    make(map[Capability]State),
	}

	for _, c := range []Capability{Read, Write} {
		value, ok, err := store.GetMetadata(ctx, stateKey(c))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s authorization: %w", c, err)
		}
		state := NotDetermined
		if ok {
			switch State(value) {
			case Authorized, Denied:
				state = State(value)
			}
		}
		g.states[c] = state
		logging.Debug("Authorization %s: %s", c, state)
	}

	return g, nil
}

func stateKey(c Capability) string {
	return "authorization." + string(c)
}

// State returns the current decision for c.
func (g *Gate) State(c Capability) State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if s, ok := g.states[c]; ok {
		return s
	}
	return NotDetermined
}

// IsAuthorized reports whether read access has been granted.
func (g *Gate) IsAuthorized() bool {
	return g.State(Read) == Authorized
}

// Require fails unless c has been granted. It never prompts.
func (g *Gate) Require(c Capability) error {
	if g.State(c) == Authorized {
		return nil
	}
	return mediaerr.New(mediaerr.ErrPermissionDenied, "authz.Require", fmt.Errorf("%s access not granted", c))
}

// Request obtains every wanted capability, prompting for undetermined ones.
func (g *Gate) Request(ctx context.Context, wantRead, wantWrite bool) error {
	var wanted []Capability
	if wantRead {
		wanted = append(wanted, Read)
	}
	if wantWrite {
		wanted = append(wanted, Write)
	}

	for _, c := range wanted {
		if err := g.request(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gate) request(ctx context.Context, c Capability) error {
	g.promptMu.Lock()
	defer g.promptMu.Unlock()

	switch g.State(c) {
	case Authorized:
		metrics.AuthorizationRequestsTotal.WithLabelValues(string(c), "authorized").Inc()
		return nil

	case Denied:
		return g.denied(ctx, c)
	}

	if g.prompter == nil {
		metrics.AuthorizationRequestsTotal.WithLabelValues(string(c), "error").Inc()
		return mediaerr.New(mediaerr.ErrPermissionDenied, "authz.Request", errors.New("no prompter configured"))
	}

	outcome, err := g.prompter.Prompt(ctx, c)
	if err != nil {
		metrics.AuthorizationRequestsTotal.WithLabelValues(string(c), "error").Inc()
		return mediaerr.New(mediaerr.ErrPermissionDenied, "authz.Request", err)
	}

	state := Denied
	if outcome == OutcomeAuthorized {
		state = Authorized
	}
	if err := g.setState(ctx, c, state); err != nil {
		metrics.AuthorizationRequestsTotal.WithLabelValues(string(c), "error").Inc()
		return fmt.Errorf("failed to store %s authorization: %w", c, err)
	}

	logging.Info("Authorization %s: prompt answered %s", c, outcome)

	if state == Authorized {
		metrics.AuthorizationRequestsTotal.WithLabelValues(string(c), "authorized").Inc()
		return nil
	}
	metrics.AuthorizationRequestsTotal.WithLabelValues(string(c), "denied").Inc()
	return mediaerr.New(mediaerr.ErrPermissionDenied, "authz.Request", fmt.Errorf("%s access %s", c, outcome))
}

// denied handles a request for a capability that was already refused.
func (g *Gate) denied(ctx context.Context, c Capability) error {
	if g.navigator != nil {
		if target, ok := g.navigator.SettingsTarget(ctx); ok {
			metrics.AuthorizationRequestsTotal.WithLabelValues(string(c), "redirected").Inc()
			return mediaerr.New(mediaerr.ErrPermissionDenied, "authz.Request", &RedirectError{Target: target})
		}
	}
	metrics.AuthorizationRequestsTotal.WithLabelValues(string(c), "denied").Inc()
	return mediaerr.New(mediaerr.ErrPermissionDenied, "authz.Request", ErrSettingsUnavailable)
}

func (g *Gate) setState(ctx context.Context, c Capability, s State) error {
	if err := g.store.SetMetadata(ctx, stateKey(c), string(s)); err != nil {
		return err
	}
	g.mu.Lock()
	g.states[c] = s
	g.mu.Unlock()
	return nil
}

// Reset returns c to NotDetermined so the next request prompts again.
// This is the out-of-band settings change a redirect points the user at.
func (g *Gate) Reset(ctx context.Context, c Capability) error {
	g.promptMu.Lock()
	defer g.promptMu.Unlock()
	return g.setState(ctx, c, NotDetermined)
}
