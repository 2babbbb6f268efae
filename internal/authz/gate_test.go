package authz

import (
	"context"
	"errors"
	"sync"
	"testing"

	"media-library/internal/mediaerr"
	"media-library/internal/testutil"
)

type memStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (m *memStore) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStore) SetMetadata(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

type countingPrompter struct {
	outcome Outcome
	err     error
	calls   map[Capability]int
}

func (p *countingPrompter) Prompt(ctx context.Context, c Capability) (Outcome, error) {
	if p.calls == nil {
		p.calls = make(map[Capability]int)
	}
	p.calls[c]++
	return p.outcome, p.err
}

func newTestGate(t *testing.T, store StateStore, p Prompter, nav SettingsNavigator) *Gate {
	t.Helper()
	g, err := NewGate(context.Background(), store, p, nav)
	if err != nil {
		t.Fatalf("NewGate failed: %v", err)
	}
	return g
}

func TestRequestGrantedOnce(t *testing.T) {
	p := &countingPrompter{outcome: OutcomeAuthorized}
	g := newTestGate(t, newMemStore(), p, nil)
	ctx := context.Background()

	if g.IsAuthorized() {
		t.Error("IsAuthorized() = true before any request")
	}
	if err := g.Request(ctx, true, false); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if err := g.Request(ctx, true, false); err != nil {
		t.Fatalf("second Request failed: %v", err)
	}
	if !g.IsAuthorized() {
		t.Error("IsAuthorized() = false after grant")
	}
	if p.calls[Read] != 1 {
		t.Errorf("prompted %d times, want 1", p.calls[Read])
	}
	if err := g.Require(Write); !errors.Is(err, mediaerr.ErrPermissionDenied) {
		t.Errorf("Require(Write) error = %v, want ErrPermissionDenied", err)
	}
}

func TestRequestNonAuthorizedOutcomesPersistDenied(t *testing.T) {
	for _, outcome := range []Outcome{OutcomeDenied, OutcomeRestricted, OutcomeLimited} {
		t.Run(string(outcome), func(t *testing.T) {
			store := newMemStore()
			p := &countingPrompter{outcome: outcome}
			g := newTestGate(t, store, p, nil)

			err := g.Request(context.Background(), true, false)
			if !errors.Is(err, mediaerr.ErrPermissionDenied) {
				t.Fatalf("Request error = %v, want ErrPermissionDenied", err)
			}
			if got := g.State(Read); got != Denied {
				t.Errorf("State(Read) = %s, want %s", got, Denied)
			}
			if store.values["authorization.read"] != string(Denied) {
				t.Errorf("stored state = %q, want %q", store.values["authorization.read"], Denied)
			}
		})
	}
}

func TestDeniedNeverReprompts(t *testing.T) {
	tests := []struct {
		name       string
		nav        SettingsNavigator
		wantTarget string
	}{
		{"with settings target", URLNavigator{URL: "https://example.test/settings"}, "https://example.test/settings"},
		{"without settings target", URLNavigator{}, ""},
		{"no navigator", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &countingPrompter{outcome: OutcomeDenied}
			g := newTestGate(t, newMemStore(), p, tt.nav)
			ctx := context.Background()

			_ = g.Request(ctx, true, false)
			err := g.Request(ctx, true, false)

			if !errors.Is(err, mediaerr.ErrPermissionDenied) {
				t.Fatalf("Request error = %v, want ErrPermissionDenied", err)
			}
			if p.calls[Read] != 1 {
				t.Errorf("prompted %d times, want 1", p.calls[Read])
			}

			target, ok := RedirectTarget(err)
			if tt.wantTarget != "" {
				if !ok || target != tt.wantTarget {
					t.Errorf("RedirectTarget = %q %v, want %q", target, ok, tt.wantTarget)
				}
			} else {
				if ok {
					t.Errorf("RedirectTarget = %q, want none", target)
				}
				if !errors.Is(err, ErrSettingsUnavailable) {
					t.Errorf("error = %v, want ErrSettingsUnavailable", err)
				}
			}
			if g.IsAuthorized() {
				t.Error("IsAuthorized() = true after redirect")
			}
		})
	}
}

func TestPromptErrorLeavesUndetermined(t *testing.T) {
	p := &countingPrompter{err: ErrNoTerminal}
	g := newTestGate(t, newMemStore(), p, nil)

	err := g.Request(context.Background(), true, false)
	if !errors.Is(err, mediaerr.ErrPermissionDenied) || !errors.Is(err, ErrNoTerminal) {
		t.Errorf("Request error = %v, want PermissionDenied wrapping ErrNoTerminal", err)
	}
	if got := g.State(Read); got != NotDetermined {
		t.Errorf("State(Read) = %s, want %s", got, NotDetermined)
	}
}

func TestRequestWriteOnly(t *testing.T) {
	p := &countingPrompter{outcome: OutcomeAuthorized}
	g := newTestGate(t, newMemStore(), p, nil)

	if err := g.Request(context.Background(), false, true); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if err := g.Require(Write); err != nil {
		t.Errorf("Require(Write) = %v, want nil", err)
	}
	if g.IsAuthorized() {
		t.Error("IsAuthorized() = true, read was never requested")
	}
	if p.calls[Read] != 0 {
		t.Errorf("read prompted %d times, want 0", p.calls[Read])
	}
}

func TestDecisionSurvivesRestart(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	first := newTestGate(t, store, &countingPrompter{outcome: OutcomeDenied}, nil)
	_ = first.Request(ctx, true, false)

	p := &countingPrompter{outcome: OutcomeAuthorized}
	second := newTestGate(t, store, p, nil)
	if got := second.State(Read); got != Denied {
		t.Fatalf("State(Read) after restart = %s, want %s", got, Denied)
	}
	if err := second.Request(ctx, true, false); err == nil {
		t.Error("Request succeeded for a persisted denial")
	}
	if p.calls[Read] != 0 {
		t.Errorf("prompted %d times after restart, want 0", p.calls[Read])
	}

	if err := second.Reset(ctx, Read); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if err := second.Request(ctx, true, false); err != nil {
		t.Errorf("Request after Reset = %v, want nil", err)
	}
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		line string
		want Outcome
	}{
		{"y", OutcomeAuthorized},
		{"YES", OutcomeAuthorized},
		{"  yes ", OutcomeAuthorized},
		{"n", OutcomeDenied},
		{"", OutcomeDenied},
		{"maybe", OutcomeDenied},
	}
	for _, tt := range tests {
		if got := parseAnswer(tt.line); got != tt.want {
			t.Errorf("parseAnswer(%q) = %s, want %s", tt.line, got, tt.want)
		}
	}
}

func TestPrompterForMode(t *testing.T) {
	ctx := context.Background()

	grant, err := PrompterForMode("grant")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := grant.Prompt(ctx, Read); got != OutcomeAuthorized {
		t.Errorf("grant outcome = %s, want %s", got, OutcomeAuthorized)
	}

	deny, err := PrompterForMode("DENY")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := deny.Prompt(ctx, Read); got != OutcomeDenied {
		t.Errorf("deny outcome = %s, want %s", got, OutcomeDenied)
	}

	if p, err := PrompterForMode("prompt"); err != nil {
		t.Errorf("prompt mode error = %v", err)
	} else if _, ok := p.(TerminalPrompter); !ok {
		t.Errorf("prompt mode returned %T, want TerminalPrompter", p)
	}

	if _, err := PrompterForMode("sometimes"); err == nil {
		t.Error("unknown mode should fail")
	}
}
