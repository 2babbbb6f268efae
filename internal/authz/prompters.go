package authz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Authorization modes accepted by AUTH_MODE.
const (
	ModeGrant  = "grant"
	ModeDeny   = "deny"
	ModePrompt = "prompt"
)

// ErrNoTerminal is returned by TerminalPrompter when stdin is not a TTY.
var ErrNoTerminal = errors.New("authorization prompt requires a terminal")

// PolicyPrompter answers every prompt from a fixed policy, for headless
// servers.
type PolicyPrompter struct {
	Outcome Outcome
}

// Prompt returns the configured outcome.
func (p PolicyPrompter) Prompt(ctx context.Context, c Capability) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.Outcome, nil
}

// TerminalPrompter asks on an interactive terminal.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

// Prompt asks a yes/no question and reads the answer in raw mode.
func (p TerminalPrompter) Prompt(ctx context.Context, c Capability) (Outcome, error) {
	in := p.In
	if in == nil {
		in = os.Stdin
	}
	out := p.Out
	if out == nil {
		out = os.Stdout
	}

	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNoTerminal
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return "", fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, fmt.Sprintf("Allow %s access to the media library? [y/N] ", c))

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := t.ReadLine()
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-ch:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return "", a.err
		}
		return parseAnswer(a.line), nil
	}
}

func parseAnswer(line string) Outcome {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return OutcomeAuthorized
	default:
		return OutcomeDenied
	}
}

// PrompterForMode builds the prompter selected by AUTH_MODE.
func PrompterForMode(mode string) (Prompter, error) {
	switch strings.ToLower(mode) {
	case ModeGrant, "":
		return PolicyPrompter{Outcome: OutcomeAuthorized}, nil
	case ModeDeny:
		return PolicyPrompter{Outcome: OutcomeDenied}, nil
	case ModePrompt:
		return TerminalPrompter{}, nil
	}
	return nil, fmt.Errorf("unknown authorization mode %q", mode)
}

// URLNavigator points denied callers at a fixed settings URL.
type URLNavigator struct {
	URL string
}

// SettingsTarget returns the URL, if configured.
func (n URLNavigator) SettingsTarget(ctx context.Context) (string, bool) {
	return n.URL, n.URL != ""
}
