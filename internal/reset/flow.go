// Package reset implements the OTP-verified password reset flow.
//
// The passcode the user enters is compared locally against the one embedded in the persisted challenge token. The
// comparison only saves a round trip for typos: whoever holds the token string holds the passcode. The backend
// re-validates the token when the password is reset.
package reset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/skybi/portal-client/internal/challenge"
)

// State represents the state of a Flow
type State int

const (
	// StateNoChallenge means no challenge token is persisted
	StateNoChallenge State = iota
	// StateChallengeIssued means a challenge token is persisted and awaits verification
	StateChallengeIssued
	// StateVerified means the entered passcode matched the challenge token
	StateVerified
	// StateConsumed means the password was reset and the challenge token discarded
	StateConsumed
)

func (state State) String() string {
	switch state {
	case StateNoChallenge:
		return "NO_CHALLENGE"
	case StateChallengeIssued:
		return "CHALLENGE_ISSUED"
	case StateVerified:
		return "VERIFIED"
	case StateConsumed:
		return "CONSUMED"
	default:
		return fmt.Sprintf("State(%d)", int(state))
	}
}

// LocalError represents a validation failure that is detected without contacting the backend
type LocalError struct {
	Message string
}

func (err *LocalError) Error() string {
	return err.Message
}

var (
	ErrSessionExpired = &LocalError{Message: "Session expired. Please request OTP again."}
	ErrIncorrectOTP   = &LocalError{Message: "The OTP you entered is incorrect."}
)

// ErrResetFailed is returned by Submit if the backend rejected the reset
var ErrResetFailed = errors.New("password reset failed")

// Backend defines the session store operations the flow builds upon
type Backend interface {
	RequestOTP(ctx context.Context, email string) bool
	ResetPassword(ctx context.Context, challengeToken, newPassword string) bool
	PersistedChallenge(ctx context.Context) (string, error)
}

// Flow drives a single password reset
type Flow struct {
	backend Backend

	mtx   sync.Mutex
	state State
}

// NewFlow creates a new reset flow whose initial state depends on whether a challenge token is persisted
func NewFlow(ctx context.Context, backend Backend) (*Flow, error) {
	token, err := backend.PersistedChallenge(ctx)
	if err != nil {
		return nil, err
	}
	flow := &Flow{
		backend: backend,
		state:   StateNoChallenge,
	}
	if token != "" {
		flow.state = StateChallengeIssued
	}
	return flow, nil
}

// State returns the current state of the flow
func (flow *Flow) State() State {
	flow.mtx.Lock()
	defer flow.mtx.Unlock()
	return flow.state
}

func (flow *Flow) transition(state State) {
	flow.mtx.Lock()
	defer flow.mtx.Unlock()
	flow.state = state
}

// Request asks the backend to issue a new challenge for email, replacing any previous one
func (flow *Flow) Request(ctx context.Context, email string) bool {
	if !flow.backend.RequestOTP(ctx, email) {
		return false
	}
	flow.transition(StateChallengeIssued)
	return true
}

// Verify compares the entered passcode against the one embedded in the persisted challenge token.
// It returns the challenge token on a match. No network call is made.
func (flow *Flow) Verify(ctx context.Context, input string) (string, error) {
	token, err := flow.backend.PersistedChallenge(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		flow.transition(StateNoChallenge)
		return "", ErrSessionExpired
	}

	expected, ok := challenge.Extract(token)
	if !ok || strings.TrimSpace(input) != strings.TrimSpace(expected) {
		flow.transition(StateChallengeIssued)
		return "", ErrIncorrectOTP
	}

	flow.transition(StateVerified)
	return token, nil
}

// Submit verifies the entered passcode and, on a match, resets the password.
// Local failures are returned as *LocalError; a rejected reset returns ErrResetFailed and keeps the challenge so
// the user may retry. The backend's message is available through the session store's reset status.
func (flow *Flow) Submit(ctx context.Context, input, newPassword string) error {
	token, err := flow.Verify(ctx, input)
	if err != nil {
		return err
	}

	if !flow.backend.ResetPassword(ctx, token, newPassword) {
		flow.transition(StateChallengeIssued)
		return ErrResetFailed
	}

	flow.transition(StateConsumed)
	return nil
}
