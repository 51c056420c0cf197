package reset

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend mimics the session store: a successful reset discards the persisted challenge
type fakeBackend struct {
	challenge string
	issue     string
	rejects   bool
	requests  int
	resets    int
}

func (backend *fakeBackend) RequestOTP(_ context.Context, _ string) bool {
	backend.requests++
	backend.challenge = backend.issue
	return true
}

func (backend *fakeBackend) ResetPassword(_ context.Context, _, _ string) bool {
	backend.resets++
	if backend.rejects {
		return false
	}
	backend.challenge = ""
	return true
}

func (backend *fakeBackend) PersistedChallenge(_ context.Context) (string, error) {
	return backend.challenge, nil
}

func challengeToken(payload string) string {
	return "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + ".signature"
}

func TestNewFlowState(t *testing.T) {
	flow, err := NewFlow(context.Background(), &fakeBackend{})
	require.NoError(t, err)
	assert.Equal(t, StateNoChallenge, flow.State())

	flow, err = NewFlow(context.Background(), &fakeBackend{challenge: challengeToken(`{"otp":"1"}`)})
	require.NoError(t, err)
	assert.Equal(t, StateChallengeIssued, flow.State())
}

func TestRequest(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{issue: challengeToken(`{"otp":"3738"}`)}
	flow, err := NewFlow(ctx, backend)
	require.NoError(t, err)

	require.True(t, flow.Request(ctx, "sam@example.com"))
	assert.Equal(t, StateChallengeIssued, flow.State())
	assert.Equal(t, 1, backend.requests)
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	token := challengeToken(`{"otp":"3738"}`)

	for _, input := range []string{"3738", " 3738 ", "3738\n"} {
		backend := &fakeBackend{challenge: token}
		flow, err := NewFlow(ctx, backend)
		require.NoError(t, err)

		verified, err := flow.Verify(ctx, input)
		require.NoError(t, err, input)
		assert.Equal(t, token, verified)
		assert.Equal(t, StateVerified, flow.State())
		assert.Zero(t, backend.resets)
	}
}

func TestVerifyIncorrect(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{challenge: challengeToken(`{"otp":"3738"}`)}
	flow, err := NewFlow(ctx, backend)
	require.NoError(t, err)

	_, err = flow.Verify(ctx, "3739")
	assert.ErrorIs(t, err, ErrIncorrectOTP)
	assert.Equal(t, StateChallengeIssued, flow.State())

	assert.ErrorIs(t, flow.Submit(ctx, "3739", "new"), ErrIncorrectOTP)
	assert.Zero(t, backend.resets)
}

func TestVerifyUndecodableChallenge(t *testing.T) {
	ctx := context.Background()
	for _, token := range []string{"garbage", challengeToken(`{"note":"no passcode"}`), challengeToken(`not json`)} {
		backend := &fakeBackend{challenge: token}
		flow, err := NewFlow(ctx, backend)
		require.NoError(t, err)

		assert.ErrorIs(t, flow.Submit(ctx, "3738", "new"), ErrIncorrectOTP, token)
		assert.Zero(t, backend.resets)
	}
}

func TestVerifyWithoutChallenge(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	flow, err := NewFlow(ctx, backend)
	require.NoError(t, err)

	err = flow.Submit(ctx, "3738", "new")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, "Session expired. Please request OTP again.", err.Error())
	assert.Equal(t, StateNoChallenge, flow.State())
	assert.Zero(t, backend.resets)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{challenge: challengeToken(`{"otp":"3738"}`)}
	flow, err := NewFlow(ctx, backend)
	require.NoError(t, err)

	require.NoError(t, flow.Submit(ctx, "3738", "new"))
	assert.Equal(t, StateConsumed, flow.State())
	assert.Equal(t, 1, backend.resets)

	// The challenge is single-use
	assert.ErrorIs(t, flow.Submit(ctx, "3738", "newer"), ErrSessionExpired)
	assert.Equal(t, 1, backend.resets)
}

func TestSubmitRejected(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{challenge: challengeToken(`{"otp":3738}`), rejects: true}
	flow, err := NewFlow(ctx, backend)
	require.NoError(t, err)

	assert.ErrorIs(t, flow.Submit(ctx, "3738", "new"), ErrResetFailed)
	assert.Equal(t, StateChallengeIssued, flow.State())

	backend.rejects = false
	require.NoError(t, flow.Submit(ctx, "3738", "new"))
	assert.Equal(t, 2, backend.resets)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "NO_CHALLENGE", StateNoChallenge.String())
	assert.Equal(t, "CHALLENGE_ISSUED", StateChallengeIssued.String())
	assert.Equal(t, "VERIFIED", StateVerified.String())
	assert.Equal(t, "CONSUMED", StateConsumed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
