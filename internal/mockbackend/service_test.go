package mockbackend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybi/portal-client/internal/gateway"
	"github.com/skybi/portal-client/internal/mockbackend"
	"github.com/skybi/portal-client/internal/reset"
	"github.com/skybi/portal-client/internal/role"
	"github.com/skybi/portal-client/internal/session"
	"github.com/skybi/portal-client/internal/storage/inmem"
)

var signingSecret = []byte("test-secret")

type mailbox struct {
	mtx      sync.Mutex
	passcode map[string]string
}

func (box *mailbox) deliver(email, otp string) {
	box.mtx.Lock()
	defer box.mtx.Unlock()
	box.passcode[email] = otp
}

func (box *mailbox) read(email string) string {
	box.mtx.Lock()
	defer box.mtx.Unlock()
	return box.passcode[email]
}

type harness struct {
	service *mockbackend.Service
	client  *gateway.Client
	mailbox *mailbox
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	box := &mailbox{passcode: make(map[string]string)}
	service, err := mockbackend.New(mockbackend.Options{
		SigningSecret: signingSecret,
		OTPLifetime:   time.Minute,
		DeliverOTP:    box.deliver,
	})
	require.NoError(t, err)

	for _, create := range []*mockbackend.StudentCreate{
		{Username: "admin", Password: "admin-pw", Email: "admin@example.com", Role: mockbackend.RoleAdmin},
		{Username: "lead", Password: "lead-pw", Email: "lead@example.com", Role: mockbackend.RoleLead, Club: "Robotics"},
		{Username: "student", Password: "student-pw", Email: "student@example.com", Role: mockbackend.RoleStudent},
	} {
		_, err := service.AddStudent(create)
		require.NoError(t, err)
	}

	server := httptest.NewServer(service.Handler())
	t.Cleanup(server.Close)
	return &harness{
		service: service,
		client:  gateway.New(server.URL, server.Client()),
		mailbox: box,
	}
}

func (h *harness) newStore(t *testing.T) *session.Store {
	t.Helper()
	driver := inmem.New()
	require.NoError(t, driver.Initialize(context.Background()))
	t.Cleanup(driver.Close)

	store, err := session.NewStore(context.Background(), driver.Session(), h.client, &role.Resolver{Students: h.client})
	require.NoError(t, err)
	return store
}

func TestNewRequiresSigningSecret(t *testing.T) {
	_, err := mockbackend.New(mockbackend.Options{})
	assert.ErrorIs(t, err, mockbackend.ErrNoSigningSecret)
}

func TestLoginResolvesLeadClub(t *testing.T) {
	h := newHarness(t)
	store := h.newStore(t)
	ctx := context.Background()

	require.True(t, store.Login(ctx, "lead", "lead-pw"))
	store.Wait()

	ses := store.Session()
	assert.True(t, ses.Authenticated())
	assert.Equal(t, session.RoleLead, ses.Role)
	assert.Equal(t, "Robotics", ses.Club)
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t)
	store := h.newStore(t)

	assert.False(t, store.Login(context.Background(), "lead", "wrong"))
	assert.Equal(t, "Unable to log in with provided credentials.", store.Status(session.OperationLogin).Error)
	assert.False(t, store.Session().Authenticated())
}

func TestPasswordReset(t *testing.T) {
	h := newHarness(t)
	store := h.newStore(t)
	ctx := context.Background()

	flow, err := reset.NewFlow(ctx, store)
	require.NoError(t, err)
	require.True(t, flow.Request(ctx, "student@example.com"))

	passcode := h.mailbox.read("student@example.com")
	require.Len(t, passcode, 4)
	challengeToken := store.Challenge()
	require.NotEmpty(t, challengeToken)

	assert.ErrorIs(t, flow.Submit(ctx, "not-the-code", "new-password"), reset.ErrIncorrectOTP)
	require.NoError(t, flow.Submit(ctx, " "+passcode+" ", "new-password"))
	assert.Equal(t, reset.StateConsumed, flow.State())

	assert.False(t, store.Login(ctx, "student", "student-pw"))
	assert.True(t, store.Login(ctx, "student", "new-password"))

	// A consumed challenge is rejected by the backend as well
	_, err = h.client.ResetPassword(ctx, challengeToken, "another-password")
	require.Error(t, err)
	assert.EqualError(t, err, "Invalid or expired token.")
}

func TestRejectedResetKeepsChallengeUsable(t *testing.T) {
	h := newHarness(t)
	store := h.newStore(t)
	ctx := context.Background()

	flow, err := reset.NewFlow(ctx, store)
	require.NoError(t, err)
	require.True(t, flow.Request(ctx, "student@example.com"))
	passcode := h.mailbox.read("student@example.com")

	assert.ErrorIs(t, flow.Submit(ctx, passcode, "short"), reset.ErrResetFailed)
	assert.Equal(t, "Reset failed", store.Status(session.OperationReset).Error)
	assert.Equal(t, reset.StateChallengeIssued, flow.State())

	require.NoError(t, flow.Submit(ctx, passcode, "long-enough"))
	assert.True(t, store.Login(ctx, "student", "long-enough"))
}

func TestRequestOTPUnknownEmail(t *testing.T) {
	h := newHarness(t)
	store := h.newStore(t)

	assert.False(t, store.RequestOTP(context.Background(), "nobody@example.com"))
	assert.Equal(t, "Failed to request OTP", store.Status(session.OperationOTP).Error)
}

func TestForgedChallengeIsRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sign := func(secret []byte, expires time.Time) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"otp":   "1234",
			"email": "student@example.com",
			"jti":   "forged",
			"exp":   expires.Unix(),
		}).SignedString(secret)
		require.NoError(t, err)
		return token
	}

	_, err := h.client.ResetPassword(ctx, sign([]byte("other-secret"), time.Now().Add(time.Minute)), "pw")
	assert.EqualError(t, err, "Invalid or expired token.")

	_, err = h.client.ResetPassword(ctx, sign(signingSecret, time.Now().Add(-time.Minute)), "pw")
	assert.EqualError(t, err, "Invalid or expired token.")

	_, err = h.client.ResetPassword(ctx, "not-a-token", "pw")
	assert.EqualError(t, err, "Invalid or expired token.")
}

func TestSignup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.client.Signup(ctx, gateway.SignupPayload{Username: "neo", Email: "neo@example.com", Password: "pw", Club: "Chess"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "STUDENT", res.Role)
	assert.NotEmpty(t, res.UserID)

	_, err = h.client.Signup(ctx, gateway.SignupPayload{Username: "neo", Email: "other@example.com", Password: "pw"})
	var apiErr *gateway.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Body, "username")

	_, err = h.client.Signup(ctx, gateway.SignupPayload{Username: "trinity"})
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Body, "email")
	assert.Contains(t, apiErr.Body, "password")
}

func TestMemberManagement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	studentLogin, err := h.client.Login(ctx, gateway.Credentials{Username: "student", Password: "student-pw"})
	require.NoError(t, err)
	adminLogin, err := h.client.Login(ctx, gateway.Credentials{Username: "admin", Password: "admin-pw"})
	require.NoError(t, err)

	public, err := h.client.ListPublicStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, public, 3)
	for _, student := range public {
		assert.Empty(t, student.Email)
	}

	_, err = h.client.ListStudents(ctx, "invalid")
	var apiErr *gateway.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	club := "Chess"
	_, err = h.client.UpdateStudent(ctx, studentLogin.Token, studentLogin.UserID, &gateway.StudentUpdate{Club: &club})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	updated, err := h.client.UpdateStudent(ctx, adminLogin.Token, studentLogin.UserID, &gateway.StudentUpdate{Club: &club})
	require.NoError(t, err)
	assert.Equal(t, "Chess", updated.Club)

	invalidRole := "OWNER"
	_, err = h.client.UpdateStudent(ctx, adminLogin.Token, studentLogin.UserID, &gateway.StudentUpdate{Role: &invalidRole})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	require.NoError(t, h.client.DeleteStudent(ctx, adminLogin.Token, studentLogin.UserID))
	_, err = h.client.GetStudent(ctx, studentLogin.Token, studentLogin.UserID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	students, err := h.client.ListStudents(ctx, adminLogin.Token)
	require.NoError(t, err)
	assert.Len(t, students, 2)
}
