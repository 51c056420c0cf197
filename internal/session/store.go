package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/skybi/portal-client/internal/gateway"
)

// Operation identifies one of the logical operations whose progress the Store tracks separately
type Operation string

const (
	OperationLogin  Operation = "login"
	OperationOTP    Operation = "otp"
	OperationReset  Operation = "reset"
	OperationSignup Operation = "signup"
)

// Status represents the state of the in-flight or last completed call of an Operation
type Status struct {
	Loading bool
	Error   string
}

// Gateway defines the backend operations the Store delegates to
type Gateway interface {
	Login(ctx context.Context, credentials gateway.Credentials) (*gateway.LoginResult, error)
	RequestOTP(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, challengeToken, newPassword string) (any, error)
	Signup(ctx context.Context, payload gateway.SignupPayload) (*gateway.SignupResult, error)
}

// ClubResolver resolves the club affiliation of a LEAD session
type ClubResolver interface {
	Club(ctx context.Context, studentID, token string) (string, error)
}

// MessageIncompleteIdentity is the login error if a successful login response lacks the token or the user ID
const MessageIncompleteIdentity = "Login failed"

// Store is the single source of truth for the authenticated identity.
// Reads are synchronous; writes happen through the operation methods only and are mirrored into the Repository.
// Operations are not serialized: overlapping calls settle in the order they finish.
type Store struct {
	repo     Repository
	gateway  Gateway
	resolver ClubResolver

	mtx       sync.RWMutex
	session   Session
	challenge string
	statuses  map[Operation]Status

	enrichments sync.WaitGroup
}

// NewStore creates a new session store and recovers the persisted session snapshot.
// A snapshot that holds only one of token and user ID is discarded.
func NewStore(ctx context.Context, repo Repository, gw Gateway, resolver ClubResolver) (*Store, error) {
	store := &Store{
		repo:     repo,
		gateway:  gw,
		resolver: resolver,
		statuses: make(map[Operation]Status),
	}

	values := make(map[string]string, 5)
	for _, key := range []string{KeyToken, KeyRole, KeyUserID, KeyStudentID, KeyClub} {
		value, err := repo.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		values[key] = value
	}

	snapshot := Session{
		UserID:    values[KeyUserID],
		StudentID: values[KeyStudentID],
		Token:     values[KeyToken],
		Role:      Role(values[KeyRole]),
		Club:      values[KeyClub],
	}
	if !snapshot.Valid() {
		log.Warn().Msg("discarding partial persisted session")
		snapshot = Session{}
	}
	store.session = snapshot
	return store, nil
}

// Session returns a copy of the current session
func (store *Store) Session() Session {
	store.mtx.RLock()
	defer store.mtx.RUnlock()
	return store.session
}

// Status returns the status of the given operation
func (store *Store) Status(op Operation) Status {
	store.mtx.RLock()
	defer store.mtx.RUnlock()
	return store.statuses[op]
}

// Challenge returns the challenge token issued by the last successful RequestOTP call of this store.
// It is empty after a successful ResetPassword.
func (store *Store) Challenge() string {
	store.mtx.RLock()
	defer store.mtx.RUnlock()
	return store.challenge
}

// PersistedChallenge reads the live challenge token from the repository
func (store *Store) PersistedChallenge(ctx context.Context) (string, error) {
	return store.repo.Get(ctx, KeyChallenge)
}

// Login authenticates the user and replaces the current session on success.
// For LEAD sessions the club affiliation is resolved in the background; use Wait to await it.
func (store *Store) Login(ctx context.Context, username, password string) bool {
	store.begin(OperationLogin)

	res, err := store.gateway.Login(ctx, gateway.Credentials{Username: username, Password: password})
	if err != nil {
		store.fail(OperationLogin, err)
		return false
	}

	ses := Session{
		UserID:    res.UserID,
		StudentID: res.StudentID,
		Token:     res.Token,
		Role:      Role(res.Role),
	}
	if !ses.Authenticated() {
		log.Warn().Bool("token", ses.Token != "").Bool("user_id", ses.UserID != "").Msg("login response carries no complete identity")
		store.mtx.Lock()
		store.statuses[OperationLogin] = Status{Error: MessageIncompleteIdentity}
		store.mtx.Unlock()
		return false
	}
	store.persist(ctx, map[string]string{
		KeyToken:     ses.Token,
		KeyRole:      string(ses.Role),
		KeyUserID:    ses.UserID,
		KeyStudentID: ses.StudentID,
	})
	store.remove(ctx, KeyClub)

	store.mtx.Lock()
	store.session = ses
	store.statuses[OperationLogin] = Status{}
	store.mtx.Unlock()

	if ses.Role == RoleLead && store.resolver != nil {
		store.enrichments.Add(1)
		go store.enrich(context.WithoutCancel(ctx), ses)
	}
	return true
}

func (store *Store) enrich(ctx context.Context, ses Session) {
	defer store.enrichments.Done()

	club, err := store.resolver.Club(ctx, ses.StudentID, ses.Token)
	if err != nil {
		log.Warn().Err(err).Str("student_id", ses.StudentID).Msg("could not fetch student club")
		return
	}
	if club == "" {
		return
	}

	store.mtx.Lock()
	if store.session.Token != ses.Token {
		store.mtx.Unlock()
		log.Debug().Msg("session changed before club enrichment settled")
		return
	}
	store.session.Club = club
	store.mtx.Unlock()

	store.persist(ctx, map[string]string{KeyClub: club})
}

// Wait blocks until all pending club enrichments have settled
func (store *Store) Wait() {
	store.enrichments.Wait()
}

// RequestOTP requests a password reset challenge for the given email address.
// The issued challenge token replaces any previous one.
func (store *Store) RequestOTP(ctx context.Context, email string) bool {
	store.begin(OperationOTP)

	token, err := store.gateway.RequestOTP(ctx, email)
	if err != nil {
		store.mtx.Lock()
		store.statuses[OperationOTP] = Status{Error: "Failed to request OTP"}
		store.mtx.Unlock()
		return false
	}

	if token == "" {
		log.Warn().Msg("the backend issued no recognizable challenge token")
		store.remove(ctx, KeyChallenge)
	} else {
		store.persist(ctx, map[string]string{KeyChallenge: token})
	}

	store.mtx.Lock()
	store.challenge = token
	store.statuses[OperationOTP] = Status{}
	store.mtx.Unlock()
	return true
}

// ResetPassword sets a new password using the given challenge token.
// The challenge is discarded on success only, so a failed attempt may be retried.
func (store *Store) ResetPassword(ctx context.Context, challengeToken, newPassword string) bool {
	store.begin(OperationReset)

	if _, err := store.gateway.ResetPassword(ctx, challengeToken, newPassword); err != nil {
		store.fail(OperationReset, err)
		return false
	}

	store.remove(ctx, KeyChallenge)

	store.mtx.Lock()
	store.challenge = ""
	store.statuses[OperationReset] = Status{}
	store.mtx.Unlock()
	return true
}

// Signup registers a new account. The current session is left untouched.
func (store *Store) Signup(ctx context.Context, payload gateway.SignupPayload) (*gateway.SignupResult, error) {
	store.begin(OperationSignup)

	res, err := store.gateway.Signup(ctx, payload)
	if err != nil {
		store.fail(OperationSignup, err)
		return nil, err
	}

	store.mtx.Lock()
	store.statuses[OperationSignup] = Status{}
	store.mtx.Unlock()
	return res, nil
}

// Logout clears the persisted session keys and resets the session. No network call is made.
func (store *Store) Logout() {
	ctx := context.Background()
	for _, key := range []string{KeyToken, KeyRole, KeyUserID, KeyStudentID, KeyClub} {
		store.remove(ctx, key)
	}

	store.mtx.Lock()
	store.session = Session{}
	store.mtx.Unlock()
}

func (store *Store) begin(op Operation) {
	store.mtx.Lock()
	defer store.mtx.Unlock()
	store.statuses[op] = Status{Loading: true}
}

func (store *Store) fail(op Operation, err error) {
	message := err.Error()
	var apiErr *gateway.Error
	if errors.As(err, &apiErr) {
		message = apiErr.Message
	}

	store.mtx.Lock()
	defer store.mtx.Unlock()
	store.statuses[op] = Status{Error: message}
}

func (store *Store) persist(ctx context.Context, values map[string]string) {
	for key, value := range values {
		if value == "" {
			store.remove(ctx, key)
			continue
		}
		if err := store.repo.Set(ctx, key, value); err != nil {
			log.Error().Err(err).Str("key", key).Msg("could not persist session value")
		}
	}
}

func (store *Store) remove(ctx context.Context, key string) {
	if err := store.repo.Remove(ctx, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("could not remove session value")
	}
}
