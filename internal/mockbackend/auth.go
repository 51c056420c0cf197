package mockbackend

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/skybi/portal-client/internal/mockbackend/schema"
	"github.com/skybi/portal-client/internal/random"
	"github.com/skybi/portal-client/internal/secret"
)

type contextKey string

const contextKeyStudent contextKey = "student"

const (
	tokenLength       = 20
	otpLength         = 4
	minPasswordLength = 8
)

var (
	messageInvalidCredentials = "Unable to log in with provided credentials."
	messageInvalidChallenge   = "Invalid or expired token."
	messageUnknownEmail       = "No account is registered with this email address."
	messagePasswordTooShort   = "This password is too short. It must contain at least 8 characters."
)

// challengeClaims represents the payload of a password reset challenge token
type challengeClaims struct {
	OTP   string `json:"otp"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type loginRequest struct {
	Username *string `json:"username" required:"true"`
	Password *string `json:"password" required:"true"`
}

type otpRequest struct {
	Email *string `json:"email" required:"true"`
}

type resetRequest struct {
	Token    *string `json:"token" required:"true"`
	Password *string `json:"password" required:"true"`
}

type signupRequest struct {
	Username  *string `json:"username" required:"true"`
	Email     *string `json:"email" required:"true"`
	Password  *string `json:"password" required:"true"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	RollNo    string  `json:"roll_no"`
	Phone     string  `json:"phone"`
	Club      string  `json:"club"`
}

func (service *Service) issueToken(student *Student) string {
	raw, hash := secret.MustNew(tokenLength)
	service.tokens.Set(hash, student.ID)
	return raw
}

// EndpointLogin handles the 'POST /auth/login/' endpoint
func (service *Service) EndpointLogin(writer http.ResponseWriter, request *http.Request) {
	body, errs, err := schema.UnmarshalBody[loginRequest](request)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if errs != nil {
		service.writer.WriteFieldErrors(writer, errs)
		return
	}

	student, err := service.students.ByUsername(*body.Username)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if student == nil || !checkPassword(student, *body.Password) {
		service.writer.WriteFieldErrors(writer, schema.FieldErrors{schema.FieldNonField: {messageInvalidCredentials}})
		return
	}

	service.writer.WriteJSON(writer, map[string]any{
		"token": service.issueToken(student),
		"role":  student.Role,
		"user":  student.ID,
	})
}

// EndpointRequestOTP handles the 'POST /auth/otp/' endpoint.
// The issued challenge token carries the passcode; the passcode itself is delivered out of band.
func (service *Service) EndpointRequestOTP(writer http.ResponseWriter, request *http.Request) {
	body, errs, err := schema.UnmarshalBody[otpRequest](request)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if errs != nil {
		service.writer.WriteFieldErrors(writer, errs)
		return
	}

	student, err := service.students.ByEmail(*body.Email)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if student == nil {
		service.writer.WriteFieldErrors(writer, schema.FieldErrors{"email": {messageUnknownEmail}})
		return
	}

	now := time.Now()
	claims := &challengeClaims{
		OTP:   random.String(otpLength, random.CharsetDigits),
		Email: student.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(service.opts.OTPLifetime)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.opts.SigningSecret)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}

	if service.opts.DeliverOTP != nil {
		service.opts.DeliverOTP(student.Email, claims.OTP)
	}
	service.writer.WriteJSON(writer, map[string]any{
		"token": token,
	})
}

// EndpointResetPassword handles the 'PUT /auth/password/reset' endpoint.
// Unlike the client, the backend verifies the challenge token's signature and expiry; every token is consumed by
// the first reset that succeeds.
func (service *Service) EndpointResetPassword(writer http.ResponseWriter, request *http.Request) {
	body, errs, err := schema.UnmarshalBody[resetRequest](request)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if errs != nil {
		service.writer.WriteFieldErrors(writer, errs)
		return
	}

	claims := new(challengeClaims)
	_, err = jwt.ParseWithClaims(*body.Token, claims, func(*jwt.Token) (any, error) {
		return service.opts.SigningSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		log.Debug().Err(err).Msg("rejected password reset challenge")
		service.writer.WriteFieldErrors(writer, schema.FieldErrors{"token": {messageInvalidChallenge}})
		return
	}
	if _, consumed := service.consumedChallenges.Lookup(claims.ID); consumed {
		service.writer.WriteFieldErrors(writer, schema.FieldErrors{"token": {messageInvalidChallenge}})
		return
	}

	student, err := service.students.ByEmail(claims.Email)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if student == nil {
		service.writer.WriteFieldErrors(writer, schema.FieldErrors{"token": {messageInvalidChallenge}})
		return
	}
	if len(*body.Password) < minPasswordLength {
		service.writer.WriteFieldErrors(writer, schema.FieldErrors{"password": {messagePasswordTooShort}})
		return
	}

	hash, err := hashPassword(*body.Password)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}

	// The challenge is reserved right before the update and released again if it fails
	if !service.consumedChallenges.SetIfAbsent(claims.ID, claims.ExpiresAt.Time) {
		service.writer.WriteFieldErrors(writer, schema.FieldErrors{"token": {messageInvalidChallenge}})
		return
	}
	updated, err := service.students.Update(student.ID, func(student *Student) error {
		student.PasswordHash = hash
		return nil
	})
	if err != nil || updated == nil {
		service.consumedChallenges.Remove(claims.ID)
		if err != nil {
			service.writer.WriteInternalError(writer, err)
			return
		}
		service.writer.WriteFieldErrors(writer, schema.FieldErrors{"token": {messageInvalidChallenge}})
		return
	}

	// Expired challenges can never be presented again successfully
	service.consumedChallenges.RemoveWhere(func(_ string, expires time.Time) bool {
		return time.Now().After(expires)
	})
	service.writer.WriteJSON(writer, map[string]any{
		"message": "Password has been reset.",
	})
}

// EndpointSignup handles the 'POST /auth/signup/' endpoint
func (service *Service) EndpointSignup(writer http.ResponseWriter, request *http.Request) {
	body, errs, err := schema.UnmarshalBody[signupRequest](request)
	if err != nil {
		service.writer.WriteInternalError(writer, err)
		return
	}
	if errs != nil {
		service.writer.WriteFieldErrors(writer, errs)
		return
	}

	student, err := service.students.Create(&StudentCreate{
		Username:  strings.TrimSpace(*body.Username),
		Password:  *body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     strings.TrimSpace(*body.Email),
		RollNo:    body.RollNo,
		Phone:     body.Phone,
		Role:      RoleStudent,
		Club:      body.Club,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			service.writer.WriteFieldErrors(writer, schema.FieldErrors{"username": {"A user with that username already exists."}})
		case errors.Is(err, ErrEmailTaken):
			service.writer.WriteFieldErrors(writer, schema.FieldErrors{"email": {"A user with that email already exists."}})
		default:
			service.writer.WriteInternalError(writer, err)
		}
		return
	}

	service.writer.WriteJSONCode(writer, http.StatusCreated, map[string]any{
		"message": "Account created.",
		"data": map[string]any{
			"token":   service.issueToken(student),
			"role":    student.Role,
			"user_id": student.ID,
		},
	})
}

// MiddlewareVerifyToken makes sure that the requesting client has provided a valid 'Token' authorization header.
// Additionally, it injects the authenticated student into the request context.
func (service *Service) MiddlewareVerifyToken(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		header := request.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Token ") {
			service.writer.WriteJSONCode(writer, http.StatusUnauthorized, schema.ErrUnauthenticated)
			return
		}

		id, ok := service.tokens.Lookup(secret.Hash(strings.TrimSpace(strings.TrimPrefix(header, "Token "))))
		if !ok {
			service.writer.WriteJSONCode(writer, http.StatusUnauthorized, schema.ErrInvalidToken)
			return
		}
		student, err := service.students.ByID(id)
		if err != nil {
			service.writer.WriteInternalError(writer, err)
			return
		}
		if student == nil {
			service.writer.WriteJSONCode(writer, http.StatusUnauthorized, schema.ErrInvalidToken)
			return
		}

		request = request.WithContext(context.WithValue(request.Context(), contextKeyStudent, student))
		next(writer, request)
	}
}

// MiddlewareCheckManager makes sure that the authenticated student may manage other members
func (service *Service) MiddlewareCheckManager(next http.HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		student, ok := request.Context().Value(contextKeyStudent).(*Student)
		if !ok {
			service.writer.WriteInternalError(writer, errors.New("manager check without token verification"))
			return
		}
		if student.Role != RoleAdmin && student.Role != RoleLead {
			service.writer.WriteJSONCode(writer, http.StatusForbidden, schema.ErrForbidden)
			return
		}
		next(writer, request)
	}
}
