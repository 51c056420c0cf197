package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Credentials is the request body of the login endpoint
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult represents the identity returned by a successful login
type LoginResult struct {
	Token     string
	Role      string
	UserID    string
	StudentID string
}

// SignupPayload is the request body of the signup endpoint
type SignupPayload struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	RollNo    string `json:"roll_no,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Club      string `json:"club,omitempty"`
}

// SignupResult represents the identity of a freshly registered account
type SignupResult struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	UserID string `json:"user_id"`
}

type otpRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Login authenticates a user using 'POST /auth/login/'
func (client *Client) Login(ctx context.Context, credentials Credentials) (*LoginResult, error) {
	res, err := client.do(ctx, http.MethodPost, "/auth/login/", "", credentials)
	if err != nil {
		return nil, normalize(err, describeLogin)
	}
	return &LoginResult{
		Token:     LoginTokenRules.ResolveString(res.Body),
		Role:      LoginRoleRules.ResolveString(res.Body),
		UserID:    LoginUserIDRules.ResolveString(res.Body),
		StudentID: LoginStudentIDRules.ResolveString(res.Body),
	}, nil
}

// RequestOTP requests a password reset challenge for the given email address using 'POST /auth/otp/'.
// The returned challenge token may be empty if the response shape was not recognized.
func (client *Client) RequestOTP(ctx context.Context, email string) (string, error) {
	res, err := client.do(ctx, http.MethodPost, "/auth/otp/", "", otpRequest{Email: email})
	if err != nil {
		return "", normalize(err, describeOTP)
	}
	token := ChallengeTokenRules.ResolveString(res.Body)
	if token == "" {
		log.Warn().Msg("OTP response matched no challenge token shape")
	}
	return token, nil
}

// ResetPassword sets a new password using 'PUT /auth/password/reset'.
// The backend validates the challenge token itself; the response body is passed through.
func (client *Client) ResetPassword(ctx context.Context, challengeToken, newPassword string) (any, error) {
	res, err := client.do(ctx, http.MethodPut, "/auth/password/reset", "", resetRequest{
		Token:    challengeToken,
		Password: newPassword,
	})
	if err != nil {
		return nil, normalize(err, describeReset)
	}
	return res.Body, nil
}

// Signup registers a new account using 'POST /auth/signup/'.
// Validation errors are passed through verbatim in the Body of the returned *Error.
func (client *Client) Signup(ctx context.Context, payload SignupPayload) (*SignupResult, error) {
	res, err := client.do(ctx, http.MethodPost, "/auth/signup/", "", payload)
	if err != nil {
		return nil, normalize(err, describeSignup)
	}
	return &SignupResult{
		Token:  SignupTokenRules.ResolveString(res.Body),
		Role:   SignupRoleRules.ResolveString(res.Body),
		UserID: SignupUserIDRules.ResolveString(res.Body),
	}, nil
}
