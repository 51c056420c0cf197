// Package mockbackend implements the portal backend's REST API in memory.
// It serves local development of the client and the client's tests; it is not meant to hold real accounts.
package mockbackend

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"github.com/skybi/portal-client/internal/mockbackend/schema"
	"github.com/skybi/portal-client/internal/threadsafe"
)

// ErrNoSigningSecret is returned if the service is started without a challenge signing secret
var ErrNoSigningSecret = errors.New("a challenge signing secret is required")

// Options configures the mock backend
type Options struct {
	// AllowedOrigin is the CORS origin browser clients may call the API from
	AllowedOrigin string

	// SigningSecret signs the password reset challenge tokens
	SigningSecret []byte

	// OTPLifetime is the validity period of issued challenge tokens
	OTPLifetime time.Duration

	// DeliverOTP is called whenever a passcode is issued, standing in for an email
	DeliverOTP func(email, otp string)
}

// Service represents the mock backend API service
type Service struct {
	opts Options

	server *http.Server
	writer *schema.Writer

	students *studentTable

	// Hashed auth token -> student ID
	tokens *threadsafe.Map[[64]byte, int]

	// Challenge token IDs that were already used to reset a password
	consumedChallenges *threadsafe.Map[string, time.Time]
}

// New creates a new mock backend service
func New(opts Options) (*Service, error) {
	if len(opts.SigningSecret) == 0 {
		return nil, ErrNoSigningSecret
	}
	if opts.OTPLifetime <= 0 {
		opts.OTPLifetime = 10 * time.Minute
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}

	students, err := newStudentTable()
	if err != nil {
		return nil, err
	}
	return &Service{
		opts: opts,
		writer: &schema.Writer{
			InternalErrorHook: func(err error) {
				log.Error().Err(err).Msg("the mock backend experienced an unexpected error")
			},
		},
		students:           students,
		tokens:             threadsafe.NewMap[[64]byte, int](),
		consumedChallenges: threadsafe.NewMap[string, time.Time](),
	}, nil
}

// AddStudent creates a new student account directly, bypassing the signup endpoint
func (service *Service) AddStudent(create *StudentCreate) (*Student, error) {
	return service.students.Create(create)
}

// Handler builds the HTTP handler serving the API
func (service *Service) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(middleware.RequestID)
	router.Use(logRequests)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{service.opts.AllowedOrigin},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"*"},
	}))
	router.NotFound(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteJSONCode(writer, http.StatusNotFound, schema.ErrNotFound)
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, _ *http.Request) {
		service.writer.WriteJSONCode(writer, http.StatusMethodNotAllowed, schema.ErrMethodNotAllowed)
	})

	// Register the authentication endpoints
	router.Post("/auth/login", service.EndpointLogin)
	router.Post("/auth/otp", service.EndpointRequestOTP)
	router.Put("/auth/password/reset", service.EndpointResetPassword)
	router.Post("/auth/signup", service.EndpointSignup)

	// Register the student endpoints
	router.Get("/students/public", service.EndpointGetPublicStudents)
	router.Get("/students", withMiddlewares(service.EndpointGetStudents, service.MiddlewareVerifyToken))
	router.Get("/students/{id}", withMiddlewares(service.EndpointGetStudent, service.MiddlewareVerifyToken))
	router.Patch("/students/{id}", withMiddlewares(service.EndpointEditStudent, service.MiddlewareVerifyToken, service.MiddlewareCheckManager))
	router.Delete("/students/{id}", withMiddlewares(service.EndpointDeleteStudent, service.MiddlewareVerifyToken, service.MiddlewareCheckManager))

	return router
}

// Startup starts serving the API on the given address. It blocks until the server is shut down.
func (service *Service) Startup(address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           service.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	service.server = server
	return server.ListenAndServe()
}

// Shutdown shuts down the API server
func (service *Service) Shutdown() {
	if service.server != nil {
		service.server.Close()
		service.server = nil
	}
}

func withMiddlewares(end http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	final := end
	for i := len(middlewares); i > 0; i-- {
		final = middlewares[i-1](final)
	}
	return final
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		wrapped := middleware.NewWrapResponseWriter(writer, request.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(wrapped, request)
		log.Debug().
			Str("method", request.Method).
			Str("path", request.URL.Path).
			Int("status", wrapped.Status()).
			Str("request_id", middleware.GetReqID(request.Context())).
			Dur("took", time.Since(started)).
			Msg("handled request")
	})
}
