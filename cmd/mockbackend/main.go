package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skybi/portal-client/internal/config"
	"github.com/skybi/portal-client/internal/mockbackend"
)

// Accounts created on startup so the client can be exercised right away
var seedStudents = []*mockbackend.StudentCreate{
	{Username: "admin", Password: "admin", Email: "admin@example.com", FirstName: "Ada", LastName: "Admin", Role: mockbackend.RoleAdmin},
	{Username: "lead", Password: "lead", Email: "lead@example.com", FirstName: "Lee", LastName: "Lead", Role: mockbackend.RoleLead, Club: "Robotics"},
	{Username: "student", Password: "student", Email: "student@example.com", FirstName: "Sam", LastName: "Student", Role: mockbackend.RoleStudent, Club: "Robotics"},
}

func main() {
	// Set up zerolog to use pretty printing
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out: os.Stderr,
	})
	log.Info().Msg("starting up...")

	// Load the application configuration
	log.Info().Msg("loading configuration...")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load the configuration")
	}
	if cfg.IsEnvProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Create the mock backend and its demo accounts
	service, err := mockbackend.New(mockbackend.Options{
		AllowedOrigin: cfg.MockAllowedOrigin,
		SigningSecret: []byte(cfg.MockSigningSecret),
		OTPLifetime:   cfg.MockOTPLifetime,
		DeliverOTP: func(email, otp string) {
			log.Info().Str("email", email).Str("otp", otp).Msg("issued password reset passcode")
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("could not create the mock backend")
	}
	for _, create := range seedStudents {
		student, err := service.AddStudent(create)
		if err != nil {
			log.Fatal().Err(err).Str("username", create.Username).Msg("could not create a demo account")
		}
		log.Info().Int("id", student.ID).Str("username", student.Username).Str("role", student.Role).Msg("created demo account")
	}

	// Start up the API
	log.Info().Str("address", cfg.MockListenAddress).Msg("starting up the mock backend API...")
	apiErrs := make(chan error, 1)
	go func() {
		if err := service.Startup(cfg.MockListenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
			apiErrs <- err
		}
	}()
	go func() {
		err := <-apiErrs
		log.Fatal().Err(err).Msg("the mock backend API raised an unexpected error")
	}()
	defer func() {
		log.Info().Msg("shutting down the mock backend API...")
		service.Shutdown()
	}()

	log.Info().Msg("done!")
	defer log.Info().Msg("shutting down...")

	// Wait for the application to be terminated
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt)
	<-shutdown
}
