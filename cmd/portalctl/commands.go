package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/skybi/portal-client/internal/config"
	"github.com/skybi/portal-client/internal/gateway"
	"github.com/skybi/portal-client/internal/reset"
	"github.com/skybi/portal-client/internal/session"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in")

// cli bundles the command tree with the components the executed command opened
type cli struct {
	root *cobra.Command
	app  *app
}

// newCLI builds the command tree. Close has to be called once Execute returned, whether the command failed or not.
func newCLI() *cli {
	c := &cli{}
	var verbose bool

	c.root = &cobra.Command{
		Use:           "portalctl",
		Short:         "Command line client of the membership portal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("could not load the configuration: %w", err)
			}
			c.app, err = newApp(cmd.Context(), cfg)
			return err
		},
	}
	c.root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	appFn := func() *app { return c.app }
	c.root.AddCommand(
		newLoginCommand(appFn),
		newLogoutCommand(appFn),
		newWhoamiCommand(appFn),
		newSignupCommand(appFn),
		newOTPCommand(appFn),
		newMembersCommand(appFn),
	)
	return c
}

// Close releases the components opened by the executed command
func (c *cli) Close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func newLoginCommand(current func() *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and persist the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := current().store
			if !store.Login(cmd.Context(), args[0], password) {
				return errors.New(store.Status(session.OperationLogin).Error)
			}
			store.Wait()
			return printJSON(cmd.OutOrStdout(), store.Session())
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the persisted session",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			current().store.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
		},
	}
}

func newWhoamiCommand(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ses := current().store.Session()
			if !ses.Authenticated() {
				return errNotLoggedIn
			}
			return printJSON(cmd.OutOrStdout(), ses)
		},
	}
}

func newSignupCommand(current func() *app) *cobra.Command {
	payload := gateway.SignupPayload{}
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := current().store.Signup(cmd.Context(), payload)
			if err != nil {
				var apiErr *gateway.Error
				if errors.As(err, &apiErr) && apiErr.Body != nil {
					_ = printJSON(cmd.ErrOrStderr(), apiErr.Body)
				}
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&payload.Username, "username", "", "username")
	cmd.Flags().StringVar(&payload.Email, "email", "", "email address")
	cmd.Flags().StringVar(&payload.Password, "password", "", "password")
	cmd.Flags().StringVar(&payload.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&payload.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&payload.RollNo, "roll-no", "", "roll number")
	cmd.Flags().StringVar(&payload.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&payload.Club, "club", "", "club")
	return cmd
}

func newOTPCommand(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "otp",
		Short: "Reset a forgotten password using a one-time passcode",
	}

	request := &cobra.Command{
		Use:   "request <email>",
		Short: "Request a passcode to be sent to the given email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := reset.NewFlow(cmd.Context(), current().store)
			if err != nil {
				return err
			}
			if !flow.Request(cmd.Context(), args[0]) {
				return errors.New(current().store.Status(session.OperationOTP).Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "passcode requested, check your inbox")
			return nil
		},
	}

	var code, password string
	submit := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password using the received passcode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flow, err := reset.NewFlow(cmd.Context(), current().store)
			if err != nil {
				return err
			}
			if err := flow.Submit(cmd.Context(), code, password); err != nil {
				if errors.Is(err, reset.ErrResetFailed) {
					return errors.New(current().store.Status(session.OperationReset).Error)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password reset, please log in again")
			return nil
		},
	}
	submit.Flags().StringVar(&code, "code", "", "the received passcode")
	submit.Flags().StringVar(&password, "password", "", "the new password")
	_ = submit.MarkFlagRequired("code")
	_ = submit.MarkFlagRequired("password")

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the state of the password reset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flow, err := reset.NewFlow(cmd.Context(), current().store)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), flow.State())
			return nil
		},
	}

	cmd.AddCommand(request, submit, status)
	return cmd
}

func newMembersCommand(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Manage the member directory",
	}

	token := func() (string, error) {
		ses := current().store.Session()
		if !ses.Authenticated() {
			return "", errNotLoggedIn
		}
		return ses.Token, nil
	}

	var public bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List all members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if public {
				students, err := current().client.ListPublicStudents(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), students)
			}
			tok, err := token()
			if err != nil {
				return err
			}
			students, err := current().client.ListStudents(cmd.Context(), tok)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), students)
		},
	}
	list.Flags().BoolVar(&public, "public", false, "list the public team directory without logging in")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a single member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := token()
			if err != nil {
				return err
			}
			student, err := current().client.GetStudent(cmd.Context(), tok, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), student)
		},
	}

	update := &gateway.StudentUpdate{}
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update fields of a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := token()
			if err != nil {
				return err
			}
			for name, target := range map[string]**string{
				"first-name": &update.FirstName,
				"last-name":  &update.LastName,
				"email":      &update.Email,
				"roll-no":    &update.RollNo,
				"phone":      &update.Phone,
				"role":       &update.Role,
				"club":       &update.Club,
			} {
				if !cmd.Flags().Changed(name) {
					continue
				}
				value, _ := cmd.Flags().GetString(name)
				*target = &value
			}
			student, err := current().client.UpdateStudent(cmd.Context(), tok, args[0], update)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), student)
		},
	}
	for _, name := range []string{"first-name", "last-name", "email", "roll-no", "phone", "role", "club"} {
		edit.Flags().String(name, "", "new "+name)
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := token()
			if err != nil {
				return err
			}
			if err := current().client.DeleteStudent(cmd.Context(), tok, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}

	cmd.AddCommand(list, get, edit, remove)
	return cmd
}

func printJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
