package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atinyakov/unidocs/internal/client/session"
	"github.com/atinyakov/unidocs/internal/models"
)

func (a *app) registerCmd() *cobra.Command {
	var (
		req                      models.RegisterRequest
		institutionID, programID int64
		level                    string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.visit("/register")
			if institutionID > 0 {
				req.InstitutionID = &institutionID
			}
			if programID > 0 {
				req.ProgramID = &programID
			}
			if level != "" {
				req.Level = &level
			}
			u, err := a.session.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.visit("/")
			fmt.Fprintf(a.out, "Welcome, %s (%s)\n", u.FullName(), u.Role)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "family name")
	f.StringVar(&req.Surname, "surname", "", "given name")
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.Password, "password", "", "password (6 characters or more)")
	f.StringVar(&req.Role, "role", "", "student or delegate")
	f.Int64Var(&institutionID, "institution", 0, "institution id")
	f.Int64Var(&programID, "program", 0, "program id")
	f.StringVar(&level, "level", "", "academic level (L1..M2)")
	for _, name := range []string{"name", "surname", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.visit("/login")
			u, err := a.session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			a.visit("/")
			fmt.Fprintf(a.out, "Logged in as %s\n", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			a.session.Logout()
			fmt.Fprintln(a.out, "Logged out")
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if a.session.State() != session.Authenticated {
				return errors.New("not logged in")
			}
			u := a.session.User()
			fmt.Fprintln(a.out, renderFields([][2]string{
				{"ID", fmt.Sprint(u.ID)},
				{"Name", u.FullName()},
				{"Email", u.Email},
				{"Role", u.Role},
			}))
			return nil
		},
	}
}
