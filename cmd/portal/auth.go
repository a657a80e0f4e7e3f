package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/campus-portal/internal/http/handlers"
	"github.com/pribylovaa/campus-portal/internal/models"
	"github.com/pribylovaa/campus-portal/internal/session"
)

// readPassword берёт пароль из флага, иначе первой строкой из in.
func readPassword(flagValue string, fromStdin bool, in io.Reader) (string, error) {
	if !fromStdin {
		if flagValue == "" {
			return "", errors.New("password is required: use --password or --password-stdin")
		}
		return flagValue, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}

	return line, nil
}

func loginCmd(a *app) *cobra.Command {
	var (
		username      string
		password      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(password, passwordStdin, cmd.InOrStdin())
			if err != nil {
				return err
			}

			sess, err := a.cl.Auth.Login(cmd.Context(), username, pw)
			if err != nil {
				return err
			}

			home := handlers.HomeOf(session.Role(sess.Role))
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s, home: %s\n", sess.Role, home)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func registerCmd(a *app) *cobra.Command {
	var (
		in            models.RegisterRequest
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a student or faculty account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !session.NormalizeRole(in.Role).Known() {
				return fmt.Errorf("unknown role %q: expected student or faculty", in.Role)
			}

			pw, err := readPassword(in.Password, passwordStdin, cmd.InOrStdin())
			if err != nil {
				return err
			}
			in.Password = pw

			resp, err := a.cl.Auth.Register(cmd.Context(), in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "registered as %s; run `portal login` to sign in\n", resp.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().StringVar(&in.Email, "email", "", "email")
	cmd.Flags().StringVar(&in.Role, "role", string(session.RoleStudent), "student or faculty")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cl.Auth.Logout(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the role and expiry decoded from the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			claims, err := a.cl.Auth.Whoami(cmd.Context())
			if errors.Is(err, session.ErrNoSession) {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatClaims(claims, time.Now()))
			return nil
		},
	}
}

func formatClaims(c session.Claims, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "role:    %s\n", c.Role)
	if c.Subject != "" {
		fmt.Fprintf(&b, "subject: %s\n", c.Subject)
	}

	state := "valid"
	if c.Expired(now) {
		state = "expired, refreshed on next use"
	}
	fmt.Fprintf(&b, "expires: %s (%s)\n", c.Expiry.Format(time.RFC3339), state)

	return b.String()
}
