package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"rotafacil/internal/client/adapters/httpapi"

	"github.com/spf13/cobra"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session for the monitor",
	Long: `Signs in with email and password. The password is read from the
ROTAFACIL_PASSWORD environment variable or, when unset, from the first line of
standard input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginEmail == "" {
			return errors.New("--email is required")
		}
		password, err := readPassword(cmd.InOrStdin())
		if err != nil {
			return err
		}

		manager, _ := newSessionManager()
		s, err := manager.Login(cmd.Context(), loginEmail, password)
		if err != nil {
			return describeLoginError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s), session valid until %s\n",
			s.Name, s.Email, s.ExpiresAt.Local().Format("02/01/2006 15:04"))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, _ := newSessionManager()
		if err := manager.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "signed out")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}

func readPassword(in io.Reader) (string, error) {
	if p := os.Getenv("ROTAFACIL_PASSWORD"); p != "" {
		return p, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}

func describeLoginError(err error) error {
	var apiErr *httpapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Errorf("login refused: %s", apiErr.Message)
	}
	return err
}
