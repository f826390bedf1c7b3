package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	domainauth "rotafacil/internal/domain/auth"
)

var (
	newUserEmail    string
	newUserName     string
	newUserRole     string
	newUserSchedule string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an account",
	Long: `Creates an account. The password is read from ROTAFACIL_PASSWORD or from the
first line of standard input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if newUserEmail == "" || newUserName == "" {
			return errors.New("--email and --name are required")
		}
		password, err := readPassword(cmd.InOrStdin())
		if err != nil {
			return err
		}
		req := &domainauth.UserCreateRequest{
			Email:    newUserEmail,
			Name:     newUserName,
			Password: password,
			Role:     domainauth.Role(newUserRole),
		}
		if newUserSchedule != "" {
			req.AccessScheduleID = &newUserSchedule
		}
		return withBackend(cmd, func(b *backend) error {
			if req.AccessScheduleID != nil {
				if _, err := b.access.GetSchedule(cmd.Context(), *req.AccessScheduleID); err != nil {
					return fmt.Errorf("schedule %s: %w", *req.AccessScheduleID, err)
				}
			}
			u, err := b.auth.CreateUser(cmd.Context(), req, actorID, cliMeta)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", u.Role, u.Email, u.ID)
			return nil
		})
	},
}

var setAdminCmd = &cobra.Command{
	Use:   "set-admin <email>",
	Short: "Grant the administrator role to an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(b *backend) error {
			u, err := b.users.GetUserByEmail(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if u.IsAdmin() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already an administrator\n", u.Email)
				return nil
			}
			if _, err := b.auth.UpdateUser(cmd.Context(), u.ID, &domainauth.UserUpdateRequest{Role: domainauth.RoleAdmin}, actorID, cliMeta); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now an administrator\n", u.Email)
			return nil
		})
	},
}

func init() {
	createUserCmd.Flags().StringVar(&newUserEmail, "email", "", "account email")
	createUserCmd.Flags().StringVar(&newUserName, "name", "", "display name")
	createUserCmd.Flags().StringVar(&newUserRole, "role", string(domainauth.RoleUser), "admin or user")
	createUserCmd.Flags().StringVar(&newUserSchedule, "schedule", "", "access schedule id")
	rootCmd.AddCommand(createUserCmd, setAdminCmd)
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
