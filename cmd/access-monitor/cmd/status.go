package cmd

import (
	"fmt"

	"rotafacil/internal/client/ports"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session and run one access check",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, client := newSessionManager()
		s, err := manager.Current()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if s == nil {
			fmt.Fprintln(out, "not signed in")
			return nil
		}
		fmt.Fprintf(out, "signed in as %s (%s)\n", s.Name, s.Email)

		ctx, cancel := contextWithTimeout(cmd, cfg.RequestTimeout())
		defer cancel()
		res, err := client.CheckAccess(ctx, s.Credential)
		if err != nil {
			return fmt.Errorf("access check failed: %w", err)
		}
		fmt.Fprintln(out, describeResult(res))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func describeResult(r ports.AccessResult) string {
	switch {
	case !r.Allowed && r.Message != "":
		return "access denied: " + r.Message
	case !r.Allowed:
		return "access denied"
	case r.MinutesUntilEnd == nil:
		return "access allowed, no schedule restriction"
	case *r.MinutesUntilEnd == 1:
		return "access allowed, 1 minute left in the current window"
	default:
		return fmt.Sprintf("access allowed, %d minutes left in the current window", *r.MinutesUntilEnd)
	}
}
