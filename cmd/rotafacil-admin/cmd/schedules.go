package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var assignScheduleCmd = &cobra.Command{
	Use:   "assign-schedule <email> <schedule-id|none>",
	Short: "Bind an account to an access schedule, or remove its restriction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var scheduleID *string
		if !strings.EqualFold(args[1], "none") {
			scheduleID = &args[1]
		}
		return withBackend(cmd, func(b *backend) error {
			u, err := b.users.GetUserByEmail(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if _, err := b.access.AssignSchedule(cmd.Context(), u.ID, scheduleID, actorID, cliMeta); err != nil {
				return err
			}
			if scheduleID == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no access restriction\n", u.Email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s bound to schedule %s\n", u.Email, *scheduleID)
			}
			return nil
		})
	},
}

var listSchedulesCmd = &cobra.Command{
	Use:   "list-schedules",
	Short: "List access schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(b *backend) error {
			schedules, err := b.schedules.ListSchedules(cmd.Context(), "")
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDAYS")
			for _, s := range schedules {
				days := make([]string, 0, len(s.Windows))
				for day := range s.Windows {
					days = append(days, day)
				}
				sort.Strings(days)
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Name, strings.Join(days, ","))
			}
			return w.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(assignScheduleCmd, listSchedulesCmd)
}
