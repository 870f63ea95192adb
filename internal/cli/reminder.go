package cli

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"
	"github.com/vitalwatch/vitalwatch/internal/store"
)

var reminderCmd = &cobra.Command{
	Use:   "reminder",
	Short: "Manage health reminders",
}

var (
	reminderUser      string
	reminderTitle     string
	reminderDesc      string
	reminderTime      string
	reminderFrequency string
	reminderAll       bool
)

var timeOfDayRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var reminderAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a reminder",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !timeOfDayRe.MatchString(reminderTime) {
			return fmt.Errorf("invalid --time %q, expected HH:MM (24h)", reminderTime)
		}
		switch reminderFrequency {
		case store.FrequencyOnce, store.FrequencyDaily, store.FrequencyWeekly:
		default:
			return fmt.Errorf("invalid --frequency %q, expected once, daily or weekly", reminderFrequency)
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		if err := st.UpsertUser(ctx, reminderUser, reminderUser); err != nil {
			return err
		}
		r, err := st.AddReminder(ctx, &store.Reminder{
			OwnerID:     reminderUser,
			Title:       reminderTitle,
			Description: reminderDesc,
			TimeOfDay:   reminderTime,
			Frequency:   reminderFrequency,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Reminder #%d %q at %s (%s)\n", r.ID, r.Title, r.TimeOfDay, r.Frequency)
		return nil
	},
}

var reminderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reminders",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		reminders, err := st.ListReminders(cmd.Context(), reminderUser, !reminderAll)
		if err != nil {
			return err
		}
		if len(reminders) == 0 {
			fmt.Println("No reminders found.")
			return nil
		}
		for _, r := range reminders {
			state := "active"
			if !r.Active {
				state = "inactive"
			}
			fmt.Printf("#%-4d %s  %-24s %-8s %s\n", r.ID, r.TimeOfDay, r.Title, r.Frequency, state)
		}
		return nil
	},
}

var reminderDoneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Deactivate a reminder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int64
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid reminder id %q", args[0])
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeactivateReminder(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("✓ Reminder #%d deactivated\n", id)
		return nil
	},
}

func init() {
	reminderAddCmd.Flags().StringVar(&reminderUser, "user", "", "user handle")
	reminderAddCmd.Flags().StringVar(&reminderTitle, "title", "", "reminder title")
	reminderAddCmd.Flags().StringVar(&reminderDesc, "description", "", "optional description")
	reminderAddCmd.Flags().StringVar(&reminderTime, "time", "", "time of day, HH:MM (24h)")
	reminderAddCmd.Flags().StringVar(&reminderFrequency, "frequency", store.FrequencyDaily, "once, daily or weekly")
	reminderAddCmd.MarkFlagRequired("user")
	reminderAddCmd.MarkFlagRequired("title")
	reminderAddCmd.MarkFlagRequired("time")

	reminderListCmd.Flags().StringVar(&reminderUser, "user", "", "user handle")
	reminderListCmd.Flags().BoolVar(&reminderAll, "all", false, "include inactive reminders")
	reminderListCmd.MarkFlagRequired("user")

	reminderCmd.AddCommand(reminderAddCmd)
	reminderCmd.AddCommand(reminderListCmd)
	reminderCmd.AddCommand(reminderDoneCmd)
}
