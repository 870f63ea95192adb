package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitalwatch/vitalwatch/internal/config"
	"github.com/vitalwatch/vitalwatch/internal/store"
	"github.com/vitalwatch/vitalwatch/internal/trend"
)

// openStore loads the config and opens the snapshot store for a CLI verb.
func openStore() (*store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	dbPath, err := config.ExpandHome(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	return store.Open(dbPath)
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manage health records",
}

var (
	recordUser     string
	recordCategory string
	recordValue    string
	recordNotes    string
	recordLimit    int
	recordDays     int
)

var recordAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a health record",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		if err := st.UpsertUser(ctx, recordUser, recordUser); err != nil {
			return err
		}
		sample, err := st.AddSample(ctx, &store.Sample{
			OwnerID:  recordUser,
			Category: recordCategory,
			Value:    recordValue,
			Notes:    recordNotes,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Recorded #%d %s = %s\n", sample.ID, sample.Category, sample.Value)
		return nil
	},
}

var recordListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent health records",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		samples, err := st.ListSamples(cmd.Context(), recordUser, recordLimit)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			fmt.Println("No records found.")
			return nil
		}
		for _, s := range samples {
			line := fmt.Sprintf("#%-4d %-18s %-12s %s", s.ID, s.Category, s.Value, s.RecordedAt.Format("2006-01-02 15:04"))
			if s.Notes != "" {
				line += "  (" + s.Notes + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var recordTrendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show per-category trends over recent days",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		since := time.Now().AddDate(0, 0, -recordDays)
		samples, err := st.SamplesSince(cmd.Context(), recordUser, since)
		if err != nil {
			return err
		}
		results := trend.Analyze(samples)
		if len(results) == 0 {
			fmt.Printf("No records in the last %d days.\n", recordDays)
			return nil
		}
		for _, r := range results {
			switch r.Trend {
			case trend.Increasing, trend.Decreasing:
				fmt.Printf("%-18s %s (%.1f%%, %d entries)\n", r.Category, r.Trend, r.MagnitudePercent, r.Count)
			default:
				fmt.Printf("%-18s %s (%d entries)\n", r.Category, r.Trend, r.Count)
			}
		}
		return nil
	},
}

func init() {
	recordAddCmd.Flags().StringVar(&recordUser, "user", "", "user handle")
	recordAddCmd.Flags().StringVar(&recordCategory, "category", "", "record category (e.g. weight, blood_pressure)")
	recordAddCmd.Flags().StringVar(&recordValue, "value", "", "recorded value")
	recordAddCmd.Flags().StringVar(&recordNotes, "notes", "", "optional notes")
	recordAddCmd.MarkFlagRequired("user")
	recordAddCmd.MarkFlagRequired("category")
	recordAddCmd.MarkFlagRequired("value")

	recordListCmd.Flags().StringVar(&recordUser, "user", "", "user handle")
	recordListCmd.Flags().IntVar(&recordLimit, "limit", 20, "max records to show")
	recordListCmd.MarkFlagRequired("user")

	recordTrendsCmd.Flags().StringVar(&recordUser, "user", "", "user handle")
	recordTrendsCmd.Flags().IntVar(&recordDays, "days", 7, "days to look back")
	recordTrendsCmd.MarkFlagRequired("user")

	recordCmd.AddCommand(recordAddCmd)
	recordCmd.AddCommand(recordListCmd)
	recordCmd.AddCommand(recordTrendsCmd)
}
