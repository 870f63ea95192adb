package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitalwatch/vitalwatch/internal/config"
	"github.com/vitalwatch/vitalwatch/internal/store"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("🏷️ VitalWatch Version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("📊 VitalWatch Status")
		fmt.Printf("Version: %s\n", version)

		configPath, err := config.ConfigPath()
		if err == nil {
			if _, err := os.Stat(configPath); err == nil {
				fmt.Println("Config:  ✓ Found (" + configPath + ")")
			} else {
				fmt.Println("Config:  ✗ Not found (using defaults)")
			}
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Println("Config:  ? Unable to load:", err)
			return
		}
		if cfg.Providers.Gemini.APIKey != "" {
			fmt.Println("AI:      ✓ Gemini key found")
		} else {
			fmt.Println("AI:      ✗ No key (fallback insights only)")
		}
		if cfg.Notify.Slack.Enabled {
			fmt.Println("Slack:   ✓ Enabled")
		} else {
			fmt.Println("Slack:   ✗ Disabled")
		}

		dbPath, err := config.ExpandHome(cfg.Store.Path)
		if err != nil {
			return
		}
		if _, err := os.Stat(dbPath); err != nil {
			fmt.Println("Store:   ✗ Not created yet (" + dbPath + ")")
			return
		}
		st, err := store.Open(dbPath)
		if err != nil {
			fmt.Println("Store:   ? Unable to open:", err)
			return
		}
		defer st.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		counts, err := st.Counts(ctx)
		if err != nil {
			fmt.Println("Store:   ? Count query failed:", err)
			return
		}
		fmt.Printf("Store:   ✓ %s\n", dbPath)
		fmt.Printf("Users:   %d\n", counts.Users)
		fmt.Printf("Samples: %d\n", counts.Samples)
		fmt.Printf("Active reminders: %d\n", counts.ActiveReminders)
	},
}
