package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/vitalwatch/vitalwatch/internal/cli.version=1.2.3"
	version = "0.4.1"
	logo    = "\n" +
		" __     ___ _        ___        __    _       _\n" +
		" \\ \\   / (_) |_ __ _| \\ \\      / /_ _| |_ ___| |__\n" +
		"  \\ \\ / /| | __/ _` | |\\ \\ /\\ / / _` | __/ __| '_ \\\n" +
		"   \\ V / | | || (_| | | \\ V  V / (_| | || (__| | | |\n" +
		"    \\_/  |_|\\__\\__,_|_|  \\_/\\_/ \\__,_|\\__\\___|_| |_|\n"
)

var rootCmd = &cobra.Command{
	Use:   "vitalwatch",
	Short: "VitalWatch - Health tracking and live event streaming",
	Long:  color.CyanString(logo) + "\nTrack health samples, detect alerts and stream live updates.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(reminderCmd)
	rootCmd.AddCommand(contactCmd)
}
