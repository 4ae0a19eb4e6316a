package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fentz26/aitracker/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "aitracker",
	Short: "aitracker - AI engineer learning tracker",
	Long:  `aitracker tracks progress through a gamified AI engineering curriculum: XP, streaks, certifications and a portfolio, synced to a Progress Store.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}
		c, err := config.Load(config.Options{EnvDir: envDir, ConfigFile: configFile})
		if err != nil {
			return err
		}
		if apiAddr != "" {
			c.APIURL = apiAddr
		}
		if userFlag != "" {
			c.UserID = userFlag
		}
		cfg = c
		logger = config.NewLogger(c, os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
	SilenceUsage: true,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	configFile string
	envDir     string
	apiAddr    string
	userFlag   string

	cfg    *config.Config
	logger *slog.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&envDir, "env-dir", "", "Directory holding .env files")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "", "Progress Store address (overrides API_URL)")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "User id (overrides USER_ID)")

	// Add subcommands
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(completeCmd, struggleCmd, noteCmd)
	rootCmd.AddCommand(dayCmd, weekCmd, newDayCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(analyticsCmd, backupCmd)
	rootCmd.AddCommand(pruneCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
