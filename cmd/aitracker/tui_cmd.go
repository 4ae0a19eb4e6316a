package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/aitracker/internal/config"
	"github.com/fentz26/aitracker/internal/storage"
	"github.com/fentz26/aitracker/internal/tui"
)

// tuiLogFile receives log output while the dashboard owns the terminal.
const tuiLogFile = "tui.log"

var noDaemon bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&noDaemon, "no-daemon", false, "Do not start a local Progress Store")
}

func runTUI(cmd *cobra.Command, args []string) error {
	remote := storage.NewRemoteStore(cfg.APIURL, cfg.UserID)

	// 1. Start a local store when none answers
	if !noDaemon && isLocalAddr(cfg.APIURL) && !isDaemonRunning(remote) {
		fmt.Println("⚡ Progress Store not running. Starting background service...")
		if err := startDaemon(remote); err != nil {
			// the cache keeps the session usable offline
			fmt.Fprintf(os.Stderr, "   %v, continuing offline\n", err)
		}
	}

	// 2. Keep log lines off the alt screen
	tuiLogger, logFile, err := openTUILog(cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("open tui log: %w", err)
	}
	defer logFile.Close()
	prevDefault := slog.Default()
	slog.SetDefault(tuiLogger)
	defer slog.SetDefault(prevDefault)

	// 3. Launch TUI
	sess, err := newSession(remote, tuiLogger)
	if err != nil {
		return err
	}
	app := tui.New(sess, remote)
	runErr := app.Run()

	if err := sess.Flush(); err != nil {
		logger.Warn("last save failed", "error", err, "log", logFile.Name())
	}
	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}

// openTUILog opens the append-only log file under dir and returns a logger
// writing to it with the configured format and level.
func openTUILog(dir string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, tuiLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return config.NewLogger(cfg, f), f, nil
}

func isDaemonRunning(remote *storage.RemoteStore) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err := remote.CheckHealth(ctx)
	return err == nil
}

func isLocalAddr(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "127.0.0.1", "localhost", "::1":
		return true
	}
	return false
}

func startDaemon(remote *storage.RemoteStore) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	u, _ := url.Parse(cfg.APIURL)
	args := []string{"daemon", "--listen", u.Host}
	if configFile != "" {
		args = append(args, "--config", configFile)
	}
	if envDir != "" {
		args = append(args, "--env-dir", envDir)
	}

	cmd := exec.Command(exe, args...)
	// Detach process so it survives TUI exit
	configureDaemonProc(cmd)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}

	fmt.Print("   Waiting for store...")
	for i := 0; i < 20; i++ { // Wait up to 5 seconds
		if isDaemonRunning(remote) {
			fmt.Println(" Done.")
			return nil
		}
		time.Sleep(250 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" Timeout!")
	return fmt.Errorf("store started but not reachable at %s", cfg.APIURL)
}
