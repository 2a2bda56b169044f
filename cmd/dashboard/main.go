// Package main is the partner dashboard binary: the web server and a small
// command line client for the same backend API.
package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/jrsteele09/go-partner-dashboard/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliState is what the root command resolves before any subcommand runs
type cliState struct {
	configPath  string
	logLevel    string
	sessionFile string
	config      config.Config
}

func rootCmd() *cobra.Command {
	state := &cliState{}

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Partner payment dashboard",
		Long: `Partner payment dashboard.

"serve" runs the web dashboard. The other commands talk to the same
backend API from the terminal, keeping an encrypted session file between
runs (SESSION_SECRET must be set).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.NewFromFile(state.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			state.config = c
			setupLogging(c, state.logLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&state.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&state.logLevel, "log-level", "", "Log level (debug, info, warn, error), overrides LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&state.sessionFile, "session-file", defaultSessionFile(), "Where the command line session is kept")

	cmd.AddCommand(
		serveCmd(state),
		loginCmd(state),
		fetchCmd(state),
		whoamiCmd(state),
		logoutCmd(state),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("dashboard version %s\n", Version)
			},
		},
	)

	return cmd
}

// setupLogging sets the global zerolog level, with a console writer in DEV
func setupLogging(c config.Config, override string) {
	name := c.GetLogLevel()
	if override != "" {
		name = override
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
