// Command chat-app serves the streaming chat API and talks to it from the
// terminal.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/justanuragmaurya/chat-app/internal/config"
	"github.com/justanuragmaurya/chat-app/logging"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "chat-app",
	Short: "Streaming web search chat agent",
	Long: `chat-app runs an AI agent that searches the live web and streams its
progress and answer as line-delimited JSON events, persisting every
conversation. Use "serve" to run the HTTP API and "ask" to chat with it.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the configuration with flag overrides applied.
func loadConfig(cmd *cobra.Command, overrides config.Overrides) (*config.Config, error) {
	if cmd.Flags().Changed("debug") {
		overrides.Debug = &debug
	}
	return config.Load(configPath, overrides)
}

// newLogger creates the process logger from the log settings.
func newLogger(cfg *config.Config) *logging.ChatLogger {
	level := logging.ParseLevel(cfg.Log.Level)
	if cfg.Debug {
		level = logging.LogLevelDebug
	}
	return logging.NewSlogLogger(level, cfg.Log.Format, cfg.Debug)
}
