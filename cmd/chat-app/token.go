package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/justanuragmaurya/chat-app/internal/config"
	"github.com/justanuragmaurya/chat-app/server"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a bearer token for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, config.Overrides{})
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return errors.New("CHAT_JWT_SECRET is required")
		}

		ttl := cfg.TokenTTL
		if cmd.Flags().Changed("ttl") {
			ttl = tokenTTL
		}
		jwt, err := server.NewJWTManager(cfg.JWTSecret, ttl)
		if err != nil {
			return err
		}

		token, err := jwt.CreateToken(args[0])
		if err != nil {
			return fmt.Errorf("create token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime; 0 never expires (default from config)")
}
