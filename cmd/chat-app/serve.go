package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/justanuragmaurya/chat-app/internal/config"
	"github.com/justanuragmaurya/chat-app/server"
)

var (
	serveAddr  string
	serveStore string
	serveDSN   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		var overrides config.Overrides
		if cmd.Flags().Changed("addr") {
			overrides.Addr = &serveAddr
		}
		if cmd.Flags().Changed("store") {
			overrides.StoreKind = &serveStore
		}
		if cmd.Flags().Changed("db") {
			overrides.DSN = &serveDSN
		}

		cfg, err := loadConfig(cmd, overrides)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger := newLogger(cfg).WithComponent("server")

		app, err := buildApp(cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		jwt, err := server.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			return err
		}

		srv := app.Server(func(o *server.Options) {
			o.Addr = cfg.Addr
			o.AllowedOrigins = cfg.AllowedOrigins
			o.Identity = jwt
			o.Debug = cfg.Debug
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("serve.start", "addr", cfg.Addr, "store", cfg.Store.Kind, "model", cfg.Model.Name)
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default :3000 or $PORT)")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "Conversation store: memory, sqlite or redis")
	serveCmd.Flags().StringVar(&serveDSN, "db", "", "SQLite database path")
}
