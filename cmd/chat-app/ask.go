package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/justanuragmaurya/chat-app/client"
	"github.com/justanuragmaurya/chat-app/internal/config"
)

var (
	askServer       string
	askToken        string
	askConversation string
	askNew          bool
	askTick         time.Duration
)

var askCmd = &cobra.Command{
	Use:   "ask [message...]",
	Short: "Ask the chat server and print the streamed answer",
	Long: `Ask sends a message to a running chat server and reveals the answer as
it streams. With --conversation the message continues that conversation;
without a message the conversation is only replayed (and answered when its
last turn is still waiting for a reply). --new creates a persisted
conversation first and requires --token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, config.Overrides{})
		if err != nil {
			return err
		}
		message := strings.TrimSpace(strings.Join(args, " "))
		if message == "" && askConversation == "" {
			return errors.New("a message or --conversation is required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		api := client.NewAPI(askServer, func(o *client.APIOptions) {
			o.Token = askToken
			o.Logger = newLogger(cfg).WithComponent("client")
		})
		return runAsk(ctx, api, message, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askServer, "server", "http://localhost:3000", "Chat server base URL")
	askCmd.Flags().StringVar(&askToken, "token", os.Getenv("CHAT_TOKEN"), "Bearer token (default $CHAT_TOKEN)")
	askCmd.Flags().StringVar(&askConversation, "conversation", "", "Conversation id to continue")
	askCmd.Flags().BoolVar(&askNew, "new", false, "Create a persisted conversation for the message")
	askCmd.Flags().DurationVar(&askTick, "tick", client.DefaultTickInterval, "Reveal interval per character")
}

func runAsk(ctx context.Context, api *client.API, message string, stdout, stderr io.Writer) error {
	conversationID := askConversation
	if askNew {
		if message == "" {
			return errors.New("--new requires a message")
		}
		id, err := api.CreateConversation(ctx, message)
		if err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		fmt.Fprintf(stderr, "conversation %s\n", id)
		conversationID, message = id, ""
	}

	out := &revealWriter{stdout: stdout, stderr: stderr}
	chat := client.NewChat(api, conversationID, func(o *client.ChatOptions) {
		o.TickInterval = askTick
		o.OnUpdate = out.update
	})
	defer chat.Close()

	if err := chat.Open(ctx); err != nil {
		return err
	}
	if conversationID != "" {
		printHistory(stdout, chat.Transcript())
	}
	if message != "" {
		if err := chat.Send(ctx, message); err != nil {
			return err
		}
	}
	if err := chat.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// printHistory prints the hydrated turns, leaving out an open reply.
func printHistory(w io.Writer, t *client.Transcript) {
	turns := t.Snapshot()
	if t.Open() {
		turns = turns[:len(turns)-1]
	}
	for _, turn := range turns {
		fmt.Fprintf(w, "%s: %s\n\n", turn.Role, turn.Content)
	}
}

// revealWriter prints status lines to stderr and revealed text to stdout.
type revealWriter struct {
	mu      sync.Mutex
	stdout  io.Writer
	stderr  io.Writer
	printed int
}

func (r *revealWriter) update(u client.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.Status != "" {
		fmt.Fprintf(r.stderr, "… %s\n", u.Status)
		return
	}
	if len(u.Content) > r.printed {
		fmt.Fprint(r.stdout, u.Content[r.printed:])
		r.printed = len(u.Content)
	}
	if u.Done {
		fmt.Fprintln(r.stdout)
		r.printed = 0
	}
}
