package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"storefront-assistant/internal/assistant"
	"storefront-assistant/internal/model"
)

var askUser string

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Ask the assistant a question",
	Long: `Ask answers one query given as arguments. Without arguments it reads
queries line by line from stdin and keeps them in one conversation.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "", "shopper id; empty asks as a guest")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	caller := model.Caller{UserID: askUser, Authenticated: askUser != ""}
	out := cmd.OutOrStdout()

	if len(args) > 0 {
		_, err := ask(ctx, a.Dispatcher, out, model.ChatRequest{Query: strings.Join(args, " "), Caller: caller})
		return err
	}

	conversationID := ""
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if !outputJSON {
			fmt.Fprint(os.Stderr, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}
		reply, err := ask(ctx, a.Dispatcher, out, model.ChatRequest{Query: q, ConversationID: conversationID, Caller: caller})
		if err != nil {
			return err
		}
		conversationID = reply.ConversationID
	}
}

func ask(ctx context.Context, d *assistant.Dispatcher, out io.Writer, req model.ChatRequest) (*model.ChatReply, error) {
	reply, err := d.HandleTurn(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("handle turn: %w", err)
	}
	if outputJSON {
		return reply, json.NewEncoder(out).Encode(reply)
	}
	fmt.Fprintln(out, plainText(reply.Response))
	return reply, nil
}

var (
	breakTag = regexp.MustCompile(`(?i)<br\s*/?>`)
	anyTag   = regexp.MustCompile(`<[^>]+>`)
)

// plainText renders reply HTML for a terminal.
func plainText(html string) string {
	s := breakTag.ReplaceAllString(html, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'").Replace(s)
	return strings.TrimSpace(s)
}
