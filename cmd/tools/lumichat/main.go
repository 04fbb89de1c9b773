package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/lumi/backend/internal/model/chat"
)

func main() {
	var (
		server  string
		timeout time.Duration
	)

	root := &cobra.Command{
		Use:          "lumichat",
		Short:        "Chat with a running Lumi backend from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			client := newAPIClient(server, timeout)
			return repl(ctx, client, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	root.Flags().StringVar(&server, "server", "http://localhost:8080", "Lumi backend base URL")
	root.Flags().DurationVar(&timeout, "timeout", 90*time.Second, "per-request timeout")

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

const helpText = `commands:
  /breathe      open the breathing exercise
  /calm         close the breathing exercise
  /help-lines   show crisis lines and therapists
  /ok           dismiss the crisis referral
  /quit         leave`

func repl(ctx context.Context, client *apiClient, in io.Reader, out io.Writer) error {
	session, err := client.createSession(ctx)
	if err != nil {
		return err
	}
	printMessages(out, session.Messages)

	if err := client.waitForChat(ctx, session.ID); err != nil {
		return err
	}
	fmt.Fprintln(out, helpText)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return nil
		case "/breathe", "/calm":
			if _, err := client.setBreathing(ctx, session.ID, line == "/breathe"); err != nil {
				fmt.Fprintf(out, "! %v\n", err)
			}
			continue
		case "/help-lines":
			printDirectory(ctx, client, out)
			continue
		case "/ok":
			if _, err := client.dismissReferral(ctx, session.ID); err != nil {
				fmt.Fprintf(out, "! %v\n", err)
			}
			continue
		}

		result, err := client.submit(ctx, session.ID, line)
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
			continue
		}
		if !result.Delivered {
			fmt.Fprintln(out, "! Lumi could not answer right now, try again.")
		}
		if result.Reply != nil {
			printMessages(out, []chat.Message{*result.Reply})
		}
		if result.CrisisTriggered {
			fmt.Fprintln(out, "*** You don't have to face this alone. Type /help-lines to see people you can reach right now.")
		}
	}
}

func printMessages(out io.Writer, messages []chat.Message) {
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleModel:
			fmt.Fprintf(out, "Lumi: %s\n", msg.Content)
		case chat.RoleUser:
			fmt.Fprintf(out, "You: %s\n", msg.Content)
		default:
			fmt.Fprintf(out, "! %s\n", msg.Content)
		}
	}
}

func printDirectory(ctx context.Context, client *apiClient, out io.Writer) {
	dir, err := client.directory(ctx)
	if err != nil {
		fmt.Fprintf(out, "! %v\n", err)
		return
	}
	for _, line := range dir.Hotlines {
		fmt.Fprintf(out, "  %s  %s %s (%s)\n", line.Name, line.Phone, line.Text, line.Hours)
	}
	for _, th := range dir.Therapists {
		fmt.Fprintf(out, "  %s, %s, %s\n", th.Name, th.Specialty, th.Availability)
	}
}
