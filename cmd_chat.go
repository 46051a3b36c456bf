package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	logx "github.com/weathernews-agent/server/pkg/logger"
)

// chatSessions is the part of session.Manager the CLI uses.
type chatSessions interface {
	Handle(ctx context.Context, sessionID, query string) (string, error)
	Reset(ctx context.Context, sessionID string) error
	LastLocation(ctx context.Context, sessionID string) (string, error)
}

var sessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive weather & news chat",
	Long:  "Reads one message per line. /reset clears the conversation, /location shows the remembered location, exit quits.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, closeFn, err := setupSessions(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		id := sessionID
		if id == "" {
			id = uuid.NewString()
		}
		return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), sessions, id)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <query...>",
	Short: "Ask a single question and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, closeFn, err := setupSessions(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		id := sessionID
		if id == "" {
			id = uuid.NewString()
		}
		reply, err := sessions.Handle(cmd.Context(), id, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{chatCmd, askCmd} {
		c.Flags().StringVarP(&sessionID, "session", "s", "", "session id (a new one is generated when empty)")
		rootCmd.AddCommand(c)
	}
}

func setupSessions(ctx context.Context) (chatSessions, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	rdb, err := openRedis(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
	}

	sessions, err := newSessionManager(ctx, cfg, rdb)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return sessions, closeFn, nil
}

// runChat is the interactive loop. Failed turns are reported and the loop continues.
func runChat(ctx context.Context, in io.Reader, out io.Writer, sessions chatSessions, id string) error {
	fmt.Fprintf(out, "🌦️  Weather & News Assistant (session %s)\n", id)
	fmt.Fprintln(out, "Ask about the weather or the news. /reset, /location, exit.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			fmt.Fprintln(out, "Bye!")
			return nil
		case line == "/reset":
			if err := sessions.Reset(ctx, id); err != nil {
				fmt.Fprintf(out, "⚠️ %v\n", err)
				continue
			}
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		case line == "/location":
			loc, err := sessions.LastLocation(ctx, id)
			if err != nil {
				fmt.Fprintf(out, "⚠️ %v\n", err)
				continue
			}
			if loc == "" {
				loc = "(none)"
			}
			fmt.Fprintf(out, "Last location: %s\n", loc)
			continue
		}

		reply, err := sessions.Handle(ctx, id, line)
		if err != nil {
			logx.Debug().Err(err).Str("session_id", id).Msg("Turn failed")
			fmt.Fprintf(out, "⚠️ %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
