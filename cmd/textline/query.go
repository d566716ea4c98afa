package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MachariaP/TextLineServer/cmd/textline/internal/client"
	"github.com/MachariaP/TextLineServer/cmd/textline/internal/config"
)

func queryCmd() *cobra.Command {
	var (
		host    string
		port    int
		timeout time.Duration
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "query [string]",
		Short: "Ask a running server whether a line exists",
		Long: `Ask a running server whether a line exists.

With an argument the query is sent once and the answer printed. Without
one, queries are read from standard input line by line until EOF.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(host, port)
			c.Timeout = timeout
			if debug {
				c.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
			}

			if len(args) == 1 {
				resp, err := c.QueryWithRetry(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp)
				return nil
			}
			return interactive(cmd, c)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&host, "host", "127.0.0.1", "Server host")
	flags.IntVarP(&port, "port", "p", config.DefaultPort, "Server port")
	flags.DurationVar(&timeout, "timeout", 5*time.Second, "Dial, write and read timeout")
	flags.BoolVar(&debug, "debug", false, "Log raw traffic to stderr")

	return cmd
}

func interactive(cmd *cobra.Command, c *client.Client) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Enter a query string (Ctrl+C to exit):")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			return nil
		}

		q := scanner.Text()
		if strings.TrimSpace(q) == "" {
			fmt.Fprintln(out, "Query cannot be empty")
			continue
		}

		resp, err := c.QueryWithRetry(cmd.Context(), q)
		switch {
		case errors.Is(err, client.ErrQueryTooLarge):
			fmt.Fprintln(out, err)
			continue
		case err != nil:
			return err
		}
		fmt.Fprintf(out, "Server response: %s\n", resp)
	}
}
