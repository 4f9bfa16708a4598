package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pscheid92/djmonitor/internal/adapter/redis"
	"github.com/pscheid92/djmonitor/internal/platform/version"
	"github.com/spf13/cobra"
)

const (
	defaultServer  = "http://localhost:8080"
	defaultTimeout = 10 * time.Second
)

type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.server, o.timeout)
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "djctl",
		Short: "Control a djmonitor display server",
		Long: `djctl updates the announcement shown on djmonitor displays.

Every command talks to the server's HTTP API; connected displays update
immediately. The server URL defaults to $DJMONITOR_URL or ` + defaultServer + `.`,
		SilenceUsage: true,
	}
	root.SetOut(out)

	server := os.Getenv("DJMONITOR_URL")
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVarP(&opts.server, "server", "s", server, "djmonitor base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "request timeout")

	root.AddCommand(
		newStatusCmd(opts),
		newPublishCmd(opts),
		newClearCmd(opts),
		newEndTimeCmd(opts),
		newBlinkCmd(opts),
		newWatchCmd(),
		newVersionCmd(),
	)
	return root
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current publication",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, raw, err := opts.client().state(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return err
			}
			return printState(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON response")
	return cmd
}

func printState(w io.Writer, s state) error {
	text := s.Text
	if text == "" {
		text = "(none)"
	}
	countdown := "(none)"
	if s.EndTimestamp != nil {
		countdown = s.EndDate + " " + s.EndTime
		if s.WarningMinutes != nil {
			countdown += fmt.Sprintf(", warning %d min before", *s.WarningMinutes)
		}
	}

	_, err := fmt.Fprintf(w, "Text:      %s\nColor:     %s\nBlink:     %t\nCountdown: %s\n",
		text, s.Color, s.BlinkMode, countdown)
	return err
}

func printPublication(w io.Writer, p publication) error {
	_, err := fmt.Fprintf(w, "Text: %q  Color: %s  Blink: %t\n", p.Text, p.Color, p.BlinkMode)
	return err
}

func newPublishCmd(opts *rootOptions) *cobra.Command {
	var (
		text  string
		color string
		blink bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Set announcement text, color or blink mode",
		Long: `Set any of the announcement fields. Only flags given on the command
line are sent; the server keeps every other field as it is.

Example:
  djctl publish --text "Last call" --color "#ff0000" --blink`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]any{}
			if cmd.Flags().Changed("text") {
				fields["text"] = text
			}
			if cmd.Flags().Changed("color") {
				fields["color"] = color
			}
			if cmd.Flags().Changed("blink") {
				fields["blink_mode"] = blink
			}
			if len(fields) == 0 {
				return fmt.Errorf("at least one of --text, --color or --blink is required")
			}

			p, err := opts.client().setPublication(cmd.Context(), fields)
			if err != nil {
				return err
			}
			return printPublication(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "announcement text")
	cmd.Flags().StringVarP(&color, "color", "c", "", "display color")
	cmd.Flags().BoolVarP(&blink, "blink", "b", false, "blink while showing the text")
	return cmd
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	var (
		color string
		blink bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the announcement text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]any{}
			if cmd.Flags().Changed("color") {
				fields["color"] = color
			}
			if cmd.Flags().Changed("blink") {
				fields["blink_mode"] = blink
			}
			// The server rejects an empty body; send the current color back unchanged.
			if len(fields) == 0 {
				s, _, err := opts.client().state(cmd.Context())
				if err != nil {
					return err
				}
				fields["color"] = s.Color
			}

			p, err := opts.client().clearPublication(cmd.Context(), fields)
			if err != nil {
				return err
			}
			return printPublication(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVarP(&color, "color", "c", "", "display color")
	cmd.Flags().BoolVarP(&blink, "blink", "b", false, "blink mode")
	return cmd
}

func newEndTimeCmd(opts *rootOptions) *cobra.Command {
	var warning int

	cmd := &cobra.Command{
		Use:   "end-time DATE TIME",
		Short: "Set the countdown end (YYYY-MM-DD HH:MM, server timezone)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if warning < 0 {
				return fmt.Errorf("--warning must not be negative")
			}
			if err := opts.client().setEndTime(cmd.Context(), args[0], args[1], warning); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Countdown ends %s %s (warning %d min before)\n",
				args[0], args[1], warning)
			return err
		},
	}
	cmd.Flags().IntVarP(&warning, "warning", "w", 0, "minutes before the end to show the warning state")
	return cmd
}

func newBlinkCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "blink COLOR",
		Short: "Send a one-shot blink pulse to every display",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().blink(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Blink %s sent\n", args[0])
			return err
		},
	}
}

func newWatchCmd() *cobra.Command {
	var redisURL string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream publication updates from the Redis mirror",
		Long: `Subscribe to the Redis mirror the server publishes to when REDIS_URL
is set, and print every committed update as a JSON line until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := redis.NewClient(ctx, redisURL)
			if err != nil {
				return err
			}
			mirror := redis.NewMirror(client)
			defer func() { _ = mirror.Close() }()

			out := cmd.OutOrStdout()
			if p, ok, err := mirror.Latest(ctx); err != nil {
				return err
			} else if ok {
				if err := writeJSONLine(out, p); err != nil {
					return err
				}
			}

			return mirror.Watch(ctx, func(u redis.Update) {
				_, _ = fmt.Fprintln(out, u.Raw)
			})
		},
	}
	cmd.Flags().StringVar(&redisURL, "redis", "redis://localhost:6379", "Redis URL the server mirrors to")
	return cmd
}

func writeJSONLine(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
			return err
		},
	}
}
