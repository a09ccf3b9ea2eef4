package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"chat-client/handler"
	"chat-client/internal/domain"
	"chat-client/internal/usecase"
)

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "chat-client",
		Short: "Terminal client for the chat assistant backend",
		Long: `chat-client talks to a chat assistant backend (POST /api/chat, GET /api/health)
and keeps the conversation, theme and API key on this device.

Without a subcommand it starts an interactive session; type /help inside it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	f := root.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file path (default is $HOME/.chat-client/config.yaml)")
	f.StringVar(&opts.baseURL, "base-url", "", "chat backend base URL")
	f.StringVar(&opts.storage, "storage", "", "storage backend: bolt, pebble or dynamodb")
	f.StringVar(&opts.storagePath, "storage-path", "", "local database path for bolt or pebble")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.DurationVar(&opts.timeout, "timeout", 0, "request timeout, e.g. 30s")

	root.AddCommand(
		newSendCmd(opts),
		newHistoryCmd(opts),
		newExportCmd(opts),
		newClearCmd(opts),
		newThemeCmd(opts),
		newHealthCmd(opts),
	)
	return root
}

func setup(cmd *cobra.Command, opts *globalOptions, render usecase.Renderer) (*app, error) {
	cfg, err := loadConfig(*opts)
	if err != nil {
		return nil, err
	}
	log := newLogger(cmd.ErrOrStderr(), cfg.Level())
	return newApp(cmd.Context(), cfg, log, render)
}

func runChat(cmd *cobra.Command, opts *globalOptions) error {
	cfg, err := loadConfig(*opts)
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr(), cfg.Level())

	consoleOpts := []handler.Option{handler.WithLogger(log)}
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		consoleOpts = append(consoleOpts, handler.WithSecretReader(func() (string, error) {
			b, err := term.ReadPassword(fd)
			return string(b), err
		}))
	} else {
		consoleOpts = append(consoleOpts, handler.WithWaitReplies(true))
	}
	console, err := handler.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout(), consoleOpts...)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, log, console)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go a.session.Watch(ctx, cfg.HealthInterval)

	return console.Run(ctx, a.session)
}

func newSendCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send MESSAGE...",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts, nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx := cmd.Context()
			a.session.Hydrate(ctx)
			res := <-a.session.OnSend(ctx, strings.Join(args, " "))
			switch res.Outcome {
			case usecase.SendSkippedEmpty:
				return errors.New("message is empty")
			case usecase.SendFailed:
				fmt.Fprintln(cmd.OutOrStdout(), res.Reply.Content)
				return res.Err
			default:
				fmt.Fprintln(cmd.OutOrStdout(), res.Reply.Content)
				return nil
			}
		},
	}
}

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the stored conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd, opts, nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			msgs, err := a.adapter.LoadHistory(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(msgs)
			}
			if len(msgs) == 0 {
				fmt.Fprintln(out, "No messages yet")
				return nil
			}
			fmt.Fprintln(out, usecase.Exporter{Assistant: a.cfg.AssistantName}.Render(msgs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored JSON form")
	return cmd
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the conversation to a text file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd, opts, nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			msgs, err := a.adapter.LoadHistory(cmd.Context())
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No messages to export")
				return nil
			}
			if dir == "" {
				dir = a.cfg.ExportPath()
			}
			path, err := usecase.Exporter{Dir: dir, Assistant: a.cfg.AssistantName}.Write(msgs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default from config)")
	return cmd
}

func newClearCmd(opts *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "Clear the chat? [y/N] ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				switch strings.ToLower(strings.TrimSpace(answer)) {
				case "y", "yes":
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "Clear cancelled")
					return nil
				}
			}

			a, err := setup(cmd, opts, nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.adapter.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Chat cleared")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newThemeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|toggle]",
		Short:     "Show or change the stored theme",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(domain.ThemeDark), string(domain.ThemeLight), "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts, nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx := cmd.Context()
			a.prefs.Load(ctx)
			theme := a.prefs.Theme()
			if len(args) == 1 {
				want := domain.Theme(args[0])
				if args[0] == "toggle" || want != theme {
					theme = a.prefs.ToggleTheme(ctx)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme)
			return nil
		},
	}
}

func newHealthCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Ask the backend whether it is ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd, opts, nil)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			status, err := a.client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("backend unreachable: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status: %s\n", status.Status)
			fmt.Fprintf(out, "api configured: %t\n", status.Configured)
			if !status.Configured {
				fmt.Fprintln(out, "Warning: API key not configured")
			}
			return nil
		},
	}
}
