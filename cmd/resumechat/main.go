package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"resumechat/internal/app"
	"resumechat/internal/config"
	"resumechat/internal/httpapi"
	"resumechat/internal/logging"
	"resumechat/internal/service"
	"resumechat/internal/tui"
)

type rootFlags struct {
	configPath string
	document   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "resumechat",
		Short:         "Chat with a resume using retrieval-augmented generation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to YAML config file (defaults to ./config.yaml or ~/.config/resumechat/config.yaml)")
	root.PersistentFlags().StringVar(&flags.document, "document", "", "resume file path or http(s) URL, overrides the config")

	root.AddCommand(newChatCmd(flags), newAskCmd(flags), newServeCmd(flags), newChunksCmd(flags))
	return root
}

func loadConfig(flags *rootFlags) (*config.AppConfig, error) {
	_ = godotenv.Load()

	var cfg *config.AppConfig
	var err error
	if flags.configPath == "" {
		var path string
		cfg, path, err = config.LoadDefault()
		if err == nil {
			log.Debug().Str("path", path).Msg("config loaded")
		}
	} else {
		cfg, err = config.Load(flags.configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.document != "" {
		cfg.Document.Location = flags.document
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSession loads the config, sets up logging on the process streams and
// opens a session with sink.
func openSession(ctx context.Context, flags *rootFlags, sink service.Sink) (*config.AppConfig, *service.Session, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Pretty, os.Stderr); err != nil {
		return nil, nil, err
	}
	deps, opts, err := app.Build(cfg)
	if err != nil {
		return nil, nil, err
	}
	s, err := service.Open(ctx, deps, opts, sink)
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}

func newChatCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the terminal chat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			// the screen belongs to the TUI, so logs go to a file
			path := cfg.Log.File
			if path == "" {
				path = "resumechat.log"
			}
			f, err := logging.OpenFile(path)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			if err := logging.Setup(cfg.Log.Level, false, f); err != nil {
				return err
			}

			deps, opts, err := app.Build(cfg)
			if err != nil {
				return err
			}
			open := func(ctx context.Context, sink service.Sink) (tui.ChatPort, error) {
				s, err := service.Open(ctx, deps, opts, sink)
				if err != nil {
					return nil, err
				}
				return s, nil
			}
			title := "Resume Chat"
			if cfg.Prompt.Owner != "" {
				title = cfg.Prompt.Owner + "'s Resume Chat"
			}
			p := tea.NewProgram(tui.New(cmd.Context(), title, open), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

func newAskCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question and print the streamed answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, s, err := openSession(cmd.Context(), flags, service.NopSink{})
			if err != nil {
				return err
			}
			_, err = s.Ask(cmd.Context(), strings.Join(args, " "), newWriterSink(cmd.OutOrStdout(), cmd.ErrOrStderr()))
			return err
		},
	}
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat over HTTP with server-sent events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, s, err := openSession(cmd.Context(), flags, service.NopSink{})
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			return httpapi.Serve(cmd.Context(), addr, httpapi.NewRouter(s, cfg.Server.AllowedOrigins))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the config")
	return cmd
}

func newChunksCmd(flags *rootFlags) *cobra.Command {
	var query string
	var topK int
	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "List the resume chunks, or rank them against --query",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, s, err := openSession(cmd.Context(), flags, service.NopSink{})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if query == "" {
				for _, ch := range s.Chunks() {
					fmt.Fprintf(out, "[%d] %s\n\n", ch.Index, ch.Text)
				}
				return nil
			}
			results, err := s.Search(cmd.Context(), query, topK)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(out, "[%d] %.4f %s\n\n", r.Chunk.Index, r.Score, r.Chunk.Text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "rank chunks by similarity to this text")
	cmd.Flags().IntVar(&topK, "top", 3, "number of chunks to show with --query")
	return cmd
}
