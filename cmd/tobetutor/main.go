package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tobetutor/internal/bootstrap"
	"tobetutor/internal/modules/conversation/dto"
	"tobetutor/internal/platform/config"
	"tobetutor/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &config.Options{}

	root := &cobra.Command{
		Use:           "tobetutor",
		Short:         "Practice English sentences with the verb TO BE",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runChat(opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default $XDG_CONFIG_HOME/tobetutor/config.yaml)")
	root.PersistentFlags().StringVar(&opts.ValidatorURL, "validator-url", "", "sentence validator endpoint")
	root.PersistentFlags().BoolVar(&opts.Offline, "offline", false, "check sentences in-process instead of calling the validator")

	root.AddCommand(newChatCmd(opts))
	root.AddCommand(newREPLCmd(opts))
	root.AddCommand(newCheckCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	return root
}

// loadApp builds the application with a file logger so command output and
// the TUI keep the terminal to themselves.
func loadApp(opts *config.Options) (*bootstrap.App, func(), error) {
	cfg, err := config.New(*opts)
	if err != nil {
		return nil, nil, err
	}
	logger, logFile, err := logging.NewFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logConfig(logger, cfg)
	app, err := bootstrap.New(cfg, logger)
	if err != nil {
		_ = logFile.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := app.Close(); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
		_ = logFile.Close()
	}
	return app, cleanup, nil
}

func logConfig(logger zerolog.Logger, cfg config.Config) {
	source := cfg.SourceFile
	if source == "" {
		source = "defaults"
	}
	logger.Info().
		Str("config", source).
		Str("validator_mode", cfg.Validator.Mode).
		Bool("archive", cfg.Archive.Enabled).
		Msg("configuration loaded")
}

func runChat(opts *config.Options) error {
	app, cleanup, err := loadApp(opts)
	if err != nil {
		return err
	}
	defer cleanup()
	return bootstrap.RunTUI(app)
}

func newChatCmd(opts *config.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the chat terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runChat(opts)
		},
	}
}

func newREPLCmd(opts *config.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Chat line by line on stdin/stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return bootstrap.RunREPL(ctx, app, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newCheckCmd(opts *config.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <sentence...>",
		Short: "Check one sentence with the built-in grammar",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()
			out, err := app.GrammarCLI.Check(context.Background(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Result)
			if !out.Accepted {
				return errors.New("sentence rejected")
			}
			return nil
		},
	}
}

func newServeCmd(opts *config.Options) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /validate over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(*opts)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			// the server does not keep transcripts
			cfg.Archive.Enabled = false
			logger, err := logging.NewConsole(cmd.ErrOrStderr(), cfg.Log.Level)
			if err != nil {
				return err
			}
			logConfig(logger, cfg)
			app, err := bootstrap.New(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serveHTTP(ctx, cfg.Server.Addr, app.GrammarHTTP.Router(), logger)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return serve
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("validator listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newHistoryCmd(opts *config.Options) *cobra.Command {
	history := &cobra.Command{Use: "history", Short: "Browse archived conversations"}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent conversations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, cleanup, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()
			items, err := app.HistoryCLI.List(context.Background(), limit)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no conversations")
				return nil
			}
			for _, it := range items {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\tentries=%d accepted=%d\n",
					it.SessionID, it.StartedAt.Local().Format("2006-01-02 15:04"), displayName(it.UserName), it.Phase, it.Entries, it.Accepted)
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum number of conversations")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()
			s, err := app.HistoryCLI.Show(context.Background(), args[0])
			if err != nil {
				return err
			}
			printTranscript(cmd.OutOrStdout(), s.UserName, s.Entries)
			return nil
		},
	}

	var outDir string
	export := &cobra.Command{
		Use:   "export <id>",
		Short: "Export one conversation as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()
			out, err := app.HistoryCLI.Export(context.Background(), args[0], outDir)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", out.SessionID, out.Path)
			return nil
		},
	}
	export.Flags().StringVar(&outDir, "out", ".", "directory to write the markdown file into")

	history.AddCommand(list, show, export)
	return history
}

func displayName(name string) string {
	if name == "" {
		return "(no name)"
	}
	return name
}

func printTranscript(w io.Writer, userName string, entries []dto.EntryOutput) {
	for _, e := range entries {
		who := "tutor"
		if e.Speaker == "user" {
			who = displayName(userName)
		}
		_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", e.At.Local().Format("15:04:05"), who, e.Text)
	}
}
