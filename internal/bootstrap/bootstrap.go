package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	conversationinadapter "tobetutor/internal/modules/conversation/adapter/in"
	conversationoutadapter "tobetutor/internal/modules/conversation/adapter/out"
	conversationout "tobetutor/internal/modules/conversation/port/out"
	conversationservice "tobetutor/internal/modules/conversation/service"
	conversationusecase "tobetutor/internal/modules/conversation/usecase"
	grammarinadapter "tobetutor/internal/modules/grammar/adapter/in"
	grammarservice "tobetutor/internal/modules/grammar/service"
	grammarusecase "tobetutor/internal/modules/grammar/usecase"
	"tobetutor/internal/platform/clock"
	"tobetutor/internal/platform/config"
	"tobetutor/internal/platform/id"
	uiapp "tobetutor/internal/ui/app"
	"tobetutor/internal/ui/repl"
)

type App struct {
	GrammarCLI  grammarinadapter.CLIHandler
	GrammarHTTP grammarinadapter.HTTPHandler
	ChatTUI     conversationinadapter.TUIHandler
	HistoryCLI  conversationinadapter.CLIHandler

	// nil when the archive is disabled
	archive *conversationoutadapter.SQLiteTranscriptArchive
	logger  zerolog.Logger
}

func New(cfg config.Config, logger zerolog.Logger) (*App, error) {
	clk := clock.SystemClock{}
	ids := id.UUID{}

	grammarUC := grammarusecase.NewInteractor(grammarservice.NewSentenceService())

	var validator conversationout.SentenceValidator
	switch cfg.Validator.Mode {
	case config.ModeLocal:
		validator = conversationoutadapter.NewLocalSentenceValidator(grammarUC)
	default:
		validator = conversationoutadapter.NewHTTPSentenceValidator(cfg.Validator.URL, cfg.Validator.Timeout, logger)
	}
	logger.Debug().Str("mode", cfg.Validator.Mode).Str("url", cfg.Validator.URL).Msg("validator configured")

	app := &App{logger: logger}
	var (
		archive  conversationout.TranscriptArchive
		exporter conversationout.TranscriptExporter
	)
	if cfg.Archive.Enabled {
		sqliteArchive, err := conversationoutadapter.NewSQLiteTranscriptArchive(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("new transcript archive: %w", err)
		}
		app.archive = sqliteArchive
		archive = sqliteArchive
		exporter = conversationoutadapter.NewMarkdownTranscriptExporter()
	}

	conversationUC := conversationusecase.NewInteractor(
		conversationservice.NewConversationService(clk, ids, validator, logger),
		archive,
		exporter,
		logger,
	)

	app.GrammarCLI = grammarinadapter.NewCLIHandler(grammarUC)
	app.GrammarHTTP = grammarinadapter.NewHTTPHandler(grammarUC, logger)
	app.ChatTUI = conversationinadapter.NewTUIHandler(conversationUC)
	app.HistoryCLI = conversationinadapter.NewCLIHandler(conversationUC)
	return app, nil
}

// Close archives the live conversation, if any, and releases the database.
func (a *App) Close() error {
	err := a.ChatTUI.Close(context.Background())
	if a.archive != nil {
		err = errors.Join(err, a.archive.Close())
	}
	return err
}

func RunTUI(app *App) error {
	var model uiapp.Model
	if app.archive != nil {
		model = uiapp.NewModel(app.ChatTUI, app.HistoryCLI)
	} else {
		model = uiapp.NewModel(app.ChatTUI, nil)
	}
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func RunREPL(ctx context.Context, app *App, in io.Reader, out io.Writer) error {
	return repl.Run(ctx, app.ChatTUI, in, out)
}
