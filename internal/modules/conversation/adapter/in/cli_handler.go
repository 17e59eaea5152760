package in

import (
	"context"

	"tobetutor/internal/modules/conversation/dto"
	conversationin "tobetutor/internal/modules/conversation/port/in"
)

// CLIHandler serves the history subcommands.
type CLIHandler struct {
	usecase conversationin.Usecase
}

func NewCLIHandler(usecase conversationin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context, limit int) ([]dto.ArchivedSummary, error) {
	return h.usecase.ListArchived(ctx, dto.ListArchivedInput{Limit: limit})
}

func (h CLIHandler) Show(ctx context.Context, sessionID string) (dto.SessionOutput, error) {
	return h.usecase.GetArchived(ctx, sessionID)
}

func (h CLIHandler) Export(ctx context.Context, sessionID, dir string) (dto.ExportOutput, error) {
	return h.usecase.ExportArchived(ctx, dto.ExportInput{SessionID: sessionID, Dir: dir})
}
