package in

import (
	"context"

	"tobetutor/internal/modules/conversation/dto"
)

type Usecase interface {
	Start(ctx context.Context) (dto.SessionOutput, error)
	Submit(ctx context.Context, input dto.SubmitInput) (dto.SubmitOutput, error)
	Snapshot(ctx context.Context) (dto.SessionOutput, error)
	Close(ctx context.Context) error

	ListArchived(ctx context.Context, input dto.ListArchivedInput) ([]dto.ArchivedSummary, error)
	GetArchived(ctx context.Context, sessionID string) (dto.SessionOutput, error)
	ExportArchived(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error)
}
