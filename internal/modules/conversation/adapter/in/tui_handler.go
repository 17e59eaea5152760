package in

import (
	"context"

	"tobetutor/internal/modules/conversation/dto"
	conversationin "tobetutor/internal/modules/conversation/port/in"
)

// TUIHandler is what the interactive front ends (chat TUI and line REPL)
// talk to.
type TUIHandler struct {
	usecase conversationin.Usecase
}

func NewTUIHandler(usecase conversationin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Start(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.Start(ctx)
}

func (h TUIHandler) Submit(ctx context.Context, text string) (dto.SubmitOutput, error) {
	return h.usecase.Submit(ctx, dto.SubmitInput{Text: text})
}

func (h TUIHandler) Snapshot(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.Snapshot(ctx)
}

func (h TUIHandler) Close(ctx context.Context) error {
	return h.usecase.Close(ctx)
}
