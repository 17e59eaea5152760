package in

import (
	"context"

	"tobetutor/internal/modules/grammar/dto"
	grammarin "tobetutor/internal/modules/grammar/port/in"
)

type CLIHandler struct {
	usecase grammarin.Usecase
}

func NewCLIHandler(usecase grammarin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Check(ctx context.Context, sentence string) (dto.ValidateOutput, error) {
	return h.usecase.Validate(ctx, dto.ValidateInput{Sentence: sentence})
}
