package in

import (
	"context"

	"tobetutor/internal/modules/grammar/dto"
)

type Usecase interface {
	Validate(ctx context.Context, input dto.ValidateInput) (dto.ValidateOutput, error)
}
