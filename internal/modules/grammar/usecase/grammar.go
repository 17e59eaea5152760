package usecase

import (
	"context"

	"tobetutor/internal/modules/grammar/dto"
	grammarin "tobetutor/internal/modules/grammar/port/in"
	"tobetutor/internal/modules/grammar/service"
)

type Interactor struct {
	svc *service.SentenceService
}

func NewInteractor(svc *service.SentenceService) grammarin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Validate(ctx context.Context, input dto.ValidateInput) (dto.ValidateOutput, error) {
	verdict, err := i.svc.Check(ctx, input.Sentence)
	if err != nil {
		return dto.ValidateOutput{}, err
	}
	out := dto.ValidateOutput{Result: verdict.Text, Accepted: verdict.Accepted}
	if verdict.Accepted {
		out.Form = verdict.Form.String()
	}
	return out, nil
}
