package out

import (
	"context"

	conversationout "tobetutor/internal/modules/conversation/port/out"
	grammardto "tobetutor/internal/modules/grammar/dto"
	grammarin "tobetutor/internal/modules/grammar/port/in"
)

// LocalSentenceValidator checks sentences in-process with the grammar module,
// so the tutor works without a running /validate service.
type LocalSentenceValidator struct {
	grammar grammarin.Usecase
}

var _ conversationout.SentenceValidator = LocalSentenceValidator{}

func NewLocalSentenceValidator(grammar grammarin.Usecase) LocalSentenceValidator {
	return LocalSentenceValidator{grammar: grammar}
}

func (v LocalSentenceValidator) Validate(ctx context.Context, sentence string) (string, error) {
	out, err := v.grammar.Validate(ctx, grammardto.ValidateInput{Sentence: sentence})
	if err != nil {
		return "", err
	}
	return out.Result, nil
}
