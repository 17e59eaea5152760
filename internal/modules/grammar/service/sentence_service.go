package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"tobetutor/internal/modules/grammar/domain"
	apperrors "tobetutor/internal/platform/errors"
)

// MaxSentenceRunes bounds what a caller may submit for checking.
const MaxSentenceRunes = 1000

type SentenceService struct{}

func NewSentenceService() *SentenceService {
	return &SentenceService{}
}

func (s *SentenceService) Check(ctx context.Context, sentence string) (domain.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return domain.Verdict{}, err
	}
	if n := utf8.RuneCountInString(sentence); n > MaxSentenceRunes {
		return domain.Verdict{}, fmt.Errorf("%w: sentence has %d characters, limit is %d", apperrors.ErrInvalidInput, n, MaxSentenceRunes)
	}
	return domain.Check(sentence), nil
}
