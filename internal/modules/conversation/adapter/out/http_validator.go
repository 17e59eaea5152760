package out

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	conversationout "tobetutor/internal/modules/conversation/port/out"
	apperrors "tobetutor/internal/platform/errors"
)

const maxVerdictBytes = 64 << 10

type validateRequest struct {
	Sentence string `json:"sentence"`
}

type validateResponse struct {
	Result *string `json:"result"`
}

// HTTPSentenceValidator asks a remote /validate endpoint for verdicts.
type HTTPSentenceValidator struct {
	url    string
	client *http.Client
	logger zerolog.Logger
}

var _ conversationout.SentenceValidator = (*HTTPSentenceValidator)(nil)

func NewHTTPSentenceValidator(url string, timeout time.Duration, logger zerolog.Logger) *HTTPSentenceValidator {
	return &HTTPSentenceValidator{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "http_validator").Logger(),
	}
}

// Validate returns the verdict text exactly as the service sent it. Transport
// failures, non-2xx replies and bodies without a result all wrap
// apperrors.ErrValidatorUnavailable.
func (v *HTTPSentenceValidator) Validate(ctx context.Context, sentence string) (string, error) {
	body, err := json.Marshal(validateRequest{Sentence: sentence})
	if err != nil {
		return "", fmt.Errorf("marshal validate request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", apperrors.ErrValidatorUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrValidatorUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		v.logger.Debug().Int("status", resp.StatusCode).Bytes("body", snippet).Msg("validator rejected request")
		return "", fmt.Errorf("%w: status %d", apperrors.ErrValidatorUnavailable, resp.StatusCode)
	}

	var decoded validateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxVerdictBytes)).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", apperrors.ErrValidatorUnavailable, err)
	}
	if decoded.Result == nil {
		return "", fmt.Errorf("%w: response has no result", apperrors.ErrValidatorUnavailable)
	}
	return *decoded.Result, nil
}
