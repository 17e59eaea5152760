package in

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"tobetutor/internal/modules/grammar/dto"
	grammarin "tobetutor/internal/modules/grammar/port/in"
	apperrors "tobetutor/internal/platform/errors"
)

const maxBodyBytes = 64 << 10

type validateRequest struct {
	Sentence string `json:"sentence"`
}

type validateResponse struct {
	Result   string `json:"result"`
	Accepted bool   `json:"accepted"`
	Form     string `json:"form,omitempty"`
}

// HTTPHandler serves the sentence validator over JSON.
type HTTPHandler struct {
	usecase grammarin.Usecase
	logger  zerolog.Logger
}

func NewHTTPHandler(usecase grammarin.Usecase, logger zerolog.Logger) HTTPHandler {
	return HTTPHandler{usecase: usecase, logger: logger}
}

// Router returns a chi router with the validator routes and request logging.
func (h HTTPHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

func (h HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Post("/validate", h.handleValidate)
	r.Get("/healthz", h.handleHealth)
}

func (h HTTPHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var payload validateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.usecase.Validate(r.Context(), dto.ValidateInput{Sentence: payload.Sentence})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("validate sentence")
		respondError(w, http.StatusInternalServerError, "validation failed")
		return
	}
	respondJSON(w, http.StatusOK, validateResponse{Result: out.Result, Accepted: out.Accepted, Form: out.Form})
}

func (h HTTPHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h HTTPHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			h.logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
