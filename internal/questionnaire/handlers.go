// internal/questionnaire/handlers.go

package questionnaire

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/auth"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/logging"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetQuestionnaire handles GET /questionnaire?kind=self|ideal
func (h *Handler) GetQuestionnaire(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	kindParam := r.URL.Query().Get("kind")
	if kindParam == "" {
		kindParam = string(AnswerSelf)
	}
	kind, err := ParseAnswerKind(kindParam)
	if err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.service.Questionnaire(r.Context(), userID, kind)
	if err != nil {
		h.handleError(w, r, err, "Failed to load questionnaire")
		return
	}
	utils.SuccessResponse(w, view, http.StatusOK)
}

// SaveAnswers handles PUT /questionnaire/{kind} with a JSON object of code -> answer
func (h *Handler) SaveAnswers(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	kind, err := ParseAnswerKind(chi.URLParam(r, "kind"))
	if err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var answers AnswerMap
	if err := json.NewDecoder(r.Body).Decode(&answers); err != nil {
		utils.ErrorResponse(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	progress, err := h.service.SaveAnswers(r.Context(), userID, kind, answers)
	if err != nil {
		h.handleError(w, r, err, "Failed to save answers")
		return
	}
	utils.SuccessResponse(w, progress, http.StatusOK)
}

// GetProgress handles GET /questionnaire/progress
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	report, err := h.service.Progress(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err, "Failed to load progress")
		return
	}
	utils.SuccessResponse(w, report, http.StatusOK)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrProfileNotFound):
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidKind), errors.Is(err, ErrInvalidChoice):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg(fallback)
		utils.ErrorResponse(w, fallback, http.StatusInternalServerError)
	}
}
