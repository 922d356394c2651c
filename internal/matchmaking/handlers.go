// internal/matchmaking/handlers.go

package matchmaking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/auth"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/logging"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/utils"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/questionnaire"
)

type Handler struct {
	service      Service
	systemUserID int64
}

// NewHandler wires the HTTP layer. systemUserID may onboard any account;
// everyone else only themselves.
func NewHandler(service Service, systemUserID int64) *Handler {
	return &Handler{service: service, systemUserID: systemUserID}
}

func (h *Handler) RecordSwipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var dto SwipeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.ErrorResponse(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(dto); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.RecordSwipe(r.Context(), userID, dto.ToUserID, dto.Value)
	if err != nil {
		h.handleError(w, r, err, "Failed to record swipe")
		return
	}

	// the swipe is committed; a feed failure must not invite a retry
	next, err := h.service.NextCandidate(r.Context(), userID)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int64("user_id", userID).Msg("failed to load next candidate after swipe")
		next = nil
	}

	status := http.StatusOK
	if result.IsNewMatch {
		status = http.StatusCreated
	}
	utils.SuccessResponse(w, SwipeResponse{SwipeResult: result, Next: next}, status)
}

func (h *Handler) UndoSwipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	next, err := h.service.UndoLastSwipe(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err, "Failed to undo swipe")
		return
	}
	utils.SuccessResponse(w, FeedResponse{Next: next}, http.StatusOK)
}

func (h *Handler) NextCandidate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	next, err := h.service.NextCandidate(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err, "Failed to load next candidate")
		return
	}
	utils.SuccessResponse(w, FeedResponse{Next: next}, http.StatusOK)
}

func (h *Handler) GetCompatibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	otherID, err := pathID(r, "userId")
	if err != nil {
		utils.ErrorResponse(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	report, err := h.service.ScoreCompatibility(r.Context(), userID, otherID)
	if err != nil {
		h.handleError(w, r, err, "Failed to score compatibility")
		return
	}
	utils.SuccessResponse(w, report, http.StatusOK)
}

// ScoreCandidates handles GET /compatibility?candidates=1,2,3
func (h *Handler) ScoreCandidates(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ids, err := parseIDList(r.URL.Query().Get("candidates"))
	if err != nil || len(ids) == 0 {
		utils.ErrorResponse(w, "candidates must be a comma separated list of user IDs", http.StatusBadRequest)
		return
	}

	summaries, err := h.service.ScoreCandidates(r.Context(), userID, ids)
	if err != nil {
		h.handleError(w, r, err, "Failed to score candidates")
		return
	}
	utils.SuccessResponse(w, summaries, http.StatusOK)
}

func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	targetID, err := pathID(r, "id")
	if err != nil {
		utils.ErrorResponse(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	next, err := h.service.Block(r.Context(), userID, targetID)
	if err != nil {
		h.handleError(w, r, err, "Failed to block user")
		return
	}
	utils.SuccessResponse(w, FeedResponse{Next: next}, http.StatusOK)
}

func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	targetID, err := pathID(r, "id")
	if err != nil {
		utils.ErrorResponse(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Unblock(r.Context(), userID, targetID); err != nil {
		h.handleError(w, r, err, "Failed to unblock user")
		return
	}
	utils.MessageResponse(w, "User unblocked", http.StatusOK)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	targetID, err := pathID(r, "id")
	if err != nil {
		utils.ErrorResponse(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var dto ReportRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.ErrorResponse(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(dto); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.service.Report(r.Context(), userID, targetID, dto.Reason, dto.Message)
	if err != nil {
		h.handleError(w, r, err, "Failed to report user")
		return
	}
	utils.SuccessResponse(w, report, http.StatusCreated)
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	matches, err := h.service.ListMatches(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err, "Failed to get matches")
		return
	}
	utils.SuccessResponse(w, matches, http.StatusOK)
}

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	matchID, err := pathID(r, "id")
	if err != nil {
		utils.ErrorResponse(w, "Invalid match ID", http.StatusBadRequest)
		return
	}

	var dto MessageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.ErrorResponse(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(dto); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.service.PostMessage(r.Context(), userID, matchID, dto.Text)
	if err != nil {
		h.handleError(w, r, err, "Failed to send message")
		return
	}
	utils.SuccessResponse(w, msg, http.StatusCreated)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	matchID, err := pathID(r, "id")
	if err != nil {
		utils.ErrorResponse(w, "Invalid match ID", http.StatusBadRequest)
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}

	msgs, err := h.service.ListMessages(r.Context(), userID, matchID, limit)
	if err != nil {
		h.handleError(w, r, err, "Failed to get messages")
		return
	}
	utils.SuccessResponse(w, msgs, http.StatusOK)
}

func (h *Handler) OnboardAccount(w http.ResponseWriter, r *http.Request) {
	callerID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID, err := pathID(r, "id")
	if err != nil {
		utils.ErrorResponse(w, "Invalid account ID", http.StatusBadRequest)
		return
	}
	if accountID != callerID && (h.systemUserID == 0 || callerID != h.systemUserID) {
		utils.ErrorResponse(w, "Forbidden", http.StatusForbidden)
		return
	}

	channel, err := h.service.OnboardAccount(r.Context(), accountID)
	if err != nil {
		h.handleError(w, r, err, "Failed to onboard account")
		return
	}
	utils.SuccessResponse(w, map[string]interface{}{"system_channel": channel}, http.StatusOK)
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidSwipeValue),
		errors.Is(err, ErrSelfAction),
		errors.Is(err, ErrInvalidReason),
		errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrMessageTooLong),
		errors.Is(err, ErrTooManyCandidates):
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrTargetUnavailable),
		errors.Is(err, ErrMatchNotFound),
		errors.Is(err, questionnaire.ErrProfileNotFound):
		utils.ErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNotParticipant):
		utils.ErrorResponse(w, err.Error(), http.StatusForbidden)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg(fallback)
		utils.ErrorResponse(w, fallback, http.StatusInternalServerError)
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, errors.New("invalid id list")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
