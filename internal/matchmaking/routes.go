package matchmaking

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/auth"
	"github.com/imadgeboyega/kiekky-matchmaking/internal/common/utils"
)

// RegisterRoutes mounts the matchmaking API. swipesPerMinute bounds swipe and
// undo calls per authenticated user; 0 disables the limit.
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware *auth.Middleware, swipesPerMinute int) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		// Swipes
		r.Group(func(r chi.Router) {
			if swipesPerMinute > 0 {
				r.Use(swipeLimiter(swipesPerMinute))
			}
			r.Post("/api/v1/swipes", handler.RecordSwipe)
			r.Post("/api/v1/swipes/undo", handler.UndoSwipe)
		})

		// Feed and compatibility
		r.Get("/api/v1/recommendations/next", handler.NextCandidate)
		r.Get("/api/v1/compatibility", handler.ScoreCandidates)
		r.Get("/api/v1/compatibility/{userId}", handler.GetCompatibility)

		// Matches and chat
		r.Get("/api/v1/matches", handler.ListMatches)
		r.Get("/api/v1/matches/{id}/messages", handler.ListMessages)
		r.Post("/api/v1/matches/{id}/messages", handler.PostMessage)

		// Safety
		r.Post("/api/v1/users/{id}/block", handler.Block)
		r.Delete("/api/v1/users/{id}/block", handler.Unblock)
		r.Post("/api/v1/users/{id}/report", handler.Report)

		r.Post("/api/v1/accounts/{id}/onboard", handler.OnboardAccount)
	})
}

func swipeLimiter(perMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(keyByUser),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			utils.ErrorResponse(w, "Too many swipes, slow down", http.StatusTooManyRequests)
		}),
	)
}

// keyByUser runs after Authenticate, so the user id is always present;
// the client IP is the fallback.
func keyByUser(r *http.Request) (string, error) {
	if userID, ok := auth.GetUserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(userID, 10), nil
	}
	return httprate.KeyByIP(r)
}
